// Package integrity checks that the generated audio, the quest catalog and the
// object storage mirror agree.
//
// # Checks Provided
//
//   - Structure: the local audio/<lang>/{male,female} directories and the
//     matching storage folders exist (fixable).
//   - Audio: every audio file is reconciled across the catalog, the local
//     index and a storage listing. The resulting plan can upload local files
//     missing from storage and purge audio of quests the catalog dropped.
//
// # HTTP Endpoints
//
//   - GET /integrity/structure : Runs the structure check (supports ?fix=true).
//   - GET /integrity/audio : Reconciles the audio mirror (read-only).
//   - POST /integrity/audio/sync : Plans and, with ?confirm=true, executes uploads (?upload=true) and purges (?purge=true).
package integrity
