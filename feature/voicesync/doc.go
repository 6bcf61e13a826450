// Package voicesync is the update synchronization engine.
//
// An Orchestrator runs two operations against a snapshot store, an audio index
// and an injected Generator:
//
//   - Scan loads the last baseline and classifies the catalog with the diff engine.
//   - Apply regenerates the scan's targets sequentially, patches the audio index,
//     writes a new baseline and optionally runs the Exporter.
//
// # States
//
//	idle -> scanning -> scanned -> applying -> completed | cancelled | failed
//
// Apply is only accepted in the scanned state and only for the scan that
// produced it. A new scan may start from any terminal state.
//
// # Failure handling
//
// A failing or panicking generator is recorded in ApplyResult.FailedQuests and
// the batch continues; the failed quest keeps its previous fingerprint in the
// new baseline and is retried on the next scan. Cancellation is checked before
// each quest; a cancelled run keeps its audio and index updates but writes no
// snapshot. Export failures are reported in ApplyResult.ExportError only.
//
// # Service
//
// Service wraps an orchestrator for the CLI and HTTP API: it loads quests from
// a quests.Source, rejects concurrent runs with ErrRunInProgress, runs applies
// in the background, and takes a file lock in the output root so two processes
// never apply against the same tree.
package voicesync
