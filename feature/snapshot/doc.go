// Package snapshot persists versioned baselines of quest fingerprints.
//
// A Set maps quest IDs to their fingerprint, zone and timestamp. Sets are
// immutable once written; a "last" pointer names the active baseline and is
// only advanced after the set itself is fully stored.
//
// # Backends
//
//   - FileStore: <outputRoot>/snapshots/<dataVersion>.json plus last.json.
//     Files are written to a temp file, synced and renamed. Older files using
//     an entry array with quest_id and hash are still readable.
//   - DBStore: snapshot_sets, snapshot_entries and snapshot_pointers tables,
//     written in a single transaction.
//
// Failures are returned as *StorageError.
package snapshot
