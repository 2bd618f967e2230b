// Package repositories implements SQLite persistence for the domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for
// human-readable ordering. Runs support soft deletes via deleted_at timestamps
// and are excluded from queries once deleted.
//
// Key Implementations:
//   - [RunRepository] : Migration run history with status-based queries
//   - [PostRepository] : Per-run cache of migrated posts and their URLs
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #7)
// independent of UUIDs and creation timestamps. The [NextSequence] function
// atomically increments per-table sequence counters in dedicated sequence
// tables.
package repositories
