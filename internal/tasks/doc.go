// package tasks implements the migration pipeline between an Instagram
// export and a Bluesky account.
//
// The core abstraction is MigrationEngine, which drives the wizard's steps:
// import, authentication, preparation, and execution. Each controller calls
// the domain services, records outcomes into a workflow.Store, and emits
// ProgressUpdate events via channels for non-blocking status reporting to the
// CLI/TUI layers.
//
// Execution posts through a bounded worker pool behind a rate limiter. The
// destination orders posts by each record's original timestamp, so concurrent
// creation does not disturb the timeline.
package tasks
