// Package services defines the three capability contracts the migration
// wizard consumes, plus their production and demo implementations.
//
//   - [Importer] : reads and validates Instagram data exports
//   - [Publisher] : authenticates against and posts to a Bluesky PDS
//   - [Tracker] : live progress reporting for a migration run
//
// The contracts carry no UI concerns and no knowledge of the workflow store;
// step controllers in the tasks package compose the two. Exactly one
// implementation of each contract is selected at startup: the real
// [InstagramImporter]/[BlueskyService] pair, or the in-memory demo pair when
// the app runs with demo mode enabled.
package services
