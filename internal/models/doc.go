// Package models defines domain entities and persistence interfaces for the igsky migration service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing export and network data
//   - [Post] : A post parsed from an Instagram data export
//   - [MediaFile] : A single photo or video attached to a post
//   - [PreparedPost] : A post transformed and ready for publishing to Bluesky
//   - [Session] : An authenticated Bluesky session handle
//   - [Account] : Bluesky account profile details
//   - [MigrationConfig] : User-selected filters and batching options for a run
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [MigrationRun] : A completed or in-flight migration run with totals and timestamps
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
