// Package ui implements the interactive migration wizard using bubbletea's
// Elm architecture.
//
// The TUI walks the five wizard steps held by the workflow store:
//  1. upload : enter the Instagram export path and validate it
//  2. auth : sign in to Bluesky with handle + app password
//  3. config : adjust migration filters and start the run
//  4. execution : monitor real-time progress updates
//  5. completion : summary with per-post failures and a report hint
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Store snapshots and engine progress updates flow through channels pumped
// into tea messages, so the store stays the single authority on wizard state.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
