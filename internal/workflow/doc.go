// Package workflow implements the five-step migration wizard state machine.
//
// The central type is [Store], the single authority over [WorkflowState]: which
// step is active, which steps are complete, per-step data/errors/warnings, and
// the workflow-wide imported posts, prepared posts, session, configuration,
// progress, and error log. UI components and step controllers read snapshots,
// do their step's work against the domain services, and report results back
// through the store's mutation operations. The store itself never calls a
// domain service.
//
// Every mutation replaces the state wholesale and notifies subscribers only
// when the new state differs structurally from the previous one, so redundant
// writes never produce notification storms. Subscribers receive the latest
// snapshot immediately on attach, then every commit in order.
//
// Navigation is linear: Advance requires the active step to be completed and
// clamps at the past-the-end index ([StepCount]); Retreat floors at zero.
// Completion is one-way except through Reset or an explicit per-step undo
// (for example logging out of Bluesky, which un-completes the auth step).
package workflow
