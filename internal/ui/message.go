package ui

import (
	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/tasks"
	"github.com/desertthunder/igsky/internal/workflow"
)

// stateMsg carries a workflow store snapshot into the Elm loop.
type stateMsg workflow.WorkflowState

// progressMsg carries an engine progress update into the Elm loop.
type progressMsg tasks.ProgressUpdate

// importDoneMsg reports the outcome of the import step.
type importDoneMsg struct {
	result *tasks.ImportResult
	err    error
}

// authDoneMsg reports the outcome of the auth step.
type authDoneMsg struct {
	session *models.Session
	err     error
}

// migrationDoneMsg reports the outcome of the prepare + execution steps.
type migrationDoneMsg struct {
	result *tasks.ExecutionResult
	err    error
}
