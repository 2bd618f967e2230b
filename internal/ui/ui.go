package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/igsky/internal/tasks"
	"github.com/desertthunder/igsky/internal/workflow"
)

// configOption indexes the entries of the config step view.
type configOption int

const (
	optLikes configOption = iota
	optComments
	optQuality
	optStart
	configOptionCount
)

// Model represents the wizard TUI state.
//
// The workflow store owns all step state; the model holds only view-local
// concerns (inputs, cursor, in-flight flags) and the latest store snapshot.
type Model struct {
	ctx    context.Context
	store  *workflow.Store
	engine *tasks.MigrationEngine

	state       workflow.WorkflowState
	stateCh     <-chan workflow.WorkflowState
	unsubscribe func()

	progressCh   chan tasks.ProgressUpdate
	lastProgress tasks.ProgressUpdate

	pathInput     textinput.Model
	handleInput   textinput.Model
	passwordInput textinput.Model
	authFocus     int

	cursor configOption
	busy   bool
	err    error

	result       *tasks.ExecutionResult
	migrationErr error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a wizard model over the given store and engine.
func NewModel(ctx context.Context, store *workflow.Store, engine *tasks.MigrationEngine) *Model {
	path := textinput.New()
	path.Placeholder = "path/to/instagram-export.zip"
	path.Focus()

	handle := textinput.New()
	handle.Placeholder = "handle.bsky.social"

	password := textinput.New()
	password.Placeholder = "xxxx-xxxx-xxxx-xxxx"
	password.EchoMode = textinput.EchoPassword

	stateCh, unsubscribe := store.Subscribe()

	return &Model{
		ctx:           ctx,
		store:         store,
		engine:        engine,
		state:         store.Snapshot(),
		stateCh:       stateCh,
		unsubscribe:   unsubscribe,
		pathInput:     path,
		handleInput:   handle,
		passwordInput: password,
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// Init starts the store snapshot pump.
func (m *Model) Init() tea.Cmd {
	return m.waitForState()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := msg.Width - 8
		if inputWidth > 60 {
			inputWidth = 60
		}
		m.pathInput.Width = inputWidth
		m.handleInput.Width = inputWidth
		m.passwordInput.Width = inputWidth
		return m, nil

	case stateMsg:
		m.state = workflow.WorkflowState(msg)
		return m, m.waitForState()

	case progressMsg:
		m.lastProgress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case importDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.store.Advance()
		}
		return m, nil

	case authDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.store.Advance()
		}
		return m, nil

	case migrationDoneMsg:
		m.busy = false
		m.result = msg.result
		m.err = msg.err
		m.progressCh = nil
		if msg.err == nil && msg.result != nil && !msg.result.Cancelled {
			m.store.Advance()
			m.store.CompleteStep(workflow.IdxCompletion)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

// View renders the current wizard step.
func (m *Model) View() string {
	var body string
	switch m.state.CurrentStep {
	case workflow.IdxContentUpload:
		body = m.renderUpload()
	case workflow.IdxBlueskyAuth:
		body = m.renderAuth()
	case workflow.IdxMigrationConfig:
		body = m.renderConfig()
	case workflow.IdxMigrationExecution:
		body = m.renderExecution()
	default:
		body = m.renderCompletion()
	}
	return m.renderBreadcrumb() + "\n" + body
}

// Close releases the store subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}

	switch m.state.CurrentStep {
	case workflow.IdxContentUpload:
		return m.handleUploadKeys(msg)
	case workflow.IdxBlueskyAuth:
		return m.handleAuthKeys(msg)
	case workflow.IdxMigrationConfig:
		return m.handleConfigKeys(msg)
	case workflow.IdxMigrationExecution:
		return m.handleExecutionKeys(msg)
	default:
		return m.handleCompletionKeys(msg)
	}
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Close()
		return m, tea.Quit
	case "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" || m.busy {
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, m.runImport(path)
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.store.Retreat()
		return m, nil
	case "tab", "shift+tab":
		m.authFocus = (m.authFocus + 1) % 2
		if m.authFocus == 0 {
			m.passwordInput.Blur()
			return m, m.handleInput.Focus()
		}
		m.handleInput.Blur()
		return m, m.passwordInput.Focus()
	case "enter":
		identifier := strings.TrimSpace(m.handleInput.Value())
		secret := strings.TrimSpace(m.passwordInput.Value())
		if identifier == "" {
			m.authFocus = 0
			m.passwordInput.Blur()
			return m, m.handleInput.Focus()
		}
		if secret == "" {
			m.authFocus = 1
			m.handleInput.Blur()
			return m, m.passwordInput.Focus()
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, m.runAuth(identifier, secret)
	}

	var cmd tea.Cmd
	if m.authFocus == 0 {
		if !m.handleInput.Focused() {
			m.handleInput.Focus()
		}
		m.handleInput, cmd = m.handleInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleConfigKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.Close()
		return m, tea.Quit
	case "esc":
		m.store.Retreat()
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < configOptionCount-1 {
			m.cursor++
		}
		return m, nil
	case " ", "enter":
		return m.applyConfigOption()
	}
	return m, nil
}

func (m *Model) applyConfigOption() (tea.Model, tea.Cmd) {
	cfg := m.state.Config
	switch m.cursor {
	case optLikes:
		cfg.IncludeLikes = !cfg.IncludeLikes
		m.store.SetConfig(cfg)
	case optComments:
		cfg.IncludeComments = !cfg.IncludeComments
		m.store.SetConfig(cfg)
	case optQuality:
		cfg.MediaQuality = nextQuality(cfg.MediaQuality)
		m.store.SetConfig(cfg)
	case optStart:
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, m.startMigration()
	}
	return m, nil
}

func (m *Model) handleExecutionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tracker := m.engine.Tracker()
	switch msg.String() {
	case "p":
		if tracker != nil {
			tracker.Pause()
		}
	case "r":
		if tracker != nil {
			tracker.Resume()
		}
	case "c":
		if tracker != nil {
			tracker.Cancel()
		}
	case "q":
		m.Close()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleCompletionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.Close()
		return m, tea.Quit
	case "r":
		m.store.Reset()
		m.result = nil
		m.err = nil
		m.cursor = 0
		m.pathInput.SetValue("")
		m.passwordInput.SetValue("")
		m.pathInput.Focus()
		return m, nil
	}
	return m, nil
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-m.stateCh
		if !ok {
			return nil
		}
		return stateMsg(state)
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressCh == nil {
			return migrationDoneMsg{result: m.result, err: m.migrationErr}
		}
		update, ok := <-m.progressCh
		if !ok {
			return migrationDoneMsg{result: m.result, err: m.migrationErr}
		}
		return progressMsg(update)
	}
}

func (m *Model) runImport(path string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.RunImport(m.ctx, m.store, []string{path}, nil)
		return importDoneMsg{result: result, err: err}
	}
}

func (m *Model) runAuth(identifier, secret string) tea.Cmd {
	return func() tea.Msg {
		session, err := m.engine.RunAuth(m.ctx, m.store, identifier, secret, nil)
		return authDoneMsg{session: session, err: err}
	}
}

// startMigration prepares the posts, advances to the execution step, and
// launches the posting pipeline with a progress pump.
func (m *Model) startMigration() tea.Cmd {
	m.progressCh = make(chan tasks.ProgressUpdate, 50)

	go func() {
		defer close(m.progressCh)

		if _, err := m.engine.RunPrepare(m.ctx, m.store, m.progressCh); err != nil {
			m.migrationErr = err
			return
		}
		m.store.Advance()

		result, err := m.engine.RunExecution(m.ctx, m.store, m.progressCh, tasks.PostOpts{})
		m.result = result
		m.migrationErr = err
	}()

	return m.waitForProgress()
}
