// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/igsky/internal/models"
)

// MockImporter is a configurable test double for [services.Importer]
type MockImporter struct {
	Posts       []models.Post
	Prepared    []models.PreparedPost
	Validation  *models.ValidationResult
	ValidateErr error
	ParseErr    error
	ProcessErr  error
}

func (m *MockImporter) Name() string { return "mock-importer" }

func (m *MockImporter) Validate(ctx context.Context, paths []string) (*models.ValidationResult, error) {
	if m.ValidateErr != nil {
		return nil, m.ValidateErr
	}
	if m.Validation != nil {
		return m.Validation, nil
	}
	media := 0
	for _, p := range m.Posts {
		media += len(p.Media)
	}
	return &models.ValidationResult{Valid: true, PostCount: len(m.Posts), MediaCount: media}, nil
}

func (m *MockImporter) Parse(ctx context.Context, paths []string) ([]models.Post, error) {
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	return m.Posts, nil
}

func (m *MockImporter) Process(ctx context.Context, paths []string) ([]models.PreparedPost, error) {
	if m.ProcessErr != nil {
		return nil, m.ProcessErr
	}
	return m.Prepared, nil
}

func (m *MockImporter) EstimateDuration(posts []models.Post) string { return "under a minute" }

func (m *MockImporter) FilterByDateRange(posts []models.Post, start, end *time.Time) []models.Post {
	r := models.DateRange{Start: start, End: end}
	var out []models.Post
	for _, p := range posts {
		if r.Contains(p.TakenAt) {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockImporter) ValidateMediaFiles(paths []string) *models.MediaValidation {
	return &models.MediaValidation{Valid: paths}
}

// MockPublisher is a configurable test double for [services.Publisher]
type MockPublisher struct {
	mu            sync.Mutex
	Session       *models.Session
	Account       *models.Account
	AuthErr       error
	ConnErr       error
	CreateErr     error
	CreateErrFor  map[string]error // Per-post-ID create failures
	CreatedPosts  []models.PreparedPost
	CreateCalls   int
	ValidateCalls int
}

func (m *MockPublisher) Name() string { return "mock-publisher" }

func (m *MockPublisher) ValidateCredentials(identifier, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidateCalls++
	if identifier == "" || secret == "" {
		return errors.New("missing credentials")
	}
	return nil
}

func (m *MockPublisher) Authenticate(ctx context.Context, identifier, secret string) (*models.Session, error) {
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if m.Session != nil {
		return m.Session, nil
	}
	return &models.Session{DID: "did:plc:mock", Handle: identifier}, nil
}

func (m *MockPublisher) TestConnection(ctx context.Context) error { return m.ConnErr }

func (m *MockPublisher) CreatePost(ctx context.Context, post models.PreparedPost) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if err, ok := m.CreateErrFor[post.Source.ID]; ok {
		return "", err
	}
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.CreatedPosts = append(m.CreatedPosts, post)
	return fmt.Sprintf("https://bsky.app/profile/mock/post/%d", m.CreateCalls), nil
}

// Created returns the successfully created posts.
func (m *MockPublisher) Created() []models.PreparedPost {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PreparedPost, len(m.CreatedPosts))
	copy(out, m.CreatedPosts)
	return out
}

func (m *MockPublisher) AccountInfo(ctx context.Context) (*models.Account, error) {
	if m.Account != nil {
		return m.Account, nil
	}
	return &models.Account{DID: "did:plc:mock", Handle: "mock.bsky.social"}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	Responses []*http.Response
	Err       error
	Requests  []*http.Request
	calls     int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{Responses: []*http.Response{r}, Err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	resp := m.Responses[m.calls%len(m.Responses)]
	m.calls++
	return resp, nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile writes content to path, creating it with 0644 permissions.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// MustReadBody returns a recorded request's body as a string. Requests
// captured by [MockRoundTripper] keep their bodies unread, so GetBody (set by
// http.NewRequest for byte readers) replays them safely.
func MustReadBody(t *testing.T, req *http.Request) string {
	t.Helper()
	if req.Body == nil {
		return ""
	}
	body := req.Body
	if req.GetBody != nil {
		replay, err := req.GetBody()
		if err != nil {
			t.Fatalf("Failed to replay request body: %v", err)
		}
		body = replay
	}
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read request body: %v", err)
	}
	return string(data)
}

// JSONResponse builds an *http.Response with the given status and JSON body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}
