// Bluesky AT Protocol implementation of [Publisher]
//
// XRPC endpoints based on https://docs.bsky.app/docs/category/http-reference
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

const (
	// DefaultPDS is the Bluesky-operated PDS most accounts live on.
	DefaultPDS = "https://bsky.social"

	createSessionPath = "/xrpc/com.atproto.server.createSession"
	getSessionPath    = "/xrpc/com.atproto.server.getSession"
	getProfilePath    = "/xrpc/app.bsky.actor.getProfile"
	uploadBlobPath    = "/xrpc/com.atproto.repo.uploadBlob"
	createRecordPath  = "/xrpc/com.atproto.repo.createRecord"

	postCollection = "app.bsky.feed.post"
)

// appPasswordPattern matches the xxxx-xxxx-xxxx-xxxx app-password shape.
var appPasswordPattern = regexp.MustCompile(`^[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}$`)

// BlueskyService implements [Publisher] against an AT Protocol PDS.
type BlueskyService struct {
	baseURL    string
	httpClient *http.Client
	session    *models.Session
	debug      *log.Logger // When set, outgoing requests are logged as cURL commands
}

// blueskySession is the createSession/getSession response body.
type blueskySession struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

// blueskyProfile is the getProfile response body.
type blueskyProfile struct {
	DID            string `json:"did"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	Avatar         string `json:"avatar"`
	FollowersCount int    `json:"followersCount"`
	FollowsCount   int    `json:"followsCount"`
	PostsCount     int    `json:"postsCount"`
}

// blueskyError is the XRPC error envelope.
type blueskyError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// uploadBlobResponse wraps the blob reference returned by uploadBlob. The
// blob is kept opaque and embedded verbatim into the post record.
type uploadBlobResponse struct {
	Blob json.RawMessage `json:"blob"`
}

// createRecordResponse is the createRecord response body.
type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// postImage is one image embed within a post record.
type postImage struct {
	Alt   string          `json:"alt"`
	Image json.RawMessage `json:"image"`
}

// imagesEmbed is the app.bsky.embed.images structure.
type imagesEmbed struct {
	Type   string      `json:"$type"`
	Images []postImage `json:"images"`
}

// postRecord is the app.bsky.feed.post record written by CreatePost.
type postRecord struct {
	Type      string       `json:"$type"`
	Text      string       `json:"text"`
	CreatedAt string       `json:"createdAt"`
	Langs     []string     `json:"langs,omitempty"`
	Embed     *imagesEmbed `json:"embed,omitempty"`
}

// NewBlueskyService creates a publisher against the given PDS base URL.
// An empty serviceURL selects [DefaultPDS]; a nil client selects
// [http.DefaultClient].
func NewBlueskyService(serviceURL string, client *http.Client) *BlueskyService {
	if serviceURL == "" {
		serviceURL = DefaultPDS
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &BlueskyService{
		baseURL:    strings.TrimRight(serviceURL, "/"),
		httpClient: client,
	}
}

// Name returns the destination service name.
func (b *BlueskyService) Name() string { return "Bluesky" }

// SetDebugLogger enables cURL capture of outgoing requests for debugging.
func (b *BlueskyService) SetDebugLogger(l *log.Logger) { b.debug = l }

// SetSession installs a previously saved session, e.g. restored from disk.
func (b *BlueskyService) SetSession(s *models.Session) { b.session = s }

// Session returns the current session handle, or nil before authentication.
func (b *BlueskyService) Session() *models.Session { return b.session }

// ValidateCredentials checks credential shape without a network round trip.
func (b *BlueskyService) ValidateCredentials(identifier, secret string) error {
	if identifier == "" || secret == "" {
		return fmt.Errorf("%w: identifier and app password are required", shared.ErrMissingCredentials)
	}
	if !strings.Contains(identifier, ".") && !strings.HasPrefix(identifier, "did:") {
		return fmt.Errorf("%w: identifier must be a handle like name.bsky.social or a DID", shared.ErrInvalidCredentials)
	}
	if !appPasswordPattern.MatchString(secret) {
		return fmt.Errorf("%w: expected an app password in xxxx-xxxx-xxxx-xxxx form", shared.ErrInvalidCredentials)
	}
	return nil
}

// Authenticate creates a session on the PDS and returns the session handle.
func (b *BlueskyService) Authenticate(ctx context.Context, identifier, secret string) (*models.Session, error) {
	body := map[string]string{"identifier": identifier, "password": secret}

	var resp blueskySession
	if err := b.doJSON(ctx, http.MethodPost, createSessionPath, "", body, &resp); err != nil {
		return nil, err
	}

	b.session = &models.Session{
		DID:        resp.DID,
		Handle:     resp.Handle,
		AccessJWT:  resp.AccessJWT,
		RefreshJWT: resp.RefreshJWT,
		Service:    b.baseURL,
		CreatedAt:  time.Now().UTC(),
	}
	return b.session, nil
}

// TestConnection verifies the current session against the PDS.
func (b *BlueskyService) TestConnection(ctx context.Context) error {
	if b.session == nil {
		return shared.ErrNotAuthenticated
	}
	var resp blueskySession
	return b.doJSON(ctx, http.MethodGet, getSessionPath, "", nil, &resp)
}

// AccountInfo fetches the authenticated account's profile.
func (b *BlueskyService) AccountInfo(ctx context.Context) (*models.Account, error) {
	if b.session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	query := url.Values{"actor": {b.session.DID}}
	var resp blueskyProfile
	if err := b.doJSON(ctx, http.MethodGet, getProfilePath, query.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	return &models.Account{
		DID:         resp.DID,
		Handle:      resp.Handle,
		DisplayName: resp.DisplayName,
		Description: resp.Description,
		Avatar:      resp.Avatar,
		Followers:   resp.FollowersCount,
		Follows:     resp.FollowsCount,
		Posts:       resp.PostsCount,
	}, nil
}

// CreatePost uploads the post's readable image media as blobs, writes the
// post record, and returns the public URL of the created post.
func (b *BlueskyService) CreatePost(ctx context.Context, post models.PreparedPost) (string, error) {
	if b.session == nil {
		return "", shared.ErrNotAuthenticated
	}

	var embed *imagesEmbed
	for _, media := range post.Media {
		if media.Kind != models.MediaPhoto {
			continue
		}
		blob, err := b.uploadBlob(ctx, media.URI)
		if err != nil {
			return "", fmt.Errorf("failed to upload %s: %w", media.URI, err)
		}
		if embed == nil {
			embed = &imagesEmbed{Type: "app.bsky.embed.images"}
		}
		embed.Images = append(embed.Images, postImage{Image: blob})
	}

	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := postRecord{
		Type:      postCollection,
		Text:      post.Text,
		CreatedAt: createdAt.Format(time.RFC3339),
		Embed:     embed,
	}
	body := map[string]any{
		"repo":       b.session.DID,
		"collection": postCollection,
		"record":     record,
	}

	var resp createRecordResponse
	if err := b.doJSON(ctx, http.MethodPost, createRecordPath, "", body, &resp); err != nil {
		return "", err
	}

	return b.postURL(resp.URI), nil
}

// postURL converts an at:// record URI into a public bsky.app URL.
func (b *BlueskyService) postURL(atURI string) string {
	rkey := atURI[strings.LastIndex(atURI, "/")+1:]
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", b.session.Handle, rkey)
}

// uploadBlob streams a media file to the PDS and returns the opaque blob ref.
func (b *BlueskyService) uploadBlob(ctx context.Context, path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrMediaUnsupported, path)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+uploadBlobPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+b.session.AccessJWT)

	if b.debug != nil {
		b.debug.Debug("uploadBlob", "curl", shared.FormatCurl(req, nil))
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, payload); err != nil {
		return nil, err
	}

	var blobResp uploadBlobResponse
	if err := json.Unmarshal(payload, &blobResp); err != nil {
		return nil, fmt.Errorf("%w: malformed blob response: %v", shared.ErrAPIRequest, err)
	}
	return blobResp.Blob, nil
}

// doJSON performs an XRPC call with optional JSON body, decoding the JSON
// response into out.
func (b *BlueskyService) doJSON(ctx context.Context, method, path, query string, body, out any) error {
	var reqBody io.Reader
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	endpoint := b.baseURL + path
	if query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.session != nil {
		req.Header.Set("Authorization", "Bearer "+b.session.AccessJWT)
	}

	if b.debug != nil {
		b.debug.Debug("xrpc", "curl", shared.FormatCurl(req, raw))
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, payload); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("%w: malformed response: %v", shared.ErrAPIRequest, err)
		}
	}
	return nil
}

// checkStatus maps XRPC error responses onto the shared sentinel errors.
func checkStatus(status int, payload []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var xe blueskyError
	_ = json.Unmarshal(payload, &xe)
	detail := xe.Message
	if detail == "" {
		detail = xe.Error
	}
	if detail == "" {
		detail = fmt.Sprintf("status %d", status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, detail)
	case status >= 500:
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, detail)
	default:
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, detail)
	}
}
