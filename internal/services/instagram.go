// Instagram data-export implementation of [Importer]
//
// Reads the archive Instagram produces from Settings → Your activity →
// Download your information, either as the downloaded .zip or an unpacked
// directory tree.
package services

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/igsky/internal/models"
	"github.com/desertthunder/igsky/internal/shared"
)

const (
	// maxPostLength is the destination's post length limit in characters.
	maxPostLength = 300
	// maxImagesPerPost is the destination's image embed limit.
	maxImagesPerPost = 4
	// maxMediaBytes rejects media files above this size during validation.
	maxMediaBytes = 100 << 20
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".heic": true}
var videoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true}

// InstagramImporter implements [Importer] for real Instagram data exports.
type InstagramImporter struct{}

// NewInstagramImporter creates an importer for Instagram export archives.
func NewInstagramImporter() *InstagramImporter {
	return &InstagramImporter{}
}

// Name returns the import source name.
func (im *InstagramImporter) Name() string { return "Instagram" }

// exportMedia mirrors one media entry in posts_N.json.
type exportMedia struct {
	URI               string `json:"uri"`
	CreationTimestamp int64  `json:"creation_timestamp"`
	Title             string `json:"title"`
}

// exportPost mirrors one post entry in posts_N.json.
type exportPost struct {
	Media             []exportMedia `json:"media"`
	Title             string        `json:"title"`
	CreationTimestamp int64         `json:"creation_timestamp"`
}

// postFile is one posts_N.json payload located inside the export.
type postFile struct {
	name string
	data []byte
}

// Validate inspects the export and reports counts plus shape problems.
// I/O failures (unreadable paths) surface as errors; content problems land in
// the result's Errors/Warnings without failing the call.
func (im *InstagramImporter) Validate(ctx context.Context, paths []string) (*models.ValidationResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no export path provided", shared.ErrMissingArgument)
	}

	result := &models.ValidationResult{}

	files, err := collectPostFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		result.Errors = append(result.Errors, "no posts_*.json found: not an Instagram export, or the export excludes posts")
		return result, nil
	}

	for _, file := range files {
		var entries []exportPost
		if err := json.Unmarshal(file.data, &entries); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: malformed JSON: %v", file.name, err))
			continue
		}
		for _, entry := range entries {
			result.PostCount++
			result.MediaCount += len(entry.Media)
			if len(entry.Media) == 0 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: post with no media will be migrated as text only", file.name))
			}
			if entry.CreationTimestamp == 0 && (len(entry.Media) == 0 || entry.Media[0].CreationTimestamp == 0) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: post missing creation timestamp", file.name))
			}
		}
	}

	if result.PostCount == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "export contains no posts")
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

// Process parses the export and prepares every post for publishing. It does
// not require a prior Validate call.
func (im *InstagramImporter) Process(ctx context.Context, paths []string) ([]models.PreparedPost, error) {
	posts, err := im.Parse(ctx, paths)
	if err != nil {
		return nil, err
	}

	prepared := make([]models.PreparedPost, 0, len(posts))
	for _, post := range posts {
		prepared = append(prepared, PreparePost(post, models.QualityMedium))
	}
	return prepared, nil
}

// Parse reads the export and returns raw posts sorted oldest first.
func (im *InstagramImporter) Parse(ctx context.Context, paths []string) ([]models.Post, error) {
	files, err := collectPostFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no posts_*.json in %v", shared.ErrInvalidExport, paths)
	}

	var posts []models.Post
	for _, file := range files {
		var entries []exportPost
		if err := json.Unmarshal(file.data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidExport, file.name, err)
		}
		for i, entry := range entries {
			posts = append(posts, convertPost(entry, fmt.Sprintf("%s#%d", file.name, i)))
		}
	}

	if len(posts) == 0 {
		return nil, shared.ErrNoPosts
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].TakenAt.Before(posts[j].TakenAt) })
	return posts, nil
}

// EstimateDuration returns a human-readable migration estimate, assuming one
// second per post plus two per media upload.
func (im *InstagramImporter) EstimateDuration(posts []models.Post) string {
	seconds := len(posts)
	for _, post := range posts {
		seconds += 2 * len(post.Media)
	}

	switch {
	case seconds < 60:
		return "under a minute"
	case seconds < 120:
		return "about a minute"
	case seconds < 90*60:
		return fmt.Sprintf("about %d minutes", (seconds+30)/60)
	default:
		return fmt.Sprintf("about %d hours", (seconds+1800)/3600)
	}
}

// FilterByDateRange returns posts created within [start, end].
func (im *InstagramImporter) FilterByDateRange(posts []models.Post, start, end *time.Time) []models.Post {
	r := models.DateRange{Start: start, End: end}
	filtered := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if r.Contains(post.TakenAt) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

// ValidateMediaFiles partitions media paths into usable and rejected files.
func (im *InstagramImporter) ValidateMediaFiles(paths []string) *models.MediaValidation {
	result := &models.MediaValidation{}
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		if !imageExts[ext] && !videoExts[ext] {
			result.Invalid = append(result.Invalid, models.MediaProblem{Path: path, Reason: fmt.Sprintf("unsupported media type %q", ext)})
			continue
		}
		if info, err := os.Stat(path); err == nil && info.Size() > maxMediaBytes {
			result.Invalid = append(result.Invalid, models.MediaProblem{Path: path, Reason: "exceeds 100MB size limit"})
			continue
		}
		result.Valid = append(result.Valid, path)
	}
	return result
}

// PreparePost transforms a raw post for publishing: caption trimmed to the
// destination's length limit, media capped at the embed limit, original
// timestamp carried over.
func PreparePost(post models.Post, quality models.MediaQuality) models.PreparedPost {
	media := make([]models.MediaFile, 0, len(post.Media))
	for _, m := range post.Media {
		if len(media) == maxImagesPerPost {
			break
		}
		media = append(media, m)
	}

	return models.PreparedPost{
		Source:    post,
		Text:      truncateCaption(post.Caption),
		Media:     media,
		Quality:   quality,
		CreatedAt: post.TakenAt,
	}
}

func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= maxPostLength {
		return caption
	}
	return string(runes[:maxPostLength-1]) + "…"
}

func convertPost(entry exportPost, id string) models.Post {
	post := models.Post{
		ID:      id,
		Caption: fixEncoding(entry.Title),
		Media:   make([]models.MediaFile, 0, len(entry.Media)),
	}
	if entry.CreationTimestamp > 0 {
		post.TakenAt = time.Unix(entry.CreationTimestamp, 0).UTC()
	}

	for _, m := range entry.Media {
		kind := models.MediaPhoto
		if videoExts[strings.ToLower(filepath.Ext(m.URI))] {
			kind = models.MediaVideo
		}
		media := models.MediaFile{URI: m.URI, Kind: kind}
		if m.CreationTimestamp > 0 {
			media.TakenAt = time.Unix(m.CreationTimestamp, 0).UTC()
		}
		post.Media = append(post.Media, media)

		// Single-media posts often carry the caption on the media entry.
		if post.Caption == "" && m.Title != "" {
			post.Caption = fixEncoding(m.Title)
		}
		if post.TakenAt.IsZero() && !media.TakenAt.IsZero() {
			post.TakenAt = media.TakenAt
		}
	}
	return post
}

// fixEncoding repairs Instagram's mojibake: exports serialize UTF-8 byte
// sequences as individual Latin-1 code points.
func fixEncoding(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		b = append(b, byte(r))
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return s
}

// collectPostFiles gathers every posts_*.json payload across the given paths,
// descending into .zip archives and directories.
func collectPostFiles(ctx context.Context, paths []string) ([]postFile, error) {
	var files []postFile
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrExportNotFound, path)
		}

		switch {
		case info.IsDir():
			found, err := postFilesFromDir(path)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		case strings.EqualFold(filepath.Ext(path), ".zip"):
			found, err := postFilesFromZip(path)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		case isPostFile(filepath.Base(path)):
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			files = append(files, postFile{name: filepath.Base(path), data: data})
		default:
			return nil, fmt.Errorf("%w: %s is not a zip, directory, or posts JSON", shared.ErrInvalidExport, path)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

func postFilesFromDir(root string) ([]postFile, error) {
	var files []postFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPostFile(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, postFile{name: d.Name(), data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk export directory: %w", err)
	}
	return files, nil
}

func postFilesFromZip(path string) ([]postFile, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidExport, path, err)
	}
	defer reader.Close()

	var files []postFile
	for _, entry := range reader.File {
		if !isPostFile(filepath.Base(entry.Name)) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in archive: %w", entry.Name, err)
		}
		files = append(files, postFile{name: filepath.Base(entry.Name), data: data})
	}
	return files, nil
}

func isPostFile(name string) bool {
	return strings.HasPrefix(name, "posts_") && strings.HasSuffix(name, ".json")
}
