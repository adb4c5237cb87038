// Package library implements the document shelf: PDF blobs in object
// storage joined with a relational metadata overlay, plus the AI driven
// summary and translation flows.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docshelf/internal/blobstore"
	"docshelf/internal/models"
	"docshelf/internal/pdftext"
	"docshelf/internal/redis"
	"docshelf/internal/storage"

	"golang.org/x/sync/singleflight"
)

const (
	uploadPrefix = "uploads/"

	// DownloadTTL is the lifetime of signed download links granted by the
	// object store. Clients may show a longer advisory countdown; the link
	// itself dies after this.
	DownloadTTL = 60 * time.Second

	// Cached links are kept for half their grant so a cache hit always
	// hands out a URL with at least half its lifetime left.
	urlCacheTTL = DownloadTTL / 2
)

// TextAI produces summaries and translations.
type TextAI interface {
	Summarize(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error)
}

// URLCache remembers signed download URLs between requests. GetURL
// reports an absent entry with redis.ErrCacheMiss; any other error is a
// cache failure.
type URLCache interface {
	GetURL(ctx context.Context, path string) (string, error)
	SetURL(ctx context.Context, path, url string, ttl time.Duration) error
	InvalidateURL(ctx context.Context, path string) error
}

// Service coordinates the object store, the metadata table and the AI
// client. The blob listing is the source of truth for which documents
// exist; metadata rows are an overlay keyed by storage path.
type Service struct {
	blobs   blobstore.Store
	meta    *storage.MetadataStore
	ai      TextAI
	cache   URLCache
	extract func(data []byte) (string, error)
	httpc   *http.Client
	group   singleflight.Group
	now     func() time.Time
}

// Option adjusts a Service.
type Option func(*Service)

// WithURLCache plugs in a cache for signed download URLs.
func WithURLCache(cache URLCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithExtractor replaces the PDF text extractor.
func WithExtractor(fn func(data []byte) (string, error)) Option {
	return func(s *Service) { s.extract = fn }
}

// WithHTTPClient replaces the client used to fetch blob content.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpc = c }
}

// WithClock replaces the time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// NewService wires the service. A nil ai is allowed; summarize and
// translate then fail with ErrMissingConfig until a token is configured.
func NewService(blobs blobstore.Store, meta *storage.MetadataStore, ai TextAI, opts ...Option) *Service {
	s := &Service{
		blobs:   blobs,
		meta:    meta,
		ai:      ai,
		extract: pdftext.Extract,
		httpc:   http.DefaultClient,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadInput carries one multipart upload.
type UploadInput struct {
	Filename     string
	ContentType  string
	Data         []byte
	DocumentName string
	Tags         models.TagInput
}

// Upload stores the PDF under uploads/ and creates its metadata row. The
// storage path is derived from the chosen display name; an object already
// at that path fails the upload, nothing is overwritten.
func (s *Service) Upload(ctx context.Context, in UploadInput) (string, int64, error) {
	name := strings.TrimSpace(in.DocumentName)
	if name == "" {
		name = in.Filename
	}
	normalized := models.NormalizeFilename(name)
	if normalized == "" {
		return "", 0, fmt.Errorf("%w: document name %q has no usable characters", ErrInvalidInput, name)
	}
	path := uploadPrefix + normalized

	if err := s.blobs.Put(ctx, path, in.Data, in.ContentType); err != nil {
		return "", 0, fmt.Errorf("store object: %w", err)
	}

	now := s.now().UTC()
	id, err := s.meta.Insert(ctx, &models.Metadata{
		DocumentName: name,
		StoragePath:  path,
		Tags:         in.Tags.Tags(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// The object is already stored. It will surface in the listing
		// under its raw filename until a row exists.
		return "", 0, fmt.Errorf("store metadata: %w", err)
	}
	return path, id, nil
}

// List merges the blob listing with the metadata overlay, newest object
// first. Objects without a row fall back to their raw filename and an
// empty tag set; rows without an object do not appear at all.
func (s *Service) List(ctx context.Context) ([]models.Document, error) {
	objects, err := s.blobs.List(ctx, uploadPrefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	paths := make([]string, len(objects))
	for i, obj := range objects {
		paths[i] = obj.Path
	}
	rows, err := s.meta.SelectByPaths(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	docs := make([]models.Document, 0, len(objects))
	for _, obj := range objects {
		doc := models.Document{
			Path:      obj.Path,
			Name:      strings.TrimPrefix(obj.Path, uploadPrefix),
			Tags:      []string{},
			Size:      obj.Size,
			CreatedAt: obj.CreatedAt,
			UpdatedAt: obj.UpdatedAt,
		}
		if row, ok := rows[obj.Path]; ok {
			doc.Name = row.DocumentName
			doc.Tags = row.Tags
			doc.Summary = row.Summary
			doc.SummaryUpdatedAt = row.SummaryUpdatedAt
			doc.NoteTaking = row.NoteTaking
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DownloadURL returns a signed link for the object. Concurrent requests
// for the same path share one signing round trip, and links are served
// from the cache while they are still fresh.
func (s *Service) DownloadURL(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	v, err, _ := s.group.Do("download:"+path, func() (interface{}, error) {
		if s.cache != nil {
			url, err := s.cache.GetURL(ctx, path)
			if err == nil && url != "" {
				return url, nil
			}
			if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
				slog.Warn("read cached url", "path", path, "error", err)
			}
		}
		url, err := s.blobs.SignedURL(ctx, path, DownloadTTL)
		if err != nil {
			return "", fmt.Errorf("sign download url: %w", err)
		}
		if s.cache != nil {
			if err := s.cache.SetURL(ctx, path, url, urlCacheTTL); err != nil {
				slog.Warn("cache signed url", "path", path, "error", err)
			}
		}
		return url, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Summarize fetches the PDF, extracts its text and stores the AI summary
// on the metadata row, creating the row if the document has none yet.
// Concurrent requests for the same path share one run.
func (s *Service) Summarize(ctx context.Context, path string) (string, error) {
	if s.ai == nil {
		return "", fmt.Errorf("%w: ai provider token not configured", ErrMissingConfig)
	}
	if path == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	v, err, _ := s.group.Do("summarize:"+path, func() (interface{}, error) {
		return s.summarizeOnce(ctx, path)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Service) summarizeOnce(ctx context.Context, path string) (string, error) {
	url, err := s.blobs.SignedURL(ctx, path, DownloadTTL)
	if err != nil {
		return "", fmt.Errorf("sign download url: %w", err)
	}
	data, err := s.fetch(ctx, url)
	if err != nil {
		return "", err
	}
	text, err := s.extract(data)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", path, err)
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return "", fmt.Errorf("%w: no extractable text in %s", ErrUnprocessable, path)
	}

	summary, err := s.ai.Summarize(ctx, collapsed)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", path, err)
	}

	now := s.now().UTC()
	affected, err := s.meta.UpdateSummary(ctx, path, summary, now)
	if err != nil {
		return "", fmt.Errorf("store summary: %w", err)
	}
	if affected == 0 {
		_, err := s.meta.Insert(ctx, &models.Metadata{
			DocumentName:     strings.TrimPrefix(path, uploadPrefix),
			StoragePath:      path,
			Tags:             []string{},
			Summary:          &summary,
			SummaryUpdatedAt: &now,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return "", fmt.Errorf("store summary: %w", err)
		}
	}
	return summary, nil
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download document: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// Edit renames a document and, when tags were sent, replaces its tag set.
// Only existing rows are touched; editing a path without a row changes
// nothing and is not an error.
func (s *Service) Edit(ctx context.Context, path, documentName string, tags models.TagInput) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(documentName)
	if name == "" {
		return fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}
	var err error
	if tags.Present() {
		_, err = s.meta.UpdateDocument(ctx, path, name, tags.Tags())
	} else {
		_, err = s.meta.UpdateName(ctx, path, name)
	}
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

// UpdateNote stores the freeform note for a document. A nil note clears
// it. Like Edit, a path without a row changes nothing.
func (s *Service) UpdateNote(ctx context.Context, path string, note *string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	if _, err := s.meta.UpdateNote(ctx, path, note); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// Delete removes the object first and the metadata row second, with no
// rollback. When the object is already gone the row is still removed. A
// storage failure leaves the row in place for the orphan sweeper.
func (s *Service) Delete(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidInput)
	}
	if err := s.blobs.Remove(ctx, path); err != nil && !errors.Is(err, blobstore.ErrObjectNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	if err := s.meta.DeleteByPath(ctx, path); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateURL(ctx, path); err != nil {
			slog.Warn("invalidate cached url", "path", path, "error", err)
		}
	}
	return nil
}

// Translate renders text into the target languages in one AI call. The
// result is all or nothing; a malformed model response fails the request.
func (s *Service) Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("%w: ai provider token not configured", ErrMissingConfig)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if len(targetLanguages) == 0 {
		return nil, fmt.Errorf("%w: at least one target language is required", ErrInvalidInput)
	}
	translations, err := s.ai.Translate(ctx, text, targetLanguages)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return translations, nil
}
