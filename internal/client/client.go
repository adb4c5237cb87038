// Package client is a typed Go client for the docshelf HTTP API. All
// responses share the uniform envelope: successes carry ok=true plus the
// operation payload, failures carry ok=false and an error string which is
// surfaced here as *Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"docshelf/internal/models"
)

// Client talks to one docshelf server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. The default client has none;
// summarize and translate wait on a language model and can legitimately
// run long, so cancellation is left to the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Message    string
	Op         string // operation that failed (e.g. "Summarize")
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

// IsInvalid reports whether err is a 400 response.
func IsInvalid(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}

// IsUnprocessable reports whether err is a 422 response.
func IsUnprocessable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity
}

// wrapError stamps the operation name onto API errors and prefixes the rest.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		apiErr.Op = op
		return apiErr
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// do sends the request and decodes the JSON response into result. Non-2xx
// responses become *Error with the envelope's error string, or the raw
// body when the server did not answer in JSON.
func (c *Client) do(req *http.Request, result interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
			message = envelope.Error
		}
		return &Error{StatusCode: resp.StatusCode, Message: message}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, result interface{}) error {
	fullURL, err := c.endpoint(path, query)
	if err != nil {
		return err
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// List retrieves all documents, newest first.
func (c *Client) List(ctx context.Context) ([]models.Document, error) {
	var result struct {
		OK    bool              `json:"ok"`
		Files []models.Document `json:"files"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/files", nil, nil, &result); err != nil {
		return nil, wrapError(err, "List")
	}
	return result.Files, nil
}

// DownloadURL fetches a short-lived signed link for one document. The
// server grants roughly a minute of validity regardless of how long the
// caller intends to keep the link around.
func (c *Client) DownloadURL(ctx context.Context, path string) (string, error) {
	query := url.Values{}
	query.Set("download", path)
	var result struct {
		OK  bool   `json:"ok"`
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/files", query, nil, &result); err != nil {
		return "", wrapError(err, "DownloadURL")
	}
	return result.URL, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadRequest describes one document upload. DocumentName and Tags are
// optional; the filename is the fallback display name.
type UploadRequest struct {
	Filename     string
	DocumentName string
	Tags         []string
	ContentType  string
	Content      io.Reader
}

// UploadResult is the server's record of a stored document.
type UploadResult struct {
	Path       string
	DocumentID int64
}

// Upload stores a new document. The server derives the storage path from
// the document name and refuses to overwrite an existing one.
func (c *Client) Upload(ctx context.Context, upload UploadRequest) (*UploadResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if upload.DocumentName != "" {
		if err := form.WriteField("documentName", upload.DocumentName); err != nil {
			return nil, wrapError(err, "Upload")
		}
	}
	if len(upload.Tags) > 0 {
		if err := form.WriteField("tags", strings.Join(upload.Tags, ",")); err != nil {
			return nil, wrapError(err, "Upload")
		}
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(upload.Filename)))
	partHeader.Set("Content-Type", contentType)
	part, err := form.CreatePart(partHeader)
	if err != nil {
		return nil, wrapError(err, "Upload")
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, wrapError(fmt.Errorf("copy file content: %w", err), "Upload")
	}
	if err := form.Close(); err != nil {
		return nil, wrapError(err, "Upload")
	}

	fullURL, err := c.endpoint("/files", nil)
	if err != nil {
		return nil, wrapError(err, "Upload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, &buf)
	if err != nil {
		return nil, wrapError(fmt.Errorf("create request: %w", err), "Upload")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var result struct {
		OK         bool   `json:"ok"`
		Path       string `json:"path"`
		DocumentID int64  `json:"documentId"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, wrapError(err, "Upload")
	}
	return &UploadResult{Path: result.Path, DocumentID: result.DocumentID}, nil
}

// Rename updates a document's display name without touching its tags.
func (c *Client) Rename(ctx context.Context, path, name string) error {
	payload := map[string]interface{}{"path": path, "documentName": name}
	return wrapError(c.doJSON(ctx, http.MethodPatch, "/files", nil, payload, nil), "Rename")
}

// Retag updates the display name and replaces the full tag set in one call.
func (c *Client) Retag(ctx context.Context, path, name string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	payload := map[string]interface{}{"path": path, "documentName": name, "tag": tags}
	return wrapError(c.doJSON(ctx, http.MethodPatch, "/files", nil, payload, nil), "Retag")
}

// SetNote stores free-form note text on a document.
func (c *Client) SetNote(ctx context.Context, path, note string) error {
	payload := map[string]interface{}{"path": path, "note_taking": note}
	return wrapError(c.doJSON(ctx, http.MethodPatch, "/files", nil, payload, nil), "SetNote")
}

// ClearNote removes a document's note by sending an explicit JSON null.
func (c *Client) ClearNote(ctx context.Context, path string) error {
	payload := map[string]interface{}{"path": path, "note_taking": nil}
	return wrapError(c.doJSON(ctx, http.MethodPatch, "/files", nil, payload, nil), "ClearNote")
}

// Delete removes the stored object and its metadata row.
func (c *Client) Delete(ctx context.Context, path string) error {
	payload := map[string]string{"path": path}
	return wrapError(c.doJSON(ctx, http.MethodDelete, "/files", nil, payload, nil), "Delete")
}

// Summarize asks the server to produce and persist an AI summary of the
// document at path, returning the summary text.
func (c *Client) Summarize(ctx context.Context, path string) (string, error) {
	payload := map[string]string{"path": path}
	var result struct {
		OK      bool   `json:"ok"`
		Summary string `json:"summary"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/summarize", nil, payload, &result); err != nil {
		return "", wrapError(err, "Summarize")
	}
	return result.Summary, nil
}

// Translate renders text into each target language, keyed by language name.
func (c *Client) Translate(ctx context.Context, text string, languages []string) (map[string]string, error) {
	payload := map[string]interface{}{"text": text, "targetLanguages": languages}
	var result struct {
		OK           bool              `json:"ok"`
		Translations map[string]string `json:"translations"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/translate", nil, payload, &result); err != nil {
		return nil, wrapError(err, "Translate")
	}
	return result.Translations, nil
}
