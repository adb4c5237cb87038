package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"docshelf/internal/models"
	"docshelf/internal/service/library"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Handler wires HTTP routes to the library service.
type Handler struct {
	library *library.Service
}

// NewHandler constructs a Handler instance.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{library: svc}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)
	router.GET("/files", h.listFiles)
	router.POST("/files", h.uploadFile)
	router.PATCH("/files", h.patchFile)
	router.DELETE("/files", h.deleteFile)
	router.POST("/summarize", h.summarizeFile)
	router.POST("/translate", h.translateText)
}

// errorStatus maps service errors onto the three response classes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrUnprocessable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"ok": false, "error": err.Error()})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listFiles serves both the document listing and, with ?download=<path>,
// a signed download link.
func (h *Handler) listFiles(c *gin.Context) {
	if path := c.Query("download"); path != "" {
		url, err := h.library.DownloadURL(c.Request.Context(), path)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "url": url})
		return
	}
	docs, err := h.library.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": docs})
}

func (h *Handler) uploadFile(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid multipart form"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "open file failed"})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "read file failed"})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	path, id, err := h.library.Upload(c.Request.Context(), library.UploadInput{
		Filename:     filepath.Base(file.Filename),
		ContentType:  contentType,
		Data:         data,
		DocumentName: c.PostForm("documentName"),
		Tags:         models.TagsFromString(c.PostForm("tags")),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": path, "documentId": id})
}

type patchRequest struct {
	Path         string          `json:"path"`
	DocumentName string          `json:"documentName"`
	Tag          models.TagInput `json:"tag"`
	NoteTaking   json.RawMessage `json:"note_taking"`
}

// patchFile dispatches on the request shape: a present note_taking field,
// null included, updates the note; otherwise the request is a rename with
// an optional tag replacement.
func (h *Handler) patchFile(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	if req.NoteTaking != nil {
		var note *string
		if err := json.Unmarshal(req.NoteTaking, &note); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "note_taking must be a string or null"})
			return
		}
		if err := h.library.UpdateNote(c.Request.Context(), req.Path, note); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if err := h.library.Edit(c.Request.Context(), req.Path, req.DocumentName, req.Tag); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type deleteRequest struct {
	Path string `json:"path"`
}

func (h *Handler) deleteFile(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	if err := h.library.Delete(c.Request.Context(), req.Path); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type summarizeRequest struct {
	Path string `json:"path"`
}

func (h *Handler) summarizeFile(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	summary, err := h.library.Summarize(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": summary})
}

type translateRequest struct {
	Text            string   `json:"text"`
	TargetLanguages []string `json:"targetLanguages"`
}

func (h *Handler) translateText(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}
	translations, err := h.library.Translate(c.Request.Context(), req.Text, req.TargetLanguages)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "translations": translations})
}
