package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"audiorelay/internal/models"
	"audiorelay/internal/service/audio"
	"audiorelay/internal/service/transcribe"
)

const (
	audioFormField = "audio"
	// room for multipart boundaries and headers on top of the file itself
	multipartOverhead = 1 << 20
)

// Handler wires HTTP routes to the transcription pipeline.
type Handler struct {
	pipeline  *audio.Pipeline
	publicDir string
	log       *slog.Logger
}

// NewHandler constructs a Handler instance. An empty publicDir disables static serving.
func NewHandler(pipeline *audio.Pipeline, publicDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline:  pipeline,
		publicDir: publicDir,
		log:       logger.With("component", "api.Handler"),
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger())
	router.GET("/health", h.health)
	router.POST("/upload-audio", h.uploadAudio)
	if h.publicDir != "" {
		router.NoRoute(h.serveStatic())
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Server is running"})
}

func (h *Handler) uploadAudio(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, audio.MaxUploadBytes+multipartOverhead)
	file, err := c.FormFile(audioFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}
	mimeType := file.Header.Get("Content-Type")
	if err := audio.ValidateUpload(mimeType, file.Size); err != nil {
		h.writeError(c, err)
		return
	}

	upload := &models.Upload{
		Path:         h.pipeline.Store().NewPath(),
		MimeType:     mimeType,
		OriginalName: file.Filename,
		Size:         file.Size,
	}
	if err := c.SaveUploadedFile(file, upload.Path); err != nil {
		h.pipeline.Discard(upload.Path)
		h.writeError(c, &audio.IOError{Op: "save", Path: upload.Path, Err: err})
		return
	}

	result, err := h.pipeline.Process(c.Request.Context(), upload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		vErr      *audio.ValidationError
		ioErr     *audio.IOError
		remoteErr *transcribe.RemoteServiceError
	)
	switch {
	case errors.As(err, &vErr):
		status := http.StatusBadRequest
		if vErr.TooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": vErr.Error()})
		return
	case errors.As(err, &ioErr):
		h.log.Error("upload file handling failed", "op", ioErr.Op, "path", ioErr.Path, "error", ioErr.Err)
	case errors.As(err, &remoteErr):
		h.log.Error("transcription failed", "error", remoteErr.Err)
	default:
		h.log.Error("upload processing failed", "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
