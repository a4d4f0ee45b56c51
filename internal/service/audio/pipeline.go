package audio

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"audiorelay/internal/models"
	"audiorelay/internal/service/transcribe"
	"audiorelay/internal/storage"
)

// Pipeline runs a stored upload through normalization and transcription and
// guarantees the temp file is gone when Process returns.
type Pipeline struct {
	store       *storage.TempStore
	transcriber transcribe.Transcriber
	timeout     time.Duration
	rename      func(oldpath, newpath string) error
	log         *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRename replaces os.Rename for the normalization step.
func WithRename(fn func(oldpath, newpath string) error) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.rename = fn
		}
	}
}

// NewPipeline wires the pipeline. A zero timeout leaves the remote call unbounded.
func NewPipeline(store *storage.TempStore, transcriber transcribe.Transcriber, timeout time.Duration, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		store:       store,
		transcriber: transcriber,
		timeout:     timeout,
		rename:      os.Rename,
		log:         logger.With("component", "audio.Pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store exposes the temp store uploads are written into.
func (p *Pipeline) Store() *storage.TempStore {
	return p.store
}

// Process normalizes and transcribes upload. The upload file is always removed
// before returning: the normalized path on success, every candidate path on failure.
func (p *Pipeline) Process(ctx context.Context, upload *models.Upload) (result *models.Transcript, err error) {
	if upload == nil || upload.Path == "" {
		return nil, errors.New("upload path required")
	}
	current := upload.Path
	defer func() {
		if err != nil {
			p.Discard(upload.Path)
			return
		}
		p.remove(current)
	}()

	normalized, err := normalize(upload.Path, upload.MimeType, p.rename)
	if err != nil {
		return nil, err
	}
	current = normalized

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	started := time.Now()
	text, err := p.transcriber.Transcribe(ctx, transcribe.Request{
		Path:     normalized,
		MimeType: upload.MimeType,
	})
	if err != nil {
		return nil, &transcribe.RemoteServiceError{Err: err}
	}
	p.log.Info("transcription finished",
		"original_name", upload.OriginalName,
		"mime_type", upload.MimeType,
		"size", upload.Size,
		"elapsed", time.Since(started),
	)
	return &models.Transcript{
		Transcription: text,
		OriginalName:  upload.OriginalName,
		Success:       true,
	}, nil
}

// Discard removes path and every renamed variant of it.
func (p *Pipeline) Discard(path string) {
	for _, candidate := range CandidatePaths(path) {
		p.remove(candidate)
	}
}

func (p *Pipeline) remove(path string) {
	if err := p.store.Remove(path); err != nil {
		p.log.Warn("remove temp file failed", "path", path, "error", err)
	}
}
