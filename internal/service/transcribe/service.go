package transcribe

import (
	"context"
	"fmt"
	"log/slog"

	"audiorelay/internal/config"
)

// Request describes one normalized audio file to transcribe.
type Request struct {
	Path     string
	MimeType string
}

// Transcriber turns an audio file into plain text using a remote service.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// RemoteServiceError wraps any failure reported by the transcription backend.
// Its message is the upstream message, unclassified.
type RemoteServiceError struct {
	Err error
}

func (e *RemoteServiceError) Error() string {
	if e == nil || e.Err == nil {
		return "transcription failed"
	}
	return e.Err.Error()
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// New builds the transcriber for the configured provider. A missing API key is
// not an error here; the backend reports it on first use.
func New(cfg *config.Config, logger *slog.Logger) (Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	provCfg := cfg.ActiveProvider()
	if provCfg.APIKey == "" {
		logger.Warn("transcription api key not configured; requests will fail", "provider", cfg.Provider)
	}
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(provCfg), nil
	case "gemini":
		return NewGemini(provCfg), nil
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
}
