package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"audiorelay/internal/config"
)

const DefaultOpenAIModel = openai.Whisper1

type openAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a Whisper-backed transcriber requesting plain text output.
func NewOpenAI(provCfg config.ProviderConfig) Transcriber {
	clientCfg := openai.DefaultConfig(provCfg.APIKey)
	if provCfg.BaseURL != "" {
		clientCfg.BaseURL = provCfg.BaseURL
	}
	model := provCfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openAITranscriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (o *openAITranscriber) Transcribe(ctx context.Context, req Request) (string, error) {
	// The upload filename (and so its extension) is what the API uses to pick a codec.
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: req.Path,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", upstreamError(err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return fmt.Errorf("openai http %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err
}
