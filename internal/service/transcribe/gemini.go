package transcribe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"audiorelay/internal/config"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"

	geminiPrompt = "Transcribe this audio verbatim. Output only the transcript text, without timestamps, speaker labels or commentary."
)

type geminiTranscriber struct {
	provCfg config.ProviderConfig
	model   string

	mu        sync.Mutex
	chatModel model.BaseChatModel
}

// NewGemini returns a transcriber that sends the audio inline to a Gemini model.
// The model is created lazily so a missing key only fails the request that needs it.
func NewGemini(provCfg config.ProviderConfig) Transcriber {
	modelName := provCfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &geminiTranscriber{provCfg: provCfg, model: modelName}
}

func (g *geminiTranscriber) getModel(ctx context.Context) (model.BaseChatModel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chatModel != nil {
		return g.chatModel, nil
	}
	if g.provCfg.APIKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  g.provCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.provCfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.provCfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  g.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini model: %w", err)
	}
	g.chatModel = chatModel
	return chatModel, nil
}

func (g *geminiTranscriber) Transcribe(ctx context.Context, req Request) (string, error) {
	chatModel, err := g.getModel(ctx)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	message := &schema.Message{
		Role: schema.User,
		UserInputMultiContent: []schema.MessageInputPart{
			{Type: schema.ChatMessagePartTypeText, Text: geminiPrompt},
			{
				Type: schema.ChatMessagePartTypeAudioURL,
				Audio: &schema.MessageInputAudio{
					MessagePartCommon: schema.MessagePartCommon{
						Base64Data: &encoded,
						MIMEType:   mimeType,
					},
				},
			},
		},
	}
	resp, err := chatModel.Generate(ctx, []*schema.Message{message})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
