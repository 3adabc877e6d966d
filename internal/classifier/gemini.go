package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/miradorstack/mirador-slo/internal/config"
)

type geminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func newGeminiModel(ctx context.Context, cfg config.ClassifierConfig) (*geminiModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini classifier requires an API key")
	}
	clientCfg := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiModel{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (m *geminiModel) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(m.temperature),
		MaxOutputTokens:   m.maxTokens,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
