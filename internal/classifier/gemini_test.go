package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/miradorstack/mirador-slo/internal/config"
	"github.com/miradorstack/mirador-slo/internal/models"
)

func TestGeminiClassifier(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role": "model",
					"parts": []map[string]any{
						{"text": `{"primary_intent":"SEASONALITY_PATTERN",`},
						{"text": `"entities":{"time_range":"past_4_weeks"}}`},
					},
				},
			}},
		})
	}))
	defer srv.Close()

	cfg := config.ClassifierConfig{Provider: "gemini", Model: "gemini-2.5-flash", APIKey: "key", BaseURL: srv.URL, MaxTokens: 256}
	model, err := newGeminiModel(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new gemini model: %v", err)
	}
	c := newLLMClassifier(nil, "gemini", model, nil, 0)

	cls, err := c.Classify(context.Background(), "is checkout slower on weekends?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cls.Primary != models.IntentSeasonalityPattern || cls.Entities.TimeExpression != "past_4_weeks" {
		t.Fatalf("unexpected classification: %+v", cls)
	}
	if len(paths) != 1 || !strings.HasSuffix(paths[0], "gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected request paths: %v", paths)
	}
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	if _, err := newGeminiModel(context.Background(), config.ClassifierConfig{Model: "gemini-2.5-flash"}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
