package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/miradorstack/mirador-slo/internal/models"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBedrockClassifier(t *testing.T) {
	invoker := &fakeInvoker{body: `{"content":[{"type":"text","text":"{\"primary_intent\":\"ERROR_BUDGET_STATUS\",\"entities\":{\"time_range\":\"this_week\"}}"}]}`}
	model := &bedrockModel{invoker: invoker, model: "anthropic.claude-test", maxTokens: 300}
	c := newLLMClassifier(nil, "bedrock", model, nil, 0)

	cls, err := c.Classify(context.Background(), "how much budget is left this week?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cls.Primary != models.IntentErrorBudgetStatus || cls.Entities.TimeExpression != "this_week" {
		t.Fatalf("unexpected classification: %+v", cls)
	}

	if aws.ToString(invoker.input.ModelId) != "anthropic.claude-test" {
		t.Fatalf("unexpected model id: %s", aws.ToString(invoker.input.ModelId))
	}
	var sent claudeRequest
	if err := json.Unmarshal(invoker.input.Body, &sent); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if sent.AnthropicVersion != bedrockAnthropicVersion || sent.MaxTokens != 300 || sent.Model != "" {
		t.Fatalf("unexpected request body: %+v", sent)
	}
}

func TestBedrockClassifierInvokeError(t *testing.T) {
	model := &bedrockModel{invoker: &fakeInvoker{err: errors.New("throttled")}, model: "m"}
	c := newLLMClassifier(nil, "bedrock", model, nil, 0)

	_, err := c.Classify(context.Background(), "status?")
	var clsErr *models.ClassificationError
	if !errors.As(err, &clsErr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
}
