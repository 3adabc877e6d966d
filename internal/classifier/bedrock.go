package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/miradorstack/mirador-slo/internal/config"
)

const bedrockAnthropicVersion = "bedrock-2023-05-31"

// modelInvoker is the slice of the Bedrock runtime client the classifier uses.
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type bedrockModel struct {
	invoker     modelInvoker
	model       string
	temperature float32
	maxTokens   int32
}

func newBedrockModel(ctx context.Context, cfg config.ClassifierConfig) (*bedrockModel, error) {
	if cfg.Model == "" {
		return nil, errors.New("bedrock classifier requires a model id")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &bedrockModel{
		invoker:     bedrockruntime.NewFromConfig(awsCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (m *bedrockModel) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        m.maxTokens,
		Temperature:      m.temperature,
		System:           system,
		Messages:         []claudeMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}

	out, err := m.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", err
	}

	var decoded claudeResponse
	if err := json.Unmarshal(out.Body, &decoded); err != nil {
		return "", fmt.Errorf("decode bedrock response: %w", err)
	}
	return decoded.text()
}
