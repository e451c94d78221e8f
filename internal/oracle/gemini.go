package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/teambalancer/teambalancer-api/internal/config"
)

const defaultGeminiModel = "gemini-1.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type GeminiOracle struct {
	client  *genai.Client
	model   contentGenerator
	timeout time.Duration
	logger  *slog.Logger
}

func NewGeminiOracle(ctx context.Context, cfg config.OracleConfig, logger *slog.Logger) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(cfg.Temperature)
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"

	return newGeminiOracle(client, model, cfg.Timeout, logger), nil
}

func newGeminiOracle(client *genai.Client, model contentGenerator, timeout time.Duration, logger *slog.Logger) *GeminiOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiOracle{client: client, model: model, timeout: timeout, logger: logger}
}

func (o *GeminiOracle) Distribute(ctx context.Context, in Input) (Distribution, error) {
	prompt, err := BuildPrompt(in)
	if err != nil {
		return nil, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		o.logger.Error("gemini request failed", "error", err, "duration", time.Since(start))
		return nil, classifyCallError(ctx, err)
	}

	reply := responseText(resp)
	if reply == "" {
		return nil, fmt.Errorf("%w: empty gemini response", ErrMalformedReply)
	}

	dist, err := ParseDistribution(reply)
	if err != nil {
		o.logger.Warn("gemini reply could not be parsed", "error", err, "reply_length", len(reply))
		return nil, err
	}

	o.logger.Info("gemini distribution received", "assignments", len(dist), "duration", time.Since(start))
	return dist, nil
}

func (o *GeminiOracle) Close() error {
	if o.client == nil {
		return nil
	}
	return o.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
