package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/veristat/veristat/internal/model"
)

const systemPrompt = `You are a scoring function inside a claim-verification system.
You never explain, never refuse, and never assert truth in prose.
Respond with a single JSON object and nothing else:
{"score": <0..1, 1 = claim well supported, 0 = claim contradicted>, "confidence": <0..1, how sure you are>}`

// OpenAIScorer implements Scorer on the OpenAI chat completions API.
type OpenAIScorer struct {
	client *openai.Client
	cfg    model.ModelConfig
}

// NewOpenAIScorer creates an OpenAI-backed scorer.
func NewOpenAIScorer(cfg model.ModelConfig) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIScorer{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the scorer name.
func (s *OpenAIScorer) Name() string { return "openai" }

// ScoreClaim asks the model for a score/confidence pair. Output that is not
// the expected JSON shape is an error; the caller records it as a verifier
// error rather than guessing.
func (s *OpenAIScorer) ScoreClaim(ctx context.Context, instruction, claimText string) (float64, float64, error) {
	m := s.cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}
	maxTokens := s.cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 256
	}
	timeout := s.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: instruction + "\n\nClaim: " + claimText},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, 0, fmt.Errorf("chat completion returned no choices")
	}

	return parseScore(resp.Choices[0].Message.Content)
}

// parseScore extracts the score/confidence JSON from model output,
// tolerating surrounding code fences.
func parseScore(content string) (float64, float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var out struct {
		Score      float64 `json:"score"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return 0, 0, fmt.Errorf("malformed scorer output %q: %w", content, err)
	}
	if out.Score < 0 || out.Score > 1 || out.Confidence < 0 || out.Confidence > 1 {
		return 0, 0, fmt.Errorf("scorer output out of range: score=%v confidence=%v", out.Score, out.Confidence)
	}

	return out.Score, out.Confidence, nil
}
