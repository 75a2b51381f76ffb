package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"qualifyr/internal/platform/config"
)

const analysisSystemPrompt = `You are a B2B lead qualification analyst. Given the latest message from a prospect and any known signals, respond with a single JSON object:
{"score": <0-100 integer>, "interest_level": "high"|"medium"|"low"|"none", "ready_for_demo": <bool>, "sentiment": "positive"|"neutral"|"negative", "next_question": "<one short follow-up question>", "company_size": "solo"|"small"|"medium"|"large"|"enterprise", "budget_range": "low"|"medium"|"high"|"enterprise", "authority_level": "low"|"medium"|"high", "timeline": "urgent"|"1-3months"|"3-6months"|"6months+"}
Omit any field you cannot infer. Respond with JSON only.`

// AIStrategy asks a language model to evaluate the message. Best effort:
// any transport or parse failure yields the fallback evaluation, never an
// error, so analysis can run on paths that must not fail.
type AIStrategy struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewAIStrategy(cfg config.AIConfig) *AIStrategy {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &AIStrategy{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
	}
}

func (s *AIStrategy) Name() string { return "ai" }

func (s *AIStrategy) Evaluate(ctx context.Context, in Input) Evaluation {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(in)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		log.Warn().Err(err).Msg("ai analysis unavailable, using fallback evaluation")
		return FallbackEvaluation()
	}
	if len(resp.Choices) == 0 {
		log.Warn().Msg("ai analysis returned no choices, using fallback evaluation")
		return FallbackEvaluation()
	}

	var parsed Evaluation
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		log.Warn().Err(err).Msg("ai analysis returned malformed JSON, using fallback evaluation")
		return FallbackEvaluation()
	}

	parsed.Score = clamp(parsed.Score)
	if parsed.InterestLevel == "" {
		parsed.InterestLevel = "medium"
	}
	if parsed.Sentiment == "" {
		parsed.Sentiment = "neutral"
	}
	if parsed.NextQuestion == "" {
		parsed.NextQuestion = FallbackQuestion
	}
	return parsed
}

func buildUserPrompt(in Input) string {
	prompt := fmt.Sprintf("Latest message from the lead:\n%s", in.Text)
	if !in.Signals.Empty() {
		known, _ := json.Marshal(in.Signals)
		prompt += fmt.Sprintf("\n\nKnown signals: %s", known)
	}
	return prompt
}
