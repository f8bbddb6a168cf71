package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/tributa-cloud/tributa/internal/domain/analysis"
)

// normalizerSystemPrompt instructs the model to extract a structured document
// reference from an informal Italian tax question. The model must answer with
// bare JSON so the response parses without post-processing.
const normalizerSystemPrompt = `Sei un assistente che normalizza domande fiscali italiane.
Estrai dal testo il riferimento al documento citato e rispondi SOLO con JSON:
{"type": "circolare|risoluzione|provvedimento|decreto|legge|", "number": "...", "year": 2024, "keywords": ["..."]}
Lascia i campi vuoti quando il testo non li contiene. Nessun altro testo.`

// Normalizer resolves informal document references via an OpenAI-compatible
// chat completion. Callers treat every failure as "no hint".
type Normalizer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// NormalizerConfig holds the chat completion settings for query normalization.
type NormalizerConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    *zap.Logger
}

// NewNormalizer creates an LLM-backed query normalizer.
func NewNormalizer(cfg *NormalizerConfig) *Normalizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Normalizer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    cfg.Logger,
	}
}

// normalizedPayload mirrors the JSON the model is asked to produce.
type normalizedPayload struct {
	Type     string   `json:"type"`
	Number   string   `json:"number"`
	Year     int      `json:"year"`
	Keywords []string `json:"keywords"`
}

// Normalize asks the model for a structured document reference. The
// conversation summary, when present, gives the model context for elliptical
// follow-up questions ("e quella dell'anno prima?").
func (n *Normalizer) Normalize(ctx context.Context, text, convoSummary string) (*analysis.NormalizedReference, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	userContent := text
	if convoSummary != "" {
		userContent = "Contesto della conversazione:\n" + convoSummary + "\n\nDomanda:\n" + text
	}

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       n.model,
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: normalizerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty normalizer response")
	}

	payload, err := parseNormalizerReply(resp.Choices[0].Message.Content)
	if err != nil {
		n.logger.Warn("Unparseable normalizer reply",
			zap.String("model", n.model), zap.Error(err))
		return nil, err
	}

	return &analysis.NormalizedReference{
		Type:     strings.ToLower(strings.TrimSpace(payload.Type)),
		Number:   strings.TrimSpace(payload.Number),
		Year:     payload.Year,
		Keywords: payload.Keywords,
	}, nil
}

// parseNormalizerReply extracts the JSON object from the model reply,
// tolerating markdown code fences and surrounding prose.
func parseNormalizerReply(content string) (*normalizedPayload, error) {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in normalizer reply")
	}

	var payload normalizedPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode normalizer reply: %w", err)
	}
	return &payload, nil
}
