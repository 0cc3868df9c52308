package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aura-growth/config"
	"aura-growth/utils"

	"go.uber.org/zap"
)

// FallbackReply is returned whenever the text generator cannot produce output.
const FallbackReply = "I'm having trouble connecting right now. Keep pushing forward on your journey!"

const mentorSystemPrompt = "You are an AI mentor in an Aura Growth life improvement game. Respond in character as requested, being encouraging but realistic. Keep responses concise and engaging."

// TextGenerator produces free text for a prompt. Implementations never fail;
// they degrade to a fallback string instead.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) string
}

// ChatCompletionClient talks to an OpenAI-compatible /chat/completions endpoint.
type ChatCompletionClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
	Log     *zap.Logger
}

func NewChatCompletionClient(cfg config.AIConfig, log *zap.Logger) *ChatCompletionClient {
	return &ChatCompletionClient{
		APIKey:  cfg.APIKey,
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Model:   cfg.Model,
		Client:  utils.NewHTTPClient(cfg.Timeout),
		Log:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *ChatCompletionClient) Generate(ctx context.Context, prompt string, maxTokens int) string {
	start := time.Now()
	out, err := c.complete(ctx, prompt, maxTokens)
	if err != nil {
		c.Log.Warn("ai generation failed, using fallback",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return FallbackReply
	}
	c.Log.Debug("ai generation completed",
		zap.Int("response_len", len(out)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

func (c *ChatCompletionClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: mentorSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, utils.Prefix(string(raw), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return content, nil
}
