package ai

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/ai-super-hub/hub-api/pkg/config"
)

// Message is one conversation turn sent to the model. Role is "user" or
// "model", matching the Gemini REST contract.
type Message struct {
	Role    string
	Content string
}

// GeminiClient wraps the Gemini generateContent REST API. The hub treats it
// as an opaque text-completion capability.
type GeminiClient struct {
	http  *resty.Client
	key   string
	model string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiClient constructs a client from configuration.
func NewGeminiClient(cfg config.AIConfig) *GeminiClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &GeminiClient{http: client, key: cfg.APIKey, model: cfg.Model}
}

// Generate sends the conversation and returns the model's reply text.
func (c *GeminiClient) Generate(ctx context.Context, conversation []Message) (string, error) {
	if c.key == "" {
		return "", fmt.Errorf("gemini api key not configured")
	}

	payload := generateRequest{Contents: make([]geminiContent, 0, len(conversation))}
	for _, msg := range conversation {
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  msg.Role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	var result generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.key).
		SetBody(payload).
		SetResult(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("gemini error %d: %s", result.Error.Code, result.Error.Message)
		}
		return "", fmt.Errorf("gemini error: status %d", resp.StatusCode())
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
