package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig parameterizes the remote content model.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64

	// BaseURL overrides the API endpoint, for tests.
	BaseURL string
}

// OpenAIConfigFromEnv reads OPENAI_API_KEY and OPENAI_MODEL. The model
// falls back to a current default when unset; token and temperature
// limits come from the blueprint, not the environment.
func OpenAIConfigFromEnv(maxTokens int, temperature float64) (OpenAIConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return OpenAIConfig{}, fmt.Errorf("missing OPENAI_API_KEY")
	}
	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-5.2"
	}
	return OpenAIConfig{
		APIKey:      apiKey,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

// OpenAIGenerator produces document content from a chat-completion model.
// It is always wrapped in a CachedGenerator so each stable ID is generated
// at most once per prompt version.
type OpenAIGenerator struct {
	cfg    OpenAIConfig
	client *http.Client
}

// NewOpenAIGenerator builds the remote generator.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIBaseURL
	}
	return &OpenAIGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

const openAISystemPrompt = "You write synthetic corporate documents for test tenants. " +
	"Respond with a single JSON object: {\"title\": string, \"summary\": string, " +
	"\"sections\": [{\"heading\": string, \"paragraphs\": [string], \"bullets\": [string]}], " +
	"\"metadata\": [string]}. No markdown, no extra keys."

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*DocContent, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
		MaxTokens:      g.cfg.MaxTokens,
		Temperature:    g.cfg.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("generation API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("generation API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("generation response has no choices")
	}

	var doc DocContent
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &doc); err != nil {
		return nil, fmt.Errorf("parse generated document: %w", err)
	}
	if doc.Title == "" {
		doc.Title = req.TitleHint
	}
	doc.Metadata = append(doc.Metadata, "Ref: "+req.StableID)
	return &doc, nil
}
