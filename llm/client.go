// Package llm is the single client boundary for the reasoning and
// embedding services. Aggregators and the visual pipeline receive a
// Client; nothing else in the repo talks to the model APIs directly.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/MisbahAN/ChatVid-AI/config"
)

// Client abstracts the external model services. Every method blocks
// until the service responds or the per-call timeout fires; a timeout
// surfaces as an ordinary error for that one call.
type Client interface {
	// Complete sends a text prompt to the chat model and returns the
	// trimmed response text.
	Complete(ctx context.Context, prompt string) (string, error)
	// Describe asks the vision model for a short description of the
	// image stored at framePath.
	Describe(ctx context.Context, framePath string) (string, error)
	// Embed converts text into a fixed-length semantic vector.
	Embed(ctx context.Context, text string) ([]float32, error)
}

const callTimeout = 2 * time.Minute

// OpenAIClient implements Client against any OpenAI-compatible
// endpoint (Gemini's compatibility layer by default).
type OpenAIClient struct {
	cli *openai.Client
	cfg *config.Config
}

// NewClient builds an OpenAIClient from cfg. The API key must already
// be validated; pass a per-request key via NewClientWithKey instead of
// mutating shared configuration.
func NewClient(cfg *config.Config) *OpenAIClient {
	return NewClientWithKey(cfg, cfg.APIKey)
}

// NewClientWithKey builds a client using apiKey in place of the
// configured one. Used by the sections route, which accepts a caller
// supplied key.
func NewClientWithKey(cfg *config.Config, apiKey string) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{cli: openai.NewClientWithConfig(clientConfig), cfg: cfg}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Describe(ctx context.Context, framePath string) (string, error) {
	data, err := os.ReadFile(framePath)
	if err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Describe what is visible in this video frame in one or two sentences. Mention objects, people, text and actions.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("describe frame: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("describe frame returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.cli.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}
