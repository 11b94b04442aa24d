package ai

import (
	"context"
	"fmt"
	"strings"
)

// OllamaGenerator wraps OllamaClient with a fixed model for text generation
// using the Ollama /api/chat endpoint.
type OllamaGenerator struct {
	client *OllamaClient
	model  string
}

// NewOllamaGenerator builds an Ollama-based TextGenerator.
func NewOllamaGenerator(client *OllamaClient, model string) *OllamaGenerator {
	return &OllamaGenerator{client: client, model: model}
}

// GenerateText implements TextGenerator using Ollama /api/chat.
func (g *OllamaGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.chat(ctx, singleTurn(systemPrompt, userPrompt), "")
}

// GenerateJSON asks Ollama for a JSON-formatted response.
func (g *OllamaGenerator) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.chat(ctx, singleTurn(systemPrompt, userPrompt), "json")
}

// GenerateChat completes a multi-turn conversation.
func (g *OllamaGenerator) GenerateChat(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error) {
	messages := make([]ollamaChatMessage, 0, len(history)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range history {
		messages = append(messages, ollamaChatMessage{Role: msg.Role, Content: msg.Content})
	}
	return g.chat(ctx, messages, "")
}

func (g *OllamaGenerator) chat(ctx context.Context, messages []ollamaChatMessage, format string) (string, error) {
	model := strings.TrimSpace(g.model)
	if model == "" {
		return "", fmt.Errorf("ollama generation model required")
	}
	reqBody := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Format:   format,
	}
	var resp ollamaChatResponse
	if _, err := g.client.doJSON(ctx, "/api/chat", reqBody, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return resp.Message.Content, nil
}

func singleTurn(systemPrompt, userPrompt string) []ollamaChatMessage {
	messages := make([]ollamaChatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: userPrompt})
	return messages
}

// Ollama /api/chat request/response types.

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}
