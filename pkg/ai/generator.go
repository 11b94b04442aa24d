package ai

import "context"

// ChatMessage is one generic-role message in a completion request.
// Roles follow provider conventions: "system", "user", "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextGenerator generates text completions. All LLM providers
// (OpenAI-compatible, Ollama) implement this interface.
type TextGenerator interface {
	// GenerateText completes a single user prompt as free text.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateJSON completes a single user prompt and asks the provider
	// to return a JSON object.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateChat completes a multi-turn conversation. The history ends
	// with the newest user message.
	GenerateChat(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error)
}
