package app

import (
	"context"
	"fmt"
	"strings"

	"customerpersona/internal/util"
	"customerpersona/pkg/ai"
	"customerpersona/pkg/domain"
)

// ChatRequest is one turn of a persona conversation. The client holds
// conversation state and replays the transcript on every turn.
type ChatRequest struct {
	Message        domain.Message
	Persona        domain.Persona
	CompanyName    string
	MessageHistory []domain.Message
}

func (req ChatRequest) validate() error {
	if strings.TrimSpace(req.Message.Content) == "" {
		return fmt.Errorf("%w: message content required", ErrValidation)
	}
	if strings.TrimSpace(req.Persona.ID) == "" {
		return fmt.Errorf("%w: persona id required", ErrValidation)
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return fmt.Errorf("%w: company name required", ErrValidation)
	}
	return nil
}

// Respond records the user turn, produces the persona's reply, records
// it, and returns the reply text. Provider failures fall back to a
// canned reply and are never surfaced.
func (a *App) Respond(ctx context.Context, req ChatRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	if _, err := a.store.AppendChatMessage(domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   req.Message.Content,
		PersonaID: req.Persona.ID,
	}); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}

	reply := a.generateReply(ctx, req)

	if _, err := a.store.AppendChatMessage(domain.ChatMessage{
		Role:      domain.RolePersona,
		Content:   reply,
		PersonaID: req.Persona.ID,
	}); err != nil {
		return "", fmt.Errorf("save persona message: %w", err)
	}
	return reply, nil
}

// RespondWithContext is Respond with extra steering text applied to
// this turn only. The context is never persisted with the persona.
func (a *App) RespondWithContext(ctx context.Context, req ChatRequest, additionalContext string) (string, error) {
	req.Persona.TemporaryContext = strings.TrimSpace(additionalContext)
	return a.Respond(ctx, req)
}

// ListHistory returns a persona's stored transcript in chronological
// order.
func (a *App) ListHistory(personaID string, limit int) ([]domain.ChatMessage, error) {
	personaID = strings.TrimSpace(personaID)
	if personaID == "" {
		return nil, fmt.Errorf("%w: persona id required", ErrValidation)
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	items, err := a.store.ListChatMessages(personaID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return items, nil
}

func (a *App) generateReply(ctx context.Context, req ChatRequest) string {
	if !a.aiConfigured {
		return mockReply(req.Persona, req.CompanyName, len(req.MessageHistory))
	}
	history := make([]ai.ChatMessage, 0, len(req.MessageHistory)+1)
	for _, msg := range req.MessageHistory {
		role := "assistant"
		if msg.Role == domain.RoleUser {
			role = "user"
		}
		content := msg.Content
		if content == "" {
			content = "No content provided"
		}
		history = append(history, ai.ChatMessage{Role: role, Content: content})
	}
	history = append(history, ai.ChatMessage{Role: "user", Content: req.Message.Content})

	reply, err := a.generator.GenerateChat(ctx, buildChatSystemPrompt(req.Persona, req.CompanyName), history)
	if err != nil {
		util.LoggerFromContext(ctx).Warn("chat generation failed, using fallback", "error", err)
		return mockReply(req.Persona, req.CompanyName, len(req.MessageHistory))
	}
	return reply
}
