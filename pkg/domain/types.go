package domain

import "time"

// Message roles recorded in chat transcripts.
const (
	RoleUser    = "user"
	RolePersona = "persona"
)

// Company is a business profile that personas are generated for.
type Company struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Characteristics []string  `json:"characteristics"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CompanyPatch carries a partial company update. Nil fields keep the
// stored value.
type CompanyPatch struct {
	Name            *string
	Description     *string
	Characteristics *[]string
	IsActive        *bool
}

// Persona is a synthesized customer profile owned by a company.
type Persona struct {
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Location         string   `json:"location"`
	JobTitle         string   `json:"jobTitle"`
	Interests        []string `json:"interests"`
	Challenges       []string `json:"challenges"`
	InitialChallenge string   `json:"initialChallenge"`
	KnowledgeDomain  string   `json:"knowledgeDomain,omitempty"`
	ProblemToSolve   string   `json:"problemToSolve,omitempty"`
	// TemporaryContext biases a single chat reply and is never persisted.
	TemporaryContext string    `json:"temporaryContext,omitempty"`
	CompanyID        string    `json:"companyId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ChatMessage is one persisted turn of a persona conversation.
// Records are append-only.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	PersonaID string    `json:"personaId"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a transcript entry passed back by the client on each chat
// turn. The server never holds conversation state between requests.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
