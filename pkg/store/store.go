package store

import "customerpersona/pkg/domain"

// Store abstracts persistence for companies, personas, and chat messages.
// Implementations assign IDs and timestamps on create.
type Store interface {
	// CreateCompany persists a new company record and returns it with ID
	// and timestamps populated.
	CreateCompany(c domain.Company) (domain.Company, error)
	// ListCompanies returns all companies, newest first.
	ListCompanies() ([]domain.Company, error)
	// ListActiveCompanies returns active companies ordered by name.
	ListActiveCompanies() ([]domain.Company, error)
	// GetCompany returns a company by ID.
	GetCompany(id string) (domain.Company, bool, error)
	// GetCompanyByName returns a company by exact name.
	GetCompanyByName(name string) (domain.Company, bool, error)
	// UpdateCompany merges the patch over the stored record and persists
	// the result. The bool is false when the ID is unknown.
	UpdateCompany(id string, patch domain.CompanyPatch) (domain.Company, bool, error)

	// CreatePersona persists a persona linked to its company.
	CreatePersona(p domain.Persona) (domain.Persona, error)
	// GetPersona returns a persona by ID.
	GetPersona(id string) (domain.Persona, bool, error)
	// UpdatePersona rewrites an existing persona record.
	UpdatePersona(p domain.Persona) (domain.Persona, error)

	// AppendChatMessage records one conversation turn. Messages are
	// append-only and never updated.
	AppendChatMessage(m domain.ChatMessage) (domain.ChatMessage, error)
	// ListChatMessages returns a persona's messages in chronological
	// order. A limit <= 0 means no limit.
	ListChatMessages(personaID string, limit int) ([]domain.ChatMessage, error)
}
