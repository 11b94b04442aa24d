package store

import (
	"sort"
	"sync"
	"time"

	"customerpersona/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs tests and local runs
// without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]domain.Company
	personas  map[string]domain.Persona
	messages  map[string][]domain.ChatMessage
	order     []string // company insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: make(map[string]domain.Company),
		personas:  make(map[string]domain.Persona),
		messages:  make(map[string][]domain.ChatMessage),
	}
}

// CreateCompany stores a company record and tracks insertion order.
func (m *MemoryStore) CreateCompany(c domain.Company) (domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	m.companies[c.ID] = c
	m.order = append(m.order, c.ID)
	return c, nil
}

// ListCompanies returns companies newest first (reverse insertion order).
func (m *MemoryStore) ListCompanies() ([]domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Company, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		if c, ok := m.companies[m.order[i]]; ok {
			res = append(res, c)
		}
	}
	return res, nil
}

// ListActiveCompanies returns active companies ordered by name.
func (m *MemoryStore) ListActiveCompanies() ([]domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		if c.IsActive {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

// GetCompany retrieves a company by ID.
func (m *MemoryStore) GetCompany(id string) (domain.Company, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	return c, ok, nil
}

// GetCompanyByName retrieves a company by exact name.
func (m *MemoryStore) GetCompanyByName(name string) (domain.Company, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.companies {
		if c.Name == name {
			return c, true, nil
		}
	}
	return domain.Company{}, false, nil
}

// UpdateCompany merges the patch over the stored record.
func (m *MemoryStore) UpdateCompany(id string, patch domain.CompanyPatch) (domain.Company, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return domain.Company{}, false, nil
	}
	applyCompanyPatch(&c, patch)
	c.UpdatedAt = time.Now().UTC()
	m.companies[id] = c
	return c, true, nil
}

// CreatePersona stores a persona record.
func (m *MemoryStore) CreatePersona(p domain.Persona) (domain.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = NewID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	p.TemporaryContext = ""
	m.personas[p.ID] = p
	return p, nil
}

// GetPersona retrieves a persona by ID.
func (m *MemoryStore) GetPersona(id string) (domain.Persona, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.personas[id]
	return p, ok, nil
}

// UpdatePersona rewrites a persona record.
func (m *MemoryStore) UpdatePersona(p domain.Persona) (domain.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	p.TemporaryContext = ""
	m.personas[p.ID] = p
	return p, nil
}

// AppendChatMessage records a message linked to a persona.
func (m *MemoryStore) AppendChatMessage(msg domain.ChatMessage) (domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	m.messages[msg.PersonaID] = append(m.messages[msg.PersonaID], msg)
	return msg, nil
}

// ListChatMessages returns a persona's messages in insertion order.
func (m *MemoryStore) ListChatMessages(personaID string, limit int) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[personaID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
