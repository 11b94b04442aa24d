package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"customerpersona/pkg/domain"
)

type GormStoreOptions struct {
	AutoMigrate bool
	LogSQL      bool
}

type GormStoreOption func(*GormStoreOptions)

// WithAutoMigrate toggles schema auto-migration on open. Production
// deployments run with this disabled.
func WithAutoMigrate(enabled bool) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.AutoMigrate = enabled
	}
}

// WithSQLLogging raises the gorm log level so every statement is printed.
func WithSQLLogging(enabled bool) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.LogSQL = enabled
	}
}

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a Postgres connection.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	return NewGormStoreWithDialector(postgres.Open(dsn), options...)
}

// NewGormStoreWithDialector opens the store on an arbitrary gorm dialector.
// Tests use this with an in-process sqlite dialector.
func NewGormStoreWithDialector(dialector gorm.Dialector, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{AutoMigrate: true}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	logLevel := gormlogger.Warn
	if opts.LogSQL {
		logLevel = gormlogger.Info
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if opts.AutoMigrate {
		if err := db.AutoMigrate(&CompanyModel{}, &PersonaModel{}, &ChatMessageModel{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return &GormStore{db: db}, nil
}

// CreateCompany inserts a company row.
func (s *GormStore) CreateCompany(c domain.Company) (domain.Company, error) {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = NewID()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	model := companyToModel(c)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Company{}, err
	}
	return companyFromModel(model), nil
}

// ListCompanies returns all companies, newest first.
func (s *GormStore) ListCompanies() ([]domain.Company, error) {
	var models []CompanyModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Company, 0, len(models))
	for _, m := range models {
		res = append(res, companyFromModel(m))
	}
	return res, nil
}

// ListActiveCompanies returns active companies ordered by name.
func (s *GormStore) ListActiveCompanies() ([]domain.Company, error) {
	var models []CompanyModel
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Company, 0, len(models))
	for _, m := range models {
		res = append(res, companyFromModel(m))
	}
	return res, nil
}

// GetCompany retrieves a company by ID.
func (s *GormStore) GetCompany(id string) (domain.Company, bool, error) {
	var model CompanyModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Company{}, false, nil
		}
		return domain.Company{}, false, err
	}
	return companyFromModel(model), true, nil
}

// GetCompanyByName retrieves a company by exact name.
func (s *GormStore) GetCompanyByName(name string) (domain.Company, bool, error) {
	var model CompanyModel
	if err := s.db.First(&model, "name = ?", name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Company{}, false, nil
		}
		return domain.Company{}, false, err
	}
	return companyFromModel(model), true, nil
}

// UpdateCompany merges the patch over the stored record.
func (s *GormStore) UpdateCompany(id string, patch domain.CompanyPatch) (domain.Company, bool, error) {
	var model CompanyModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Company{}, false, nil
		}
		return domain.Company{}, false, err
	}
	company := companyFromModel(model)
	applyCompanyPatch(&company, patch)
	company.UpdatedAt = time.Now().UTC()
	updated := companyToModel(company)
	if err := s.db.Save(&updated).Error; err != nil {
		return domain.Company{}, false, err
	}
	return companyFromModel(updated), true, nil
}

// CreatePersona inserts a persona row linked to its company.
func (s *GormStore) CreatePersona(p domain.Persona) (domain.Persona, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = NewID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	model := personaToModel(p)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Persona{}, err
	}
	return personaFromModel(model), nil
}

// GetPersona retrieves a persona by ID.
func (s *GormStore) GetPersona(id string) (domain.Persona, bool, error) {
	var model PersonaModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Persona{}, false, nil
		}
		return domain.Persona{}, false, err
	}
	return personaFromModel(model), true, nil
}

// UpdatePersona rewrites a persona row.
func (s *GormStore) UpdatePersona(p domain.Persona) (domain.Persona, error) {
	p.UpdatedAt = time.Now().UTC()
	model := personaToModel(p)
	if err := s.db.Save(&model).Error; err != nil {
		return domain.Persona{}, err
	}
	return personaFromModel(model), nil
}

// AppendChatMessage records a message.
func (s *GormStore) AppendChatMessage(m domain.ChatMessage) (domain.ChatMessage, error) {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	model := chatMessageToModel(m)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.ChatMessage{}, err
	}
	return chatMessageFromModel(model), nil
}

// ListChatMessages returns a persona's messages in chronological order.
func (s *GormStore) ListChatMessages(personaID string, limit int) ([]domain.ChatMessage, error) {
	query := s.db.Where("persona_id = ?", personaID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []ChatMessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, chatMessageFromModel(model))
	}
	return msgs, nil
}

func applyCompanyPatch(c *domain.Company, patch domain.CompanyPatch) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Characteristics != nil && len(*patch.Characteristics) > 0 {
		c.Characteristics = *patch.Characteristics
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
}

func companyToModel(c domain.Company) CompanyModel {
	characteristics, _ := json.Marshal(c.Characteristics)
	return CompanyModel{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Characteristics: characteristics,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func companyFromModel(m CompanyModel) domain.Company {
	var characteristics []string
	if len(m.Characteristics) > 0 {
		_ = json.Unmarshal(m.Characteristics, &characteristics)
	}
	return domain.Company{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		Characteristics: characteristics,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func personaToModel(p domain.Persona) PersonaModel {
	interests, _ := json.Marshal(p.Interests)
	challenges, _ := json.Marshal(p.Challenges)
	return PersonaModel{
		ID:               p.ID,
		Name:             p.Name,
		Age:              p.Age,
		Gender:           p.Gender,
		Location:         p.Location,
		JobTitle:         p.JobTitle,
		Interests:        interests,
		Challenges:       challenges,
		InitialChallenge: p.InitialChallenge,
		KnowledgeDomain:  p.KnowledgeDomain,
		ProblemToSolve:   p.ProblemToSolve,
		CompanyID:        p.CompanyID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func personaFromModel(m PersonaModel) domain.Persona {
	var interests, challenges []string
	if len(m.Interests) > 0 {
		_ = json.Unmarshal(m.Interests, &interests)
	}
	if len(m.Challenges) > 0 {
		_ = json.Unmarshal(m.Challenges, &challenges)
	}
	return domain.Persona{
		ID:               m.ID,
		Name:             m.Name,
		Age:              m.Age,
		Gender:           m.Gender,
		Location:         m.Location,
		JobTitle:         m.JobTitle,
		Interests:        interests,
		Challenges:       challenges,
		InitialChallenge: m.InitialChallenge,
		KnowledgeDomain:  m.KnowledgeDomain,
		ProblemToSolve:   m.ProblemToSolve,
		CompanyID:        m.CompanyID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func chatMessageToModel(m domain.ChatMessage) ChatMessageModel {
	return ChatMessageModel{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		PersonaID: m.PersonaID,
		SessionID: m.SessionID,
		CreatedAt: m.CreatedAt,
	}
}

func chatMessageFromModel(m ChatMessageModel) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		PersonaID: m.PersonaID,
		SessionID: m.SessionID,
		CreatedAt: m.CreatedAt,
	}
}
