package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type CompanyModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"size:100;not null"`
	Description     string `gorm:"type:text"`
	Characteristics datatypes.JSON
	IsActive        bool      `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}

type PersonaModel struct {
	ID               string `gorm:"primaryKey"`
	Name             string `gorm:"size:100;not null"`
	Age              int    `gorm:"not null"`
	Gender           string `gorm:"size:50;not null"`
	Location         string `gorm:"size:100;not null"`
	JobTitle         string `gorm:"size:100;not null"`
	Interests        datatypes.JSON
	Challenges       datatypes.JSON
	InitialChallenge string    `gorm:"type:text;not null"`
	KnowledgeDomain  string    `gorm:"type:text"`
	ProblemToSolve   string    `gorm:"type:text"`
	CompanyID        string    `gorm:"index"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

type ChatMessageModel struct {
	ID        string `gorm:"primaryKey"`
	Role      string `gorm:"size:20;not null"`
	Content   string `gorm:"type:text;not null"`
	PersonaID string `gorm:"not null;index"`
	SessionID string
	CreatedAt time.Time `gorm:"not null;index"`
}
