package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"customerpersona/internal/util"
	"customerpersona/pkg/domain"
)

// GeneratePersonaRequest carries the company profile a persona is
// synthesized for, plus optional steering fields.
type GeneratePersonaRequest struct {
	Company         CompanyInput
	KnowledgeDomain string
	ProblemToSolve  string
}

// personaPayload is the shape expected back from the JSON generation
// call.
type personaPayload struct {
	Name             string   `json:"name"`
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Location         string   `json:"location"`
	JobTitle         string   `json:"jobTitle"`
	Interests        []string `json:"interests"`
	Challenges       []string `json:"challenges"`
	InitialChallenge string   `json:"initialChallenge"`
	KnowledgeDomain  string   `json:"knowledgeDomain"`
	ProblemToSolve   string   `json:"problemToSolve"`
}

// GeneratePersona stores the company profile and synthesizes a persona
// for it. Provider failures are logged and served from the
// deterministic fallback, never surfaced to the caller.
func (a *App) GeneratePersona(ctx context.Context, req GeneratePersonaRequest) (domain.Persona, error) {
	if err := req.Company.validate(); err != nil {
		return domain.Persona{}, err
	}
	company, err := a.CreateCompany(req.Company)
	if err != nil {
		return domain.Persona{}, err
	}

	persona := a.synthesizePersona(ctx, company.Name, company.Characteristics, req.KnowledgeDomain, req.ProblemToSolve)
	persona.CompanyID = company.ID

	saved, err := a.store.CreatePersona(persona)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("save persona: %w", err)
	}
	return saved, nil
}

// GeneratePersonaWithKnowledge generates a persona whose knowledge
// domain and problem are fixed by the caller. The steering fields are
// folded into the characteristics for generation, then pinned on the
// stored record.
func (a *App) GeneratePersonaWithKnowledge(ctx context.Context, req GeneratePersonaRequest) (domain.Persona, error) {
	augmented := req
	if kd := strings.TrimSpace(req.KnowledgeDomain); kd != "" {
		augmented.Company.Characteristics = append(append([]string{}, augmented.Company.Characteristics...), "Knowledge in: "+kd)
	}
	if pts := strings.TrimSpace(req.ProblemToSolve); pts != "" {
		augmented.Company.Characteristics = append(append([]string{}, augmented.Company.Characteristics...), "Problem: "+pts)
	}
	persona, err := a.GeneratePersona(ctx, augmented)
	if err != nil {
		return domain.Persona{}, err
	}

	changed := false
	if kd := strings.TrimSpace(req.KnowledgeDomain); kd != "" {
		persona.KnowledgeDomain = kd
		changed = true
	}
	if pts := strings.TrimSpace(req.ProblemToSolve); pts != "" {
		persona.ProblemToSolve = pts
		changed = true
	}
	if !changed {
		return persona, nil
	}
	updated, err := a.store.UpdatePersona(persona)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("update persona: %w", err)
	}
	return updated, nil
}

// GetPersona returns a stored persona by ID.
func (a *App) GetPersona(id string) (domain.Persona, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Persona{}, fmt.Errorf("%w: persona id required", ErrValidation)
	}
	persona, ok, err := a.store.GetPersona(id)
	if err != nil {
		return domain.Persona{}, fmt.Errorf("load persona: %w", err)
	}
	if !ok {
		return domain.Persona{}, ErrPersonaNotFound
	}
	return persona, nil
}

func (a *App) synthesizePersona(ctx context.Context, companyName string, characteristics []string, knowledgeDomain, problemToSolve string) domain.Persona {
	if !a.aiConfigured {
		return validatePersona(mockPersona(companyName, characteristics), companyName)
	}
	raw, err := a.generator.GenerateJSON(ctx, personaSystemPrompt, buildPersonaPrompt(companyName, characteristics, knowledgeDomain, problemToSolve))
	if err != nil {
		util.LoggerFromContext(ctx).Warn("persona generation failed, using fallback", "error", err)
		return validatePersona(mockPersona(companyName, characteristics), companyName)
	}
	var payload personaPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		util.LoggerFromContext(ctx).Warn("persona response not valid JSON, using fallback", "error", err)
		return validatePersona(mockPersona(companyName, characteristics), companyName)
	}
	return validatePersona(domain.Persona{
		Name:             payload.Name,
		Age:              payload.Age,
		Gender:           payload.Gender,
		Location:         payload.Location,
		JobTitle:         payload.JobTitle,
		Interests:        payload.Interests,
		Challenges:       payload.Challenges,
		InitialChallenge: payload.InitialChallenge,
		KnowledgeDomain:  payload.KnowledgeDomain,
		ProblemToSolve:   payload.ProblemToSolve,
	}, companyName)
}

// validatePersona fills required fields the generator may have left
// out.
func validatePersona(p domain.Persona, companyName string) domain.Persona {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Anonymous User"
	}
	if p.Age <= 0 {
		p.Age = 30
	}
	if strings.TrimSpace(p.Gender) == "" {
		p.Gender = "Not specified"
	}
	if strings.TrimSpace(p.Location) == "" {
		p.Location = "Remote"
	}
	if strings.TrimSpace(p.JobTitle) == "" {
		p.JobTitle = "Professional"
	}
	if len(p.Interests) == 0 {
		p.Interests = []string{"Technology", "Innovation"}
	}
	if len(p.Challenges) == 0 {
		p.Challenges = []string{"Finding the right solution"}
	}
	if strings.TrimSpace(p.InitialChallenge) == "" {
		p.InitialChallenge = fmt.Sprintf("I'm looking for a %s solution that meets my needs.", companyName)
	}
	return p
}
