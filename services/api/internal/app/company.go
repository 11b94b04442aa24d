package app

import (
	"fmt"
	"strings"

	"customerpersona/pkg/domain"
)

// CompanyInput is the caller-supplied company profile. IsActive nil
// defaults to active.
type CompanyInput struct {
	Name            string
	Description     string
	Characteristics []string
	IsActive        *bool
}

func (in CompanyInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: company name required", ErrValidation)
	}
	if len(trimStrings(in.Characteristics)) == 0 {
		return fmt.Errorf("%w: at least one characteristic required", ErrValidation)
	}
	return nil
}

// CreateCompany stores a new company profile. New companies are active
// unless the input says otherwise.
func (a *App) CreateCompany(in CompanyInput) (domain.Company, error) {
	if err := in.validate(); err != nil {
		return domain.Company{}, err
	}
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	company, err := a.store.CreateCompany(domain.Company{
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Characteristics: trimStrings(in.Characteristics),
		IsActive:        isActive,
	})
	if err != nil {
		return domain.Company{}, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

// ListCompanies returns all companies, newest first.
func (a *App) ListCompanies() ([]domain.Company, error) {
	items, err := a.store.ListCompanies()
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return items, nil
}

// ListActiveCompanies returns active companies ordered by name.
func (a *App) ListActiveCompanies() ([]domain.Company, error) {
	items, err := a.store.ListActiveCompanies()
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}
	return items, nil
}

// GetCompany returns a single company by ID.
func (a *App) GetCompany(id string) (domain.Company, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Company{}, fmt.Errorf("%w: company id required", ErrValidation)
	}
	company, ok, err := a.store.GetCompany(id)
	if err != nil {
		return domain.Company{}, fmt.Errorf("load company: %w", err)
	}
	if !ok {
		return domain.Company{}, ErrCompanyNotFound
	}
	return company, nil
}

// UpdateCompany merges the patch over the stored record.
func (a *App) UpdateCompany(id string, patch domain.CompanyPatch) (domain.Company, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Company{}, fmt.Errorf("%w: company id required", ErrValidation)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Company{}, fmt.Errorf("%w: company name cannot be empty", ErrValidation)
	}
	if patch.Characteristics != nil && len(trimStrings(*patch.Characteristics)) == 0 {
		return domain.Company{}, fmt.Errorf("%w: characteristics cannot be empty", ErrValidation)
	}
	company, ok, err := a.store.UpdateCompany(id, patch)
	if err != nil {
		return domain.Company{}, fmt.Errorf("update company: %w", err)
	}
	if !ok {
		return domain.Company{}, ErrCompanyNotFound
	}
	return company, nil
}

func trimStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
