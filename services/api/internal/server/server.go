package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"customerpersona/internal/servicetoken"
	"customerpersona/internal/util"
	"customerpersona/pkg/domain"
	"customerpersona/services/api/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	AllowedOrigins []string
	// TokenVerifier is optional. When set, all routes except health
	// require a valid internal service token.
	TokenVerifier *servicetoken.Verifier
}

// Server exposes HTTP endpoints for the persona API service.
type Server struct {
	app            *app.App
	allowedOrigins []string
	tokenVerifier  *servicetoken.Verifier
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		allowedOrigins: cfg.AllowedOrigins,
		tokenVerifier:  cfg.TokenVerifier,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, util.WithRequestLog("api", util.WithRequestID(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/company", s.withServiceAuth(s.handleCompanies))
	s.mux.Handle("/company/active", s.withServiceAuth(s.handleActiveCompanies))
	s.mux.Handle("/company/", s.withServiceAuth(s.handleCompanyByID))
	s.mux.Handle("/persona/generate", s.withServiceAuth(s.handleGeneratePersona))
	s.mux.Handle("/persona/generate-with-knowledge", s.withServiceAuth(s.handleGeneratePersonaWithKnowledge))
	s.mux.Handle("/persona/", s.withServiceAuth(s.handlePersonaByID))
	s.mux.Handle("/chat", s.withServiceAuth(s.handleChat))
	s.mux.Handle("/chat/with-context", s.withServiceAuth(s.handleChatWithContext))
	s.mux.Handle("/chat/history/", s.withServiceAuth(s.handleChatHistory))
}

func (s *Server) withServiceAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokenVerifier != nil {
			token, ok := servicetoken.BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, err := s.tokenVerifier.Verify(token); err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type companyRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Characteristics []string `json:"characteristics"`
	IsActive        *bool    `json:"isActive"`
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req companyRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		company, err := s.app.CreateCompany(app.CompanyInput{
			Name:            req.Name,
			Description:     req.Description,
			Characteristics: req.Characteristics,
			IsActive:        req.IsActive,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeSuccess(w, http.StatusCreated, "Company created successfully", company)
	case http.MethodGet:
		companies, err := s.app.ListCompanies()
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Companies retrieved successfully", companies)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleActiveCompanies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	companies, err := s.app.ListActiveCompanies()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Active companies retrieved successfully", companies)
}

func (s *Server) handleCompanyByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/company/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		company, err := s.app.GetCompany(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Company retrieved successfully", company)
	case http.MethodPut:
		var req companyRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		patch := domain.CompanyPatch{IsActive: req.IsActive}
		if req.Name != "" {
			patch.Name = &req.Name
		}
		if req.Description != "" {
			patch.Description = &req.Description
		}
		if req.Characteristics != nil {
			patch.Characteristics = &req.Characteristics
		}
		company, err := s.app.UpdateCompany(id, patch)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, "Company updated successfully", company)
	default:
		methodNotAllowed(w)
	}
}

type generatePersonaRequest struct {
	companyRequest
	KnowledgeDomain string `json:"knowledgeDomain"`
	ProblemToSolve  string `json:"problemToSolve"`
}

func (req generatePersonaRequest) toApp() app.GeneratePersonaRequest {
	return app.GeneratePersonaRequest{
		Company: app.CompanyInput{
			Name:            req.Name,
			Description:     req.Description,
			Characteristics: req.Characteristics,
			IsActive:        req.IsActive,
		},
		KnowledgeDomain: req.KnowledgeDomain,
		ProblemToSolve:  req.ProblemToSolve,
	}
}

func (s *Server) handleGeneratePersona(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generatePersonaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	persona, err := s.app.GeneratePersona(r.Context(), req.toApp())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Persona generated successfully", persona)
}

func (s *Server) handleGeneratePersonaWithKnowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req generatePersonaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	persona, err := s.app.GeneratePersonaWithKnowledge(r.Context(), req.toApp())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Persona with knowledge domain generated successfully", persona)
}

func (s *Server) handlePersonaByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/persona/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	persona, err := s.app.GetPersona(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Persona retrieved successfully", persona)
}

type chatRequest struct {
	Message        domain.Message   `json:"message"`
	Persona        domain.Persona   `json:"persona"`
	CompanyName    string           `json:"companyName"`
	MessageHistory []domain.Message `json:"messageHistory"`
}

func (req chatRequest) toApp() app.ChatRequest {
	return app.ChatRequest{
		Message:        req.Message,
		Persona:        req.Persona,
		CompanyName:    req.CompanyName,
		MessageHistory: req.MessageHistory,
	}
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Persona.TemporaryContext = ""
	reply, err := s.app.Respond(r.Context(), req.toApp())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat response generated successfully", chatResponse{Response: reply})
}

func (s *Server) handleChatWithContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		chatRequest
		AdditionalContext string `json:"additionalContext"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Persona.TemporaryContext = ""
	reply, err := s.app.RespondWithContext(r.Context(), req.toApp(), req.AdditionalContext)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Contextual chat response generated successfully", chatResponse{Response: reply})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	personaID := strings.TrimPrefix(r.URL.Path, "/chat/history/")
	if personaID == "" || strings.Contains(personaID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	messages, err := s.app.ListHistory(personaID, 0)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat history retrieved successfully", messages)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

// apiResponse is the envelope every endpoint replies with. Error is
// always present and null on success.
type apiResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    any     `json:"data,omitempty"`
	Error   *string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, apiResponse{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Success: false, Message: msg, Error: &msg})
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrCompanyNotFound), errors.Is(err, app.ErrPersonaNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
