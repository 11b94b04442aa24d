package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"customerpersona/internal/ratelimit"
	"customerpersona/internal/util"
	"customerpersona/pkg/domain"
	"customerpersona/services/gateway/internal/apiclient"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	API            *apiclient.Client
	AllowedOrigins []string
	TrustedProxies *util.TrustedProxies

	// Limiters are optional; nil disables limiting for that route.
	GenerateLimiter *ratelimit.FixedWindowLimiter
	ChatLimiter     *ratelimit.FixedWindowLimiter
}

// Server exposes the presentation-tier proxy endpoints.
type Server struct {
	api             *apiclient.Client
	allowedOrigins  []string
	trustedProxies  *util.TrustedProxies
	generateLimiter *ratelimit.FixedWindowLimiter
	chatLimiter     *ratelimit.FixedWindowLimiter
	mux             *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		api:             cfg.API,
		allowedOrigins:  cfg.AllowedOrigins,
		trustedProxies:  cfg.TrustedProxies,
		generateLimiter: cfg.GenerateLimiter,
		chatLimiter:     cfg.ChatLimiter,
		mux:             http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, util.WithRequestLog("gateway", util.WithRequestID(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/businesses", s.handleBusinesses)
	s.mux.HandleFunc("/api/businesses/", s.handleBusinessByID)
	s.mux.Handle("/api/generate-persona", s.withRateLimit(s.generateLimiter, s.handleGeneratePersona))
	s.mux.Handle("/api/chat", s.withRateLimit(s.chatLimiter, s.handleChat))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRateLimit(limiter *ratelimit.FixedWindowLimiter, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter != nil && !limiter.Allow(util.ClientIP(r, s.trustedProxies)) {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, r)
	})
}

func (s *Server) handleBusinesses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.proxy(w, r, http.MethodGet, "/company", nil, "Failed to fetch businesses")
	case http.MethodPost:
		body, ok := readRawJSON(w, r)
		if !ok {
			return
		}
		s.proxy(w, r, http.MethodPost, "/company", body, "Failed to create business")
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBusinessByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/businesses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.proxy(w, r, http.MethodGet, "/company/"+id, nil, "Failed to fetch business")
	case http.MethodPut:
		body, ok := readRawJSON(w, r)
		if !ok {
			return
		}
		s.proxy(w, r, http.MethodPut, "/company/"+id, body, "Failed to update business")
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// clientPersona is the subset of persona fields exposed to the
// frontend.
type clientPersona struct {
	ID               string   `json:"id"`
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
	TemporaryContext string   `json:"temporaryContext,omitempty"`
}

func toClientPersona(p domain.Persona) clientPersona {
	return clientPersona{
		ID:               p.ID,
		Name:             p.Name,
		Age:              p.Age,
		Gender:           p.Gender,
		Location:         p.Location,
		JobTitle:         p.JobTitle,
		Interests:        p.Interests,
		Challenges:       p.Challenges,
		InitialChallenge: p.InitialChallenge,
		KnowledgeDomain:  p.KnowledgeDomain,
		ProblemToSolve:   p.ProblemToSolve,
	}
}

func (s *Server) handleGeneratePersona(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Name            string   `json:"name"`
		Description     string   `json:"description"`
		Characteristics []string `json:"characteristics"`
		KnowledgeDomain string   `json:"knowledgeDomain"`
		ProblemToSolve  string   `json:"problemToSolve"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	endpoint := "/persona/generate"
	if req.KnowledgeDomain != "" || req.ProblemToSolve != "" {
		endpoint = "/persona/generate-with-knowledge"
	}
	payload, err := s.api.Do(r.Context(), http.MethodPost, endpoint, req)
	if err != nil {
		proxyFailure(r, w, err, "Failed to generate persona")
		return
	}
	var env struct {
		Data domain.Persona `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		proxyFailure(r, w, err, "Failed to generate persona")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"persona": toClientPersona(env.Data)})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Message           domain.Message   `json:"message"`
		Persona           domain.Persona   `json:"persona"`
		CompanyName       string           `json:"companyName"`
		MessageHistory    []domain.Message `json:"messageHistory"`
		AdditionalContext string           `json:"additionalContext"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	endpoint := "/chat"
	if req.AdditionalContext != "" {
		endpoint = "/chat/with-context"
	}
	persona := toClientPersona(req.Persona)
	forward := map[string]any{
		"message":        req.Message,
		"persona":        persona,
		"companyName":    req.CompanyName,
		"messageHistory": req.MessageHistory,
	}
	if req.AdditionalContext != "" {
		forward["additionalContext"] = req.AdditionalContext
	}
	payload, err := s.api.Do(r.Context(), http.MethodPost, endpoint, forward)
	if err != nil {
		proxyFailure(r, w, err, "Failed to generate chat response")
		return
	}
	var env struct {
		Data struct {
			Response string `json:"response"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		proxyFailure(r, w, err, "Failed to generate chat response")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"response": env.Data.Response}})
}

// proxy forwards a request body to the api service and relays the
// envelope untouched.
func (s *Server) proxy(w http.ResponseWriter, r *http.Request, method, path string, body json.RawMessage, failureMsg string) {
	var payload []byte
	var err error
	if body != nil {
		payload, err = s.api.Do(r.Context(), method, path, body)
	} else {
		payload, err = s.api.Do(r.Context(), method, path, nil)
	}
	if err != nil {
		proxyFailure(r, w, err, failureMsg)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func readRawJSON(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(raw) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return raw, true
}

func proxyFailure(r *http.Request, w http.ResponseWriter, err error, msg string) {
	util.LoggerFromContext(r.Context()).Error("api service call failed", "error", err)
	status := http.StatusBadGateway
	if apiErr, ok := err.(*apiclient.APIError); ok && apiErr.Status == http.StatusNotFound {
		status = http.StatusNotFound
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
