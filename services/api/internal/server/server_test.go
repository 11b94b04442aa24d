package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"customerpersona/internal/servicetoken"
	"customerpersona/pkg/domain"
	"customerpersona/pkg/store"
	"customerpersona/services/api/internal/app"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	a, err := app.New(app.Config{Store: store.NewMemoryStore(), GenerationProvider: "openai"})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return New(Config{App: a})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestCompanyLifecycle(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec, env := doJSON(t, router, http.MethodPost, "/company", map[string]any{
		"name":            "EcoTech Solutions",
		"description":     "Green manufacturing",
		"characteristics": []string{"Sustainable manufacturing"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rec.Code)
	}
	if !env.Success || env.Error != nil {
		t.Fatalf("create envelope unexpected: %+v", env)
	}
	if env.Message != "Company created successfully" {
		t.Fatalf("create message = %q", env.Message)
	}
	var created domain.Company
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode company: %v", err)
	}
	if created.ID == "" || !created.IsActive {
		t.Fatalf("created company unexpected: %+v", created)
	}

	rec, env = doJSON(t, router, http.MethodGet, "/company", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var companies []domain.Company
	if err := json.Unmarshal(env.Data, &companies); err != nil {
		t.Fatalf("decode companies: %v", err)
	}
	if len(companies) != 1 {
		t.Fatalf("companies length = %d, want 1", len(companies))
	}

	rec, env = doJSON(t, router, http.MethodPut, "/company/"+created.ID, map[string]any{
		"isActive": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var updated domain.Company
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode updated company: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected company deactivated")
	}

	rec, env = doJSON(t, router, http.MethodGet, "/company/active", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("active status = %d, want 200", rec.Code)
	}
	var active []domain.Company
	if err := json.Unmarshal(env.Data, &active); err != nil {
		t.Fatalf("decode active companies: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("active length = %d, want 0 after deactivation", len(active))
	}
}

func TestCompanyValidationAndNotFound(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec, env := doJSON(t, router, http.MethodPost, "/company", map[string]any{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Success || env.Error == nil {
		t.Fatalf("error envelope unexpected: %+v", env)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/company/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodDelete, "/company", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestGeneratePersonaEndpoint(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec, env := doJSON(t, router, http.MethodPost, "/persona/generate", map[string]any{
		"name":            "EcoTech Solutions",
		"characteristics": []string{"Sustainable manufacturing"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var persona domain.Persona
	if err := json.Unmarshal(env.Data, &persona); err != nil {
		t.Fatalf("decode persona: %v", err)
	}
	if persona.ID == "" || persona.Name == "" || persona.CompanyID == "" {
		t.Fatalf("persona incomplete: %+v", persona)
	}

	rec, env = doJSON(t, router, http.MethodGet, "/persona/"+persona.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if env.Message != "Persona retrieved successfully" {
		t.Fatalf("get message = %q", env.Message)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/persona/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing persona status = %d, want 404", rec.Code)
	}
}

func TestGeneratePersonaWithKnowledgeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec, env := doJSON(t, router, http.MethodPost, "/persona/generate-with-knowledge", map[string]any{
		"name":            "Acme",
		"characteristics": []string{"General supplies"},
		"knowledgeDomain": "Industrial logistics",
		"problemToSolve":  "Cutting fulfillment times",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if env.Message != "Persona with knowledge domain generated successfully" {
		t.Fatalf("message = %q", env.Message)
	}
	var persona domain.Persona
	if err := json.Unmarshal(env.Data, &persona); err != nil {
		t.Fatalf("decode persona: %v", err)
	}
	if persona.KnowledgeDomain != "Industrial logistics" || persona.ProblemToSolve != "Cutting fulfillment times" {
		t.Fatalf("steering fields not pinned: %+v", persona)
	}
}

func TestChatEndpoints(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	rec, env := doJSON(t, router, http.MethodPost, "/chat", map[string]any{
		"message":        map[string]string{"role": "user", "content": "Tell me about your products"},
		"persona":        map[string]any{"id": "p-1", "name": "Dana"},
		"companyName":    "Acme",
		"messageHistory": []any{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var reply struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(env.Data, &reply); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if reply.Response == "" {
		t.Fatalf("expected non-empty reply")
	}

	rec, env = doJSON(t, router, http.MethodPost, "/chat/with-context", map[string]any{
		"message":           map[string]string{"role": "user", "content": "And pricing?"},
		"persona":           map[string]any{"id": "p-1", "name": "Dana"},
		"companyName":       "Acme",
		"messageHistory":    []any{},
		"additionalContext": "Budget was just approved.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("contextual chat status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if env.Message != "Contextual chat response generated successfully" {
		t.Fatalf("message = %q", env.Message)
	}

	rec, env = doJSON(t, router, http.MethodGet, "/chat/history/p-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", rec.Code)
	}
	var history []domain.ChatMessage
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history length = %d, want 4 persisted turns", len(history))
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/chat", map[string]any{
		"message":     map[string]string{"role": "user", "content": ""},
		"persona":     map[string]any{"id": "p-1"},
		"companyName": "Acme",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message status = %d, want 400", rec.Code)
	}
}

func TestServiceAuthRejectsMissingToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPath := filepath.Join(t.TempDir(), "public.pem")
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	verifier, err := servicetoken.NewVerifierWithOptions(servicetoken.VerifierOptions{
		PublicKeyPath:  pubPath,
		Audience:       "api",
		AllowedIssuers: []string{"gateway"},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	a, err := app.New(app.Config{Store: store.NewMemoryStore(), GenerationProvider: "openai"})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	router := New(Config{App: a, TokenVerifier: verifier}).Router()

	rec, _ := doJSON(t, router, http.MethodGet, "/company", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without bearer token", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	health := httptest.NewRecorder()
	router.ServeHTTP(health, req)
	if health.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200 without token", health.Code)
	}
}
