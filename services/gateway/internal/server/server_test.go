package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"customerpersona/internal/ratelimit"
	"customerpersona/services/gateway/internal/apiclient"
)

type backendCall struct {
	Method string
	Path   string
	Body   map[string]any
}

func newBackend(t *testing.T, status int, response string) (*httptest.Server, *[]backendCall) {
	t.Helper()
	calls := &[]backendCall{}
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := backendCall{Method: r.Method, Path: r.URL.Path}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &call.Body)
		}
		*calls = append(*calls, call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(backend.Close)
	return backend, calls
}

func newTestServer(backendURL string) *Server {
	return New(Config{API: apiclient.NewClient(backendURL, nil, "")})
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestBusinessesPassthrough(t *testing.T) {
	backend, calls := newBackend(t, http.StatusOK, `{"success":true,"message":"Companies retrieved successfully","data":[],"error":null}`)
	router := newTestServer(backend.URL).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/businesses", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var env struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || !env.Success {
		t.Fatalf("envelope not relayed: %s", rec.Body.String())
	}
	if len(*calls) != 1 || (*calls)[0].Path != "/company" {
		t.Fatalf("backend calls unexpected: %+v", *calls)
	}
}

func TestCreateBusinessForwardsBody(t *testing.T) {
	backend, calls := newBackend(t, http.StatusCreated, `{"success":true,"message":"Company created successfully","data":{"id":"c-1"},"error":null}`)
	router := newTestServer(backend.URL).Router()

	rec := postJSON(t, router, "/api/businesses", map[string]any{
		"name":            "Acme",
		"characteristics": []string{"General supplies"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(*calls) != 1 || (*calls)[0].Body["name"] != "Acme" {
		t.Fatalf("backend did not receive body: %+v", *calls)
	}
}

func TestBusinessByIDNotFound(t *testing.T) {
	backend, _ := newBackend(t, http.StatusNotFound, `{"success":false,"message":"company not found","error":"company not found"}`)
	router := newTestServer(backend.URL).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/businesses/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["error"] != "Failed to fetch business" {
		t.Fatalf("error body unexpected: %s", rec.Body.String())
	}
}

func TestGeneratePersonaUnwrapsEnvelope(t *testing.T) {
	backend, calls := newBackend(t, http.StatusCreated, `{
		"success": true,
		"message": "Persona generated successfully",
		"data": {
			"id": "p-1",
			"name": "Dana Reyes",
			"age": 41,
			"gender": "Female",
			"location": "Portland, OR",
			"jobTitle": "Operations Lead",
			"interests": ["Cycling"],
			"challenges": ["Vendor sprawl"],
			"initialChallenge": "How does your platform help?",
			"companyId": "c-1",
			"createdAt": "2026-01-01T00:00:00Z"
		},
		"error": null
	}`)
	router := newTestServer(backend.URL).Router()

	rec := postJSON(t, router, "/api/generate-persona", map[string]any{
		"name":            "Acme",
		"characteristics": []string{"General supplies"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if (*calls)[0].Path != "/persona/generate" {
		t.Fatalf("endpoint = %q, want /persona/generate", (*calls)[0].Path)
	}

	var resp map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	persona, ok := resp["persona"]
	if !ok {
		t.Fatalf("response missing persona wrapper: %s", rec.Body.String())
	}
	if persona["name"] != "Dana Reyes" {
		t.Fatalf("persona name = %v", persona["name"])
	}
	if _, leaked := persona["companyId"]; leaked {
		t.Fatalf("companyId must not reach the client: %v", persona)
	}
}

func TestGeneratePersonaPicksKnowledgeEndpoint(t *testing.T) {
	backend, calls := newBackend(t, http.StatusCreated, `{"success":true,"message":"ok","data":{"id":"p-1","name":"Dana"},"error":null}`)
	router := newTestServer(backend.URL).Router()

	rec := postJSON(t, router, "/api/generate-persona", map[string]any{
		"name":            "Acme",
		"characteristics": []string{"General supplies"},
		"knowledgeDomain": "Industrial logistics",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if (*calls)[0].Path != "/persona/generate-with-knowledge" {
		t.Fatalf("endpoint = %q, want with-knowledge route", (*calls)[0].Path)
	}
}

func TestChatPicksContextEndpoint(t *testing.T) {
	backend, calls := newBackend(t, http.StatusOK, `{"success":true,"message":"ok","data":{"response":"Sure, happy to explain."},"error":null}`)
	router := newTestServer(backend.URL).Router()

	rec := postJSON(t, router, "/api/chat", map[string]any{
		"message":           map[string]string{"role": "user", "content": "And pricing?"},
		"persona":           map[string]any{"id": "p-1", "name": "Dana"},
		"companyName":       "Acme",
		"messageHistory":    []any{},
		"additionalContext": "Budget approved.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	call := (*calls)[0]
	if call.Path != "/chat/with-context" {
		t.Fatalf("endpoint = %q, want /chat/with-context", call.Path)
	}
	if call.Body["additionalContext"] != "Budget approved." {
		t.Fatalf("additionalContext not forwarded: %+v", call.Body)
	}

	var resp struct {
		Data struct {
			Response string `json:"response"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Data.Response != "Sure, happy to explain." {
		t.Fatalf("response unexpected: %s", rec.Body.String())
	}
}

func TestChatBackendFailure(t *testing.T) {
	backend, _ := newBackend(t, http.StatusInternalServerError, `{"success":false,"message":"internal server error","error":"internal server error"}`)
	router := newTestServer(backend.URL).Router()

	rec := postJSON(t, router, "/api/chat", map[string]any{
		"message":     map[string]string{"role": "user", "content": "Hi"},
		"persona":     map[string]any{"id": "p-1"},
		"companyName": "Acme",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["error"] != "Failed to generate chat response" {
		t.Fatalf("error body unexpected: %s", rec.Body.String())
	}
}

func TestChatRateLimited(t *testing.T) {
	backend, _ := newBackend(t, http.StatusOK, `{"success":true,"message":"ok","data":{"response":"hi"},"error":null}`)
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redis.Addr(), "", "test:gateway", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	router := New(Config{
		API:         apiclient.NewClient(backend.URL, nil, ""),
		ChatLimiter: limiter,
	}).Router()

	body := map[string]any{
		"message":     map[string]string{"role": "user", "content": "Hi"},
		"persona":     map[string]any{"id": "p-1"},
		"companyName": "Acme",
	}
	if rec := postJSON(t, router, "/api/chat", body); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	if rec := postJSON(t, router, "/api/chat", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
}
