package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIPIgnoresForwardedFromUntrustedPeer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:4321"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")

	if got := ClientIP(r, nil); got != "203.0.113.9" {
		t.Fatalf("client ip = %q, want peer address", got)
	}
}

func TestClientIPUsesForwardedFromTrustedProxy(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("parse trusted proxies: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:4321"
	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.9.9.9")

	if got := ClientIP(r, trusted); got != "198.51.100.7" {
		t.Fatalf("client ip = %q, want first untrusted hop", got)
	}
}

func TestNewTrustedProxiesRejectsGarbage(t *testing.T) {
	if _, err := NewTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatalf("expected parse error")
	}
}
