package servicetoken

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestKeyPair(t *testing.T) (privPath, pubPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	dir := t.TempDir()

	privPath = filepath.Join(dir, "private.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPath = filepath.Join(dir, "public.pem")
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	return privPath, pubPath
}

func TestSignAndVerify(t *testing.T) {
	privPath, pubPath := writeTestKeyPair(t)

	signer, err := NewSignerWithOptions(SignerOptions{
		PrivateKeyPath: privPath,
		Issuer:         "gateway",
		TTL:            time.Minute,
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := NewVerifierWithOptions(VerifierOptions{
		PublicKeyPath:  pubPath,
		Audience:       "api",
		AllowedIssuers: []string{"gateway"},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token, err := signer.Sign("api")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Issuer != "gateway" {
		t.Fatalf("issuer = %q, want gateway", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti claim")
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	privPath, pubPath := writeTestKeyPair(t)

	signer, err := NewSignerWithOptions(SignerOptions{
		PrivateKeyPath: privPath,
		Issuer:         "gateway",
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := NewVerifierWithOptions(VerifierOptions{
		PublicKeyPath:  pubPath,
		Audience:       "api",
		AllowedIssuers: []string{"gateway"},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token, err := signer.Sign("other-service")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected audience mismatch error")
	}
}

func TestVerifyRejectsUnknownIssuer(t *testing.T) {
	privPath, pubPath := writeTestKeyPair(t)

	signer, err := NewSignerWithOptions(SignerOptions{
		PrivateKeyPath: privPath,
		Issuer:         "rogue",
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := NewVerifierWithOptions(VerifierOptions{
		PublicKeyPath:  pubPath,
		Audience:       "api",
		AllowedIssuers: []string{"gateway"},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token, err := signer.Sign("api")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected issuer rejection")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(r); ok {
		t.Fatalf("expected no token without header")
	}
	r.Header.Set("Authorization", "Bearer abc")
	token, ok := BearerToken(r)
	if !ok || token != "abc" {
		t.Fatalf("token = %q ok=%v, want abc true", token, ok)
	}
	r.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(r); ok {
		t.Fatalf("expected no token for non-bearer scheme")
	}
}
