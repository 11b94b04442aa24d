package servicetoken

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is the default lifetime for internal service tokens.
	DefaultTokenTTL = 60 * time.Second
	// DefaultLeeway is clock skew tolerance for token validation.
	DefaultLeeway = 15 * time.Second
)

// Signer issues short-lived RS256 tokens for service-to-service calls.
type Signer struct {
	issuer string
	ttl    time.Duration
	key    *rsa.PrivateKey
}

// SignerOptions configures internal service token signing.
type SignerOptions struct {
	PrivateKeyPath string
	Issuer         string
	TTL            time.Duration
}

// Verifier validates internal service JWTs against audience and issuer allowlist.
type Verifier struct {
	audience       string
	allowedIssuers map[string]struct{}
	leeway         time.Duration
	key            *rsa.PublicKey
}

// VerifierOptions configures internal service token verification.
type VerifierOptions struct {
	PublicKeyPath  string
	Audience       string
	AllowedIssuers []string
	Leeway         time.Duration
}

// NewSignerWithOptions creates a signer using RS256.
func NewSignerWithOptions(opts SignerOptions) (*Signer, error) {
	opts.Issuer = strings.TrimSpace(opts.Issuer)
	if opts.Issuer == "" {
		return nil, errors.New("service token issuer is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTokenTTL
	}
	path := strings.TrimSpace(opts.PrivateKeyPath)
	if path == "" {
		return nil, errors.New("service token private key path is required")
	}
	key, err := loadRSAPrivateKeyFromPEMFile(path)
	if err != nil {
		return nil, fmt.Errorf("load internal jwt private key: %w", err)
	}
	return &Signer{
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		key:    key,
	}, nil
}

// Sign issues a token for the given audience.
func (s *Signer) Sign(audience string) (string, error) {
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return "", errors.New("service token audience is required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   s.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        randomHexID(12),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
}

// NewVerifierWithOptions creates a verifier using an RSA public key.
func NewVerifierWithOptions(opts VerifierOptions) (*Verifier, error) {
	audience := strings.TrimSpace(opts.Audience)
	if audience == "" {
		return nil, errors.New("service token audience is required")
	}
	issuers := make(map[string]struct{})
	for _, issuer := range opts.AllowedIssuers {
		issuer = strings.TrimSpace(issuer)
		if issuer == "" {
			continue
		}
		issuers[issuer] = struct{}{}
	}
	if len(issuers) == 0 {
		return nil, errors.New("at least one allowed issuer is required")
	}
	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = DefaultLeeway
	}
	path := strings.TrimSpace(opts.PublicKeyPath)
	if path == "" {
		return nil, errors.New("service token public key path is required")
	}
	pub, err := loadRSAPublicKeyFromPEMFile(path)
	if err != nil {
		return nil, fmt.Errorf("load internal jwt public key: %w", err)
	}
	return &Verifier{
		audience:       audience,
		allowedIssuers: issuers,
		leeway:         leeway,
		key:            pub,
	}, nil
}

// Verify validates token signature, expiry, audience, and issuer.
func (v *Verifier) Verify(token string) (jwt.RegisteredClaims, error) {
	claims := jwt.RegisteredClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, errors.New("token required")
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, errors.New("unsupported signing method")
		}
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	if _, ok := v.allowedIssuers[claims.Issuer]; !ok {
		return claims, errors.New("issuer not allowed")
	}
	if claims.ID == "" {
		return claims, errors.New("jti required")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return claims, errors.New("subject required")
	}
	return claims, nil
}

// BearerToken extracts a bearer token from request header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func randomHexID(nBytes int) string {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}

func loadRSAPrivateKeyFromPEMFile(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("invalid pem")
	}
	if pkcs1, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return pkcs1, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	privateKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not rsa")
	}
	return privateKey, nil
}

func loadRSAPublicKeyFromPEMFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("invalid pem")
	}
	pubAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := pubAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not rsa")
	}
	return pub, nil
}
