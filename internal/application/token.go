package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenService issues and verifies the opaque signed tokens that carry an
// authenticated principal between requests. Tokens are stateless: a
// base64url-encoded claims document signed with HMAC-SHA256.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type tokenClaims struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

// NewTokenService constructs a token service with the provided signing secret
// and validity window.
func NewTokenService(secret string, ttl time.Duration, now func() time.Time) *TokenService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token embedding the principal's identity and role.
func (s *TokenService) Issue(principal Principal) (string, time.Time, error) {
	if s == nil || len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token service not configured")
	}

	expiresAt := s.now().Add(s.ttl)
	payload, err := json.Marshal(tokenClaims{
		UserID:    principal.UserID,
		Role:      principal.Role,
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.sign(encoded), expiresAt, nil
}

// Verify checks the signature and expiry of a token and returns its principal.
// Any malformed, tampered, or expired token fails with ErrUnauthenticated.
func (s *TokenService) Verify(token string) (Principal, error) {
	if s == nil || len(s.secret) == 0 {
		return Principal{}, fmt.Errorf("token service not configured")
	}

	encoded, signature, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || encoded == "" || signature == "" {
		return Principal{}, ErrUnauthenticated
	}

	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return Principal{}, ErrUnauthenticated
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Principal{}, ErrUnauthenticated
	}
	if claims.UserID == "" || !s.now().Before(time.Unix(claims.ExpiresAt, 0)) {
		return Principal{}, ErrUnauthenticated
	}

	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *TokenService) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
