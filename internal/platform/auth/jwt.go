package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/slotwise/service-scheduling/internal/domain/shared"
)

// Claims are the JWT claims issued by the platform's auth service. This
// service only verifies tokens; it never issues them.
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   shared.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager verifies HMAC-signed access tokens.
type JWTManager struct {
	secret []byte
}

// NewJWTManager creates a JWTManager with the shared signing secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret)}
}

// Verify parses and validates a token string and returns its claims.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("unknown role in token: %s", claims.Role)
	}
	return claims, nil
}

// Issue signs a token for the given user and role. Used by tests and local
// tooling; production tokens come from the auth service.
func (m *JWTManager) Issue(userID uuid.UUID, role shared.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
