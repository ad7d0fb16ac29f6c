package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/converso/routing-service/internal/domain"
)

// TokenManager validates JWTs minted by the platform's identity service.
// This service never issues tokens; it only verifies the shared-secret
// signature and reads the workspace claims.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes the JWT payload carrying workspace scope.
type Claims struct {
	WorkspaceID string            `json:"workspace_id"`
	MemberID    string            `json:"member_id"`
	Role        domain.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.WorkspaceID == "" || claims.MemberID == "" {
		return nil, errors.New("token missing workspace scope")
	}
	return claims, nil
}
