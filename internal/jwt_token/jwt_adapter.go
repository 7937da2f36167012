package jwttoken

import (
	"context"

	"github.com/google/uuid"

	authmodels "agencyhub/internal/auth/models"
	dErrors "agencyhub/pkg/domain-errors"
	authmw "agencyhub/pkg/platform/middleware/auth"
)

// UserAuthenticator resolves the user a token was issued to.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, userID uuid.UUID) (*authmodels.User, error)
}

func ToMiddlewareClaims(claims *Claims) *authmw.JWTClaims {
	return &authmw.JWTClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    claims.ID,
	}
}

type JWTServiceAdapter struct {
	service *JWTService
	users   UserAuthenticator
}

// NewJWTServiceAdapter adapts the token service to the bearer middleware.
// With a non-nil users, a token whose subject no longer resolves is rejected.
func NewJWTServiceAdapter(service *JWTService, users UserAuthenticator) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service, users: users}
}

func (a *JWTServiceAdapter) ValidateToken(ctx context.Context, tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if a.users != nil {
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
		}
		if _, err := a.users.Authenticate(ctx, userID); err != nil {
			return nil, err
		}
	}
	return ToMiddlewareClaims(claims), nil
}
