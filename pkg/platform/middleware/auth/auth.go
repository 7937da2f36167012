package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/httputil"
	"agencyhub/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens. An error
// coded internal_error means the check itself could not run.
type JWTValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID string
	Email  string
	JTI    string
}

// RequireAuth rejects requests without a valid bearer token before any
// handler runs, and stores the caller's user id in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "No token, authorization denied"))
				return
			}

			claims, err := validator.ValidateToken(ctx, strings.TrimSpace(token))
			var domainErr *dErrors.Error
			if errors.As(err, &domainErr) && domainErr.Code == dErrors.CodeInternal {
				logger.ErrorContext(ctx, "token validation failed",
					"error", err,
					"request_id", requestID,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, err)
				return
			}
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Token is not valid"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
