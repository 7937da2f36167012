package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyhub/internal/auth/models"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/httputil"
	"agencyhub/pkg/requestcontext"
)

// Service defines the auth operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
}

// Handler serves /auth routes.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts the public auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.auth.Register(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to register user")
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "User registered successfully", user.View())
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.auth.Login(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to log in")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Login successful", res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid auth request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, logMsg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "Server error"))
		return
	}
	httputil.WriteError(w, err)
}
