package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agencyhub/internal/agency/models"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/httputil"
	"agencyhub/pkg/requestcontext"
)

// Service defines the agency and client operations exposed over HTTP.
type Service interface {
	Onboard(ctx context.Context, input models.AgencyInput, clients []models.ClientInput) (*models.OnboardResult, error)
	GetClient(ctx context.Context, clientID string) (*models.Client, error)
	ListClients(ctx context.Context) ([]*models.Client, error)
	UpdateClient(ctx context.Context, clientID string, patch models.ClientPatch) (*models.Client, error)
	TopClientsPerAgency(ctx context.Context) ([]models.TopClient, error)
}

// Handler serves /agencies and /clients. Both route groups expect to be
// mounted behind the auth middleware.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterAgencies(r chi.Router) {
	r.Post("/create-with-client", h.handleOnboard)
	r.Get("/top-clients", h.handleTopClients)
}

func (h *Handler) RegisterClients(r chi.Router) {
	r.Get("/", h.handleListClients)
	r.Get("/{clientId}", h.handleGetClient)
	r.Put("/{clientId}", h.handleUpdateClient)
}

func (h *Handler) handleOnboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.OnboardRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Onboard(ctx, *req.Agency, req.Clients)
	if err != nil {
		h.writeError(ctx, w, err, "failed to onboard agency")
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated,
		fmt.Sprintf("Agency and %d clients created successfully", res.Summary.TotalClients), res)
}

func (h *Handler) handleTopClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.service.TopClientsPerAgency(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "failed to rank top clients")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Top clients retrieved successfully", rows)
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clients, err := h.service.ListClients(ctx)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list clients")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", clients)
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client, err := h.service.GetClient(ctx, chi.URLParam(r, "clientId"))
	if err != nil {
		h.writeError(ctx, w, err, "failed to get client")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "", client)
}

func (h *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID := chi.URLParam(r, "clientId")
	var req models.UpdateClientRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(clientID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	client, err := h.service.UpdateClient(ctx, clientID, req.Patch())
	if err != nil {
		h.writeError(ctx, w, err, "failed to update client")
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Client updated successfully", client)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return false
	}
	return true
}

// writeError logs internal failures with their cause. The response carries
// only the operation message.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, logMsg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, logMsg,
			"request_id", requestcontext.RequestID(ctx),
			"user_id", requestcontext.UserID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
