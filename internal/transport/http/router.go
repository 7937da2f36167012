// Package httptransport assembles the public HTTP surface from the bounded
// context handlers.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	agencyhandler "agencyhub/internal/agency/handler"
	authhandler "agencyhub/internal/auth/handler"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/httputil"
	authmw "agencyhub/pkg/platform/middleware/auth"
	"agencyhub/pkg/platform/middleware/request"
	"agencyhub/pkg/platform/middleware/requesttime"
)

const healthMessage = "Agency-Client API is running!"

// Deps holds what the router mounts. Observer may be nil.
type Deps struct {
	Logger   *slog.Logger
	Observer request.StatusObserver
	Tokens   authmw.JWTValidator
	Auth     *authhandler.Handler
	Agencies *agencyhandler.Handler
}

// NewRouter mounts /api/auth publicly and puts /api/agencies and /api/clients
// behind the bearer token check.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Recover(d.Logger))
	r.Use(request.AccessLog(d.Logger, d.Observer))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": healthMessage})
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Route not found"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", d.Auth.Register)
		api.Group(func(protected chi.Router) {
			protected.Use(authmw.RequireAuth(d.Tokens, d.Logger))
			protected.Route("/agencies", d.Agencies.RegisterAgencies)
			protected.Route("/clients", d.Agencies.RegisterClients)
		})
	})
	return r
}
