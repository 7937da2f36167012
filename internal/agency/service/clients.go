package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agencyhub/internal/agency/models"
	"agencyhub/internal/audit"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/sentinel"
	"agencyhub/pkg/requestcontext"
)

func (s *Service) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	defer s.observe("get_client", time.Now())
	ctx, span := tracer.Start(ctx, "agency.GetClient")
	defer span.End()

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Client not found")
		}
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to retrieve client"))
	}
	return client, nil
}

// ListClients returns every client, newest first.
func (s *Service) ListClients(ctx context.Context) ([]*models.Client, error) {
	defer s.observe("list_clients", time.Now())
	ctx, span := tracer.Start(ctx, "agency.ListClients")
	defer span.End()

	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to retrieve clients"))
	}
	if clients == nil {
		clients = []*models.Client{}
	}
	return clients, nil
}

// UpdateClient applies patch and returns the post-update record. A patch that
// reassigns the client must name an existing agency.
func (s *Service) UpdateClient(ctx context.Context, clientID string, patch models.ClientPatch) (*models.Client, error) {
	defer s.observe("update_client", time.Now())
	ctx, span := tracer.Start(ctx, "agency.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	if patch.AgencyID != nil {
		if _, err := s.agencies.FindByID(ctx, *patch.AgencyID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "Agency not found")
			}
			return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to update client"))
		}
	}

	updated, err := s.clients.Update(ctx, clientID, patch, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Client not found")
		}
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to update client"))
	}

	s.logger.InfoContext(ctx, "client updated",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"agency_id", updated.AgencyID,
	)
	s.emit(ctx, audit.Event{Action: audit.ActionClientUpdated, Subject: clientID})
	return updated, nil
}

// TopClientsPerAgency lists each agency's highest-billing clients, ties
// included, ordered by bill descending.
func (s *Service) TopClientsPerAgency(ctx context.Context) ([]models.TopClient, error) {
	defer s.observe("top_clients", time.Now())
	ctx, span := tracer.Start(ctx, "agency.TopClientsPerAgency")
	defer span.End()

	rows, err := s.analytics.TopClientsPerAgency(ctx)
	if err != nil {
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to retrieve top clients"))
	}
	if rows == nil {
		rows = []models.TopClient{}
	}
	return rows, nil
}
