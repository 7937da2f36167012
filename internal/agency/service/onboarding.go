package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"agencyhub/internal/agency/models"
	"agencyhub/internal/audit"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/sentinel"
	pkgstrings "agencyhub/pkg/platform/strings"
	"agencyhub/pkg/requestcontext"
)

const onboardFailedMessage = "Failed to create agency and clients"

// Onboard creates an agency together with its clients. Checks run in order
// and fail without side effects: clients present, agency id free, client ids
// free, client ids distinct. If the client batch fails after the agency was
// saved, any clients of the batch that landed and then the agency are
// deleted before the original error is returned.
func (s *Service) Onboard(ctx context.Context, input models.AgencyInput, clientInputs []models.ClientInput) (*models.OnboardResult, error) {
	defer s.observe("onboard", time.Now())
	ctx, span := tracer.Start(ctx, "agency.Onboard")
	defer span.End()
	span.SetAttributes(
		attribute.String("agency.id", input.AgencyID),
		attribute.Int("agency.client_count", len(clientInputs)),
	)

	if len(clientInputs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "Clients array is required and must contain at least one client")
	}

	if _, err := s.agencies.FindByID(ctx, input.AgencyID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "Agency with this ID already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, onboardFailedMessage))
	}

	clientIDs := make([]string, len(clientInputs))
	for i, c := range clientInputs {
		clientIDs[i] = c.ClientID
	}
	existing, err := s.clients.FindExistingIDs(ctx, clientIDs)
	if err != nil {
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, onboardFailedMessage))
	}
	if len(existing) > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "Client IDs already exist: "+strings.Join(inRequestOrder(clientIDs, existing), ", "))
	}

	if dups := pkgstrings.Duplicates(clientIDs); len(dups) > 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "Duplicate client IDs found in request: "+strings.Join(dups, ", "))
	}

	now := requestcontext.Now(ctx)
	agency := input.ToAgency(now)
	if err := s.agencies.Create(ctx, agency); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "Agency with this ID already exists")
		}
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, onboardFailedMessage))
	}

	clients := make([]*models.Client, len(clientInputs))
	for i, in := range clientInputs {
		clients[i] = in.ToClient(agency.AgencyID, now)
	}
	if err := s.clients.CreateMany(ctx, clients); err != nil {
		s.compensate(ctx, agency.AgencyID, clientIDs, err)
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			message := "Client IDs already exist"
			if taken := sentinel.ConflictingKeys(err); len(taken) > 0 {
				message += ": " + strings.Join(inRequestOrder(clientIDs, taken), ", ")
			}
			return nil, fail(span, dErrors.Wrap(err, dErrors.CodeConflict, message))
		}
		return nil, fail(span, dErrors.Wrap(err, dErrors.CodeInternal, onboardFailedMessage))
	}

	summary := models.Summarize(clients)
	s.logger.InfoContext(ctx, "agency onboarded",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"agency_id", agency.AgencyID,
		"clients", summary.TotalClients,
		"total_business_value", summary.TotalBusinessValue,
	)
	s.emit(ctx, audit.Event{
		Action:  audit.ActionAgencyOnboarded,
		Subject: agency.AgencyID,
		Details: map[string]string{
			"clients":              strconv.Itoa(summary.TotalClients),
			"total_business_value": strconv.FormatFloat(summary.TotalBusinessValue, 'f', -1, 64),
		},
	})
	if s.metrics != nil {
		s.metrics.IncrementOnboarded(len(clients))
	}

	return &models.OnboardResult{Agency: agency, Clients: clients, Summary: summary}, nil
}

// compensate undoes step 5 after a failed client batch. Only clients of this
// batch are removed. The agency is deleted only once no client references it,
// so a failed cleanup or a client moved onto it by a concurrent update keeps
// it. Failures are logged only; the caller always sees the insert error.
func (s *Service) compensate(ctx context.Context, agencyID string, clientIDs []string, cause error) {
	// The request may already be cancelled; the rollback must still run.
	ctx = context.WithoutCancel(ctx)
	requestID := requestcontext.RequestID(ctx)

	s.logger.WarnContext(ctx, "client batch failed, rolling back agency",
		"request_id", requestID,
		"agency_id", agencyID,
		"error", cause,
	)

	outcome, err := s.rollback(ctx, agencyID, clientIDs)
	switch {
	case err != nil:
		s.logger.ErrorContext(ctx, "rollback failed",
			"request_id", requestID,
			"agency_id", agencyID,
			"client_ids", clientIDs,
			"error", cause,
			"rollback_error", err,
		)
	case outcome == rollbackAgencyKept:
		s.logger.WarnContext(ctx, "rollback kept agency still referenced by clients",
			"request_id", requestID,
			"agency_id", agencyID,
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementRollback(outcome)
	}
	s.emit(ctx, audit.Event{
		Action:  audit.ActionAgencyRollback,
		Subject: agencyID,
		Details: map[string]string{"outcome": outcome},
	})
}

const (
	rollbackSuccess    = "success"
	rollbackFailure    = "failure"
	rollbackAgencyKept = "agency_kept"
)

func (s *Service) rollback(ctx context.Context, agencyID string, clientIDs []string) (string, error) {
	if _, err := s.clients.DeleteMany(ctx, agencyID, clientIDs); err != nil {
		return rollbackFailure, fmt.Errorf("delete batch clients: %w", err)
	}
	remaining, err := s.clients.CountByAgency(ctx, agencyID)
	if err != nil {
		return rollbackFailure, fmt.Errorf("count agency clients: %w", err)
	}
	if remaining > 0 {
		return rollbackAgencyKept, nil
	}
	if err := s.agencies.Delete(ctx, agencyID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return rollbackFailure, fmt.Errorf("delete agency: %w", err)
	}
	return rollbackSuccess, nil
}

// inRequestOrder reports each id of found once, ordered as in requested.
func inRequestOrder(requested, found []string) []string {
	hit := make(map[string]bool, len(found))
	for _, id := range found {
		hit[id] = true
	}
	ordered := make([]string, 0, len(found))
	for _, id := range pkgstrings.DedupeAndTrim(requested) {
		if hit[id] {
			ordered = append(ordered, id)
		}
	}
	return ordered
}
