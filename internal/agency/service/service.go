package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	agencymetrics "agencyhub/internal/agency/metrics"
	"agencyhub/internal/agency/models"
	"agencyhub/internal/audit"
	"agencyhub/pkg/requestcontext"
)

var tracer = otel.Tracer("agencyhub/agency")

// AgencyStore persists agencies. Create returns sentinel.ErrAlreadyUsed for a
// taken agencyId; FindByID and Delete return sentinel.ErrNotFound.
type AgencyStore interface {
	Create(ctx context.Context, agency *models.Agency) error
	FindByID(ctx context.Context, agencyID string) (*models.Agency, error)
	Delete(ctx context.Context, agencyID string) error
}

// ClientStore persists clients. CreateMany returns sentinel.ErrAlreadyUsed
// when any clientId is taken at write time, naming the ids through
// sentinel.KeyConflictError when the backend reports them. DeleteMany only
// removes listed clients still owned by the given agency.
type ClientStore interface {
	CreateMany(ctx context.Context, clients []*models.Client) error
	FindExistingIDs(ctx context.Context, clientIDs []string) ([]string, error)
	FindByID(ctx context.Context, clientID string) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
	Update(ctx context.Context, clientID string, patch models.ClientPatch, now time.Time) (*models.Client, error)
	DeleteMany(ctx context.Context, agencyID string, clientIDs []string) (int64, error)
	CountByAgency(ctx context.Context, agencyID string) (int64, error)
}

// AnalyticsStore answers the top-client-per-agency query.
type AnalyticsStore interface {
	TopClientsPerAgency(ctx context.Context) ([]models.TopClient, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs agency onboarding, client maintenance and the top-client query.
type Service struct {
	agencies       AgencyStore
	clients        ClientStore
	analytics      AnalyticsStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *agencymetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *agencymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(agencies AgencyStore, clients ClientStore, analytics AnalyticsStore, opts ...Option) *Service {
	s := &Service{
		agencies:  agencies,
		clients:   clients,
		analytics: analytics,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(event.Action),
			"error", err,
		)
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
