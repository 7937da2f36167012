package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agencyhub/internal/audit"
	authmetrics "agencyhub/internal/auth/metrics"
	"agencyhub/internal/auth/models"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/sentinel"
	"agencyhub/pkg/requestcontext"
	"agencyhub/pkg/secrets"
)

var tracer = otel.Tracer("agencyhub/auth")

// UserStore persists credentials. Create returns sentinel.ErrAlreadyUsed when
// the email is taken.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// LockoutStore counts failed logins per key inside a sliding window.
type LockoutStore interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, error)
	TTL() time.Duration
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service registers users and exchanges credentials for access tokens.
type Service struct {
	users          UserStore
	tokens         TokenIssuer
	lockouts       LockoutStore
	maxFailures    int
	lockoutWindow  time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *authmetrics.Metrics
	hash           func(string) (string, error)
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

func WithMetrics(m *authmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLockout enables failed-login lockout after maxFailures within window.
func WithLockout(store LockoutStore, maxFailures int, window time.Duration) Option {
	return func(s *Service) {
		s.lockouts = store
		s.maxFailures = maxFailures
		s.lockoutWindow = window
	}
}

// WithPasswordHasher overrides bcrypt's default cost, mostly for tests.
func WithPasswordHasher(hash func(string) (string, error)) Option {
	return func(s *Service) {
		if hash != nil {
			s.hash = hash
		}
	}
}

func New(users UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		logger: slog.Default(),
		hash:   secrets.Hash,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a credential record. Duplicate emails yield CodeConflict.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "User already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user"))
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password"))
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "User already exists")
		}
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user"))
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.logger.InfoContext(ctx, "user registered",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID.String(),
	)
	s.emit(ctx, audit.Event{Action: audit.ActionUserRegistered, UserID: user.ID.String(), Subject: user.ID.String()})
	if s.metrics != nil {
		s.metrics.IncrementUsersRegistered()
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveLogin(start)
		}
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkLockout(ctx, req.Email); err != nil {
		s.countLogin("locked")
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejectLogin(ctx, req.Email)
		}
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user"))
	}
	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, s.rejectLogin(ctx, req.Email)
		}
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password"))
	}

	if s.lockouts != nil {
		if err := s.lockouts.Reset(ctx, req.Email); err != nil {
			s.logger.WarnContext(ctx, "failed to reset login failures",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
	}

	s.countLogin("success")
	s.logger.InfoContext(ctx, "user logged in",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID.String(),
	)
	s.emit(ctx, audit.Event{Action: audit.ActionUserLoggedIn, UserID: user.ID.String(), Subject: user.ID.String()})
	return &models.LoginResult{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      user.View(),
	}, nil
}

// Authenticate resolves the user behind a verified token subject. A user
// that no longer exists is unauthorized.
func (s *Service) Authenticate(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Token is not valid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

func (s *Service) checkLockout(ctx context.Context, email string) error {
	if s.lockouts == nil {
		return nil
	}
	failures, err := s.lockouts.Failures(ctx, email)
	if err != nil {
		// Lockout is advisory; an unavailable counter must not block logins.
		s.logger.WarnContext(ctx, "failed to read login failures",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil
	}
	if failures >= s.maxFailures {
		s.logger.WarnContext(ctx, "login locked out",
			"request_id", requestcontext.RequestID(ctx),
			"failures", failures,
		)
		return dErrors.New(dErrors.CodeTooManyRequests, "Too many failed login attempts, please try again later")
	}
	return nil
}

func (s *Service) rejectLogin(ctx context.Context, email string) error {
	s.countLogin("invalid")
	if s.lockouts != nil {
		if _, err := s.lockouts.RecordFailure(ctx, email, s.lockoutWindow); err != nil {
			s.logger.WarnContext(ctx, "failed to record login failure",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
	return dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementLogin(outcome)
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

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
