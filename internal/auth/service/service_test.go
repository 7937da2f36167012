package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"agencyhub/internal/audit"
	authmetrics "agencyhub/internal/auth/metrics"
	"agencyhub/internal/auth/models"
	"agencyhub/internal/auth/store/lockout"
	"agencyhub/internal/auth/store/user"
	jwttoken "agencyhub/internal/jwt_token"
	dErrors "agencyhub/pkg/domain-errors"
	"agencyhub/pkg/platform/sentinel"
	"agencyhub/pkg/secrets"
)

type failingUserStore struct {
	*user.InMemoryUserStore
	createErr error
}

func (f *failingUserStore) Create(ctx context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.InMemoryUserStore.Create(ctx, u)
}

type ServiceSuite struct {
	suite.Suite
	users   *failingUserStore
	jwt     *jwttoken.JWTService
	sink    *audit.MemorySink
	metrics *authmetrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.users = &failingUserStore{InMemoryUserStore: user.New()}
	s.jwt = jwttoken.NewJWTService("test-key", "agencyhub", time.Hour)
	s.sink = audit.NewMemorySink()
	s.metrics = authmetrics.New(prometheus.NewRegistry())
	s.service = New(s.users, s.jwt,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(audit.NewPublisher(s.sink)),
		WithMetrics(s.metrics),
		WithLockout(lockout.NewInMemory(), 3, time.Minute),
		WithPasswordHasher(func(p string) (string, error) { return secrets.HashWithCost(p, bcrypt.MinCost) }),
	)
}

func (s *ServiceSuite) register(email string) *models.User {
	u, err := s.service.Register(context.Background(), models.RegisterRequest{
		Username: "jane", Email: email, Password: "secret1",
	})
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) TestRegister() {
	s.Run("creates user with normalized email and hashed password", func() {
		u := s.register(" Jane@Example.com ")
		s.Equal("jane@example.com", u.Email)
		s.NotEqual("secret1", u.PasswordHash)
		s.NoError(secrets.Verify("secret1", u.PasswordHash))
		s.Len(s.sink.BySubject(u.ID.String()), 1)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.UsersRegistered))
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.Register(context.Background(), models.RegisterRequest{
			Username: "other", Email: "JANE@example.com", Password: "secret2",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("store uniqueness violation is a conflict", func() {
		s.users.createErr = sentinel.ErrAlreadyUsed
		defer func() { s.users.createErr = nil }()
		_, err := s.service.Register(context.Background(), models.RegisterRequest{
			Username: "race", Email: "race@example.com", Password: "secret1",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("store failure is internal", func() {
		s.users.createErr = errors.New("disk full")
		defer func() { s.users.createErr = nil }()
		_, err := s.service.Register(context.Background(), models.RegisterRequest{
			Username: "broken", Email: "broken@example.com", Password: "secret1",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("invalid input is a validation error", func() {
		_, err := s.service.Register(context.Background(), models.RegisterRequest{Username: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.NotEmpty(dErrors.FieldsOf(err))
	})
}

func (s *ServiceSuite) TestLogin() {
	registered := s.register("login@example.com")

	s.Run("valid credentials issue a token for the user", func() {
		res, err := s.service.Login(context.Background(), models.LoginRequest{
			Email: "LOGIN@example.com", Password: "secret1",
		})
		s.Require().NoError(err)
		s.Equal(registered.ID.String(), res.User.ID)
		s.Equal(int64(3600), res.ExpiresIn)

		claims, err := s.jwt.ValidateToken(res.Token)
		s.Require().NoError(err)
		s.Equal(registered.ID.String(), claims.UserID)
	})

	s.Run("wrong password and unknown email look the same", func() {
		_, errPwd := s.service.Login(context.Background(), models.LoginRequest{Email: "login@example.com", Password: "nope"})
		_, errEmail := s.service.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "nope"})
		s.Require().ErrorIs(errPwd, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))
		s.Require().ErrorIs(errEmail, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))
	})
}

func (s *ServiceSuite) TestLoginLockout() {
	s.register("locked@example.com")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.service.Login(ctx, models.LoginRequest{Email: "locked@example.com", Password: "bad"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}

	_, err := s.service.Login(ctx, models.LoginRequest{Email: "locked@example.com", Password: "secret1"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Logins.WithLabelValues("locked")))
}

func (s *ServiceSuite) TestSuccessfulLoginClearsFailures() {
	s.register("reset@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = s.service.Login(ctx, models.LoginRequest{Email: "reset@example.com", Password: "bad"})
	}
	_, err := s.service.Login(ctx, models.LoginRequest{Email: "reset@example.com", Password: "secret1"})
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		_, _ = s.service.Login(ctx, models.LoginRequest{Email: "reset@example.com", Password: "bad"})
	}
	_, err = s.service.Login(ctx, models.LoginRequest{Email: "reset@example.com", Password: "secret1"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestAuthenticate() {
	u := s.register("auth@example.com")

	found, err := s.service.Authenticate(context.Background(), u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, found.Email)

	_, err = s.service.Authenticate(context.Background(), uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
