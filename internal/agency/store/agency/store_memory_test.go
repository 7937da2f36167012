package agency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agencyhub/internal/agency/models"
	"agencyhub/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = New()
}

func newAgency(id, name string) *models.Agency {
	now := time.Now()
	return &models.Agency{AgencyID: id, Name: name, Address1: "1 Main", State: "CA", City: "LA", PhoneNumber: "5551234567", CreatedAt: now, UpdatedAt: now}
}

func (s *InMemoryStoreSuite) TestCreateFindDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newAgency("A1", "Acme")))

	found, err := s.store.FindByID(ctx, "A1")
	s.Require().NoError(err)
	s.Equal("Acme", found.Name)

	s.Require().ErrorIs(s.store.Create(ctx, newAgency("A1", "Other")), sentinel.ErrAlreadyUsed)

	s.Require().NoError(s.store.Delete(ctx, "A1"))
	_, err = s.store.FindByID(ctx, "A1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Delete(ctx, "A1"), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestNames() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newAgency("A1", "Acme")))
	s.Require().NoError(s.store.Create(ctx, newAgency("A2", "Globex")))

	names, err := s.store.Names(ctx)
	s.Require().NoError(err)
	s.Equal(map[string]string{"A1": "Acme", "A2": "Globex"}, names)
}
