package agency

import (
	"context"
	"sync"

	"agencyhub/internal/agency/models"
	"agencyhub/pkg/platform/sentinel"
)

// InMemoryStore keeps agencies keyed by agencyId.
type InMemoryStore struct {
	mu       sync.RWMutex
	agencies map[string]*models.Agency
}

func New() *InMemoryStore {
	return &InMemoryStore{agencies: make(map[string]*models.Agency)}
}

func (s *InMemoryStore) Create(_ context.Context, agency *models.Agency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agencies[agency.AgencyID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	stored := *agency
	s.agencies[agency.AgencyID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, agencyID string) (*models.Agency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.agencies[agencyID]; ok {
		found := *a
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, agencyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agencies[agencyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.agencies, agencyID)
	return nil
}

// Names returns agencyId -> name for every stored agency.
func (s *InMemoryStore) Names(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]string, len(s.agencies))
	for id, a := range s.agencies {
		names[id] = a.Name
	}
	return names, nil
}
