package client

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"agencyhub/internal/agency/models"
	"agencyhub/pkg/platform/sentinel"
)

type entry struct {
	client *models.Client
	seq    uint64
}

// InMemoryStore keeps clients keyed by clientId. A batch insert is all or
// nothing. seq breaks createdAt ties so listing order is stable.
type InMemoryStore struct {
	mu      sync.RWMutex
	clients map[string]entry
	nextSeq uint64
}

func New() *InMemoryStore {
	return &InMemoryStore{clients: make(map[string]entry)}
}

func (s *InMemoryStore) CreateMany(_ context.Context, clients []*models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(clients))
	var taken []string
	for _, c := range clients {
		_, stored := s.clients[c.ClientID]
		_, repeated := seen[c.ClientID]
		if (stored || repeated) && !slices.Contains(taken, c.ClientID) {
			taken = append(taken, c.ClientID)
		}
		seen[c.ClientID] = struct{}{}
	}
	if len(taken) > 0 {
		return sentinel.AlreadyUsed(taken...)
	}
	for _, c := range clients {
		stored := *c
		s.nextSeq++
		s.clients[c.ClientID] = entry{client: &stored, seq: s.nextSeq}
	}
	return nil
}

func (s *InMemoryStore) FindExistingIDs(_ context.Context, clientIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []string
	reported := make(map[string]struct{})
	for _, id := range clientIDs {
		if _, ok := s.clients[id]; !ok {
			continue
		}
		if _, dup := reported[id]; dup {
			continue
		}
		reported[id] = struct{}{}
		found = append(found, id)
	}
	return found, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, clientID string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.clients[clientID]; ok {
		found := *e.client
		return &found, nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns all clients, newest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	entries := make([]entry, 0, len(s.clients))
	for _, e := range s.clients {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ci, cj := entries[i].client.CreatedAt, entries[j].client.CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]*models.Client, len(entries))
	for i, e := range entries {
		c := *e.client
		out[i] = &c
	}
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, clientID string, patch models.ClientPatch, now time.Time) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	updated := *e.client
	patch.Apply(&updated, now)
	s.clients[clientID] = entry{client: &updated, seq: e.seq}
	out := updated
	return &out, nil
}

// DeleteMany removes the listed clients that still belong to agencyID.
func (s *InMemoryStore) DeleteMany(_ context.Context, agencyID string, clientIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range clientIDs {
		if e, ok := s.clients[id]; ok && e.client.AgencyID == agencyID {
			delete(s.clients, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) CountByAgency(_ context.Context, agencyID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.clients {
		if e.client.AgencyID == agencyID {
			n++
		}
	}
	return n, nil
}
