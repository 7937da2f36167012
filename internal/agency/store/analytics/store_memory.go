package analytics

import (
	"context"

	"agencyhub/internal/agency/models"
)

type ClientLister interface {
	List(ctx context.Context) ([]*models.Client, error)
}

type AgencyNamer interface {
	Names(ctx context.Context) (map[string]string, error)
}

// InMemory computes the top-client ranking over the in-memory stores.
type InMemory struct {
	clients  ClientLister
	agencies AgencyNamer
}

func NewInMemory(agencies AgencyNamer, clients ClientLister) *InMemory {
	return &InMemory{clients: clients, agencies: agencies}
}

func (a *InMemory) TopClientsPerAgency(ctx context.Context) ([]models.TopClient, error) {
	clients, err := a.clients.List(ctx)
	if err != nil {
		return nil, err
	}
	names, err := a.agencies.Names(ctx)
	if err != nil {
		return nil, err
	}
	// List is newest first; rank in creation order so ties read oldest first.
	for i, j := 0, len(clients)-1; i < j; i, j = i+1, j-1 {
		clients[i], clients[j] = clients[j], clients[i]
	}
	return models.RankTopClients(clients, names), nil
}
