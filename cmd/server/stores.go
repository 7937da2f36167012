package main

import (
	"context"
	"fmt"
	"log/slog"

	agencyservice "agencyhub/internal/agency/service"
	agencystore "agencyhub/internal/agency/store/agency"
	"agencyhub/internal/agency/store/analytics"
	clientstore "agencyhub/internal/agency/store/client"
	authservice "agencyhub/internal/auth/service"
	userstore "agencyhub/internal/auth/store/user"
	"agencyhub/internal/platform/config"
	"agencyhub/internal/platform/mongo"
	"agencyhub/internal/platform/postgres"
)

// stores is the persistence selected by STORE_BACKEND.
type stores struct {
	users     authservice.UserStore
	agencies  agencyservice.AgencyStore
	clients   agencyservice.ClientStore
	analytics agencyservice.AnalyticsStore
	close     func(context.Context) error
}

func openStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.InfoContext(ctx, "using postgres store")
		return &stores{
			users:     userstore.NewPostgres(db),
			agencies:  agencystore.NewPostgres(db),
			clients:   clientstore.NewPostgres(db),
			analytics: analytics.NewPostgres(db),
			close:     func(context.Context) error { return db.Close() },
		}, nil

	case config.BackendMongo:
		client, db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.InfoContext(ctx, "using mongo store", "database", cfg.MongoDatabase)
		return &stores{
			users:     userstore.NewMongo(db),
			agencies:  agencystore.NewMongo(db),
			clients:   clientstore.NewMongo(db),
			analytics: analytics.NewMongo(db),
			close:     client.Disconnect,
		}, nil

	case config.BackendMemory:
		log.WarnContext(ctx, "using in-memory store; data is lost on restart")
		agencies := agencystore.New()
		clients := clientstore.New()
		return &stores{
			users:     userstore.New(),
			agencies:  agencies,
			clients:   clients,
			analytics: analytics.NewInMemory(agencies, clients),
			close:     func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
