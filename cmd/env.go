package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fullstackslife/guild-scout-reports/internal/credibility"
	"github.com/fullstackslife/guild-scout-reports/internal/policy"
	"github.com/fullstackslife/guild-scout-reports/internal/reconcile"
	"github.com/fullstackslife/guild-scout-reports/internal/store"
)

// env bundles the wired engine, accumulator and store for a command run.
type env struct {
	Store       store.Store
	Engine      *reconcile.Engine
	Accumulator *credibility.Accumulator
}

func (e *env) Close() {
	// Let in-flight credibility updates land before the store goes away.
	e.Accumulator.Wait()
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "scout-reports.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		st.Close()
		return nil, err
	}

	acc := credibility.NewAccumulator(st,
		credibility.WithAccuracyThreshold(pol.AccuracyThreshold),
		credibility.WithPersistTimeout(time.Duration(cfg.Credibility.PersistTimeoutSecs)*time.Second),
	)

	return &env{
		Store:       st,
		Engine:      reconcile.NewEngine(reconcile.WithPolicy(pol)),
		Accumulator: acc,
	}, nil
}
