// Package timescaledb keeps activity metrics in a TimescaleDB hypertable and
// answers summary and distribution queries over them.
package timescaledb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

const activityMetricsTable = "dashboard_activity_events"

var metricColumns = []string{"time", "metric_name", "owner", "tags"}

type MetricStore interface {
	StoreMetricEvents(ctx context.Context, events []model.MetricEvent) error
	Close()
}

type pgMetricStore struct {
	pool  *pgxpool.Pool
	table string
}

// schemaStatements creates the metrics table, turns it into a daily
// hypertable and indexes the query paths of the metric repository.
func schemaStatements(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			time TIMESTAMPTZ NOT NULL,
			metric_name TEXT NOT NULL,
			owner TEXT NOT NULL,
			tags JSONB
		)`, table),
		fmt.Sprintf(`SELECT create_hypertable('%s', 'time', if_not_exists => TRUE, chunk_time_interval => INTERVAL '1 day')`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_metric_owner_time_idx ON %s (metric_name, owner, time DESC)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_tags_idx ON %s USING GIN (tags)`, table, table),
	}
}

func connectPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.TimescaleDB.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid TimescaleDB DSN: %w", err)
	}

	var pool *pgxpool.Pool
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: creating TimescaleDB pool")
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			log.Warn().Err(err).Msg("Attempt failed: TimescaleDB ping")
			return err
		}
		pool = p
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 60 * time.Second
	if err := backoff.Retry(operation, connectBackoff); err != nil {
		return nil, fmt.Errorf("failed to connect to TimescaleDB: %w", err)
	}
	return pool, nil
}

// ProvideTimescaleDBPool returns nil store and pool when the activity
// pipeline is disabled.
func ProvideTimescaleDBPool(lc fx.Lifecycle, cfg *config.Config) (MetricStore, *pgxpool.Pool, error) {
	if !cfg.Activity.Enabled {
		return nil, nil, nil
	}
	pool, err := connectPool(cfg)
	if err != nil {
		log.Error().Err(err).Msg("TimescaleDB unavailable")
		return nil, nil, err
	}

	store := &pgMetricStore{pool: pool, table: activityMetricsTable}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info().Str("table", store.table).Msg("TimescaleDB activity metrics ready")

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Info().Msg("Closing TimescaleDB pool")
			store.Close()
			return nil
		},
	})
	return store, pool, nil
}

func (s *pgMetricStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		log.Warn().Err(err).Msg("Could not create timescaledb extension, assuming it is installed")
	}
	for i, stmt := range schemaStatements(s.table) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			// Indexes are an optimisation; the table and hypertable are not.
			if i >= 2 {
				log.Warn().Err(err).Str("table", s.table).Msg("Failed to create metrics index")
				continue
			}
			return fmt.Errorf("migrating %s: %w", s.table, err)
		}
	}
	return nil
}

// metricRow is the CopyFrom row of e. Tags that fail to encode are stored
// as NULL.
func metricRow(e model.MetricEvent) []any {
	var tags []byte
	if len(e.Tags) > 0 {
		encoded, err := json.Marshal(e.Tags)
		if err != nil {
			log.Warn().Err(err).Str("metric", e.MetricName).Msg("Dropping unencodable metric tags")
		} else {
			tags = encoded
		}
	}
	return []any{e.Time, e.MetricName, e.Owner, tags}
}

func (s *pgMetricStore) StoreMetricEvents(ctx context.Context, events []model.MetricEvent) error {
	if len(events) == 0 {
		return nil
	}
	source := pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
		return metricRow(events[i]), nil
	})
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.table}, metricColumns, source)
	if err != nil {
		log.Error().Err(err).Int("events", len(events)).Msg("TimescaleDB copy failed")
		return fmt.Errorf("copying %d metric events: %w", len(events), err)
	}
	log.Debug().Int64("rows", n).Msg("Stored activity metrics")
	return nil
}

func (s *pgMetricStore) Close() {
	s.pool.Close()
}
