package timescaledb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/metrics"
	"dashgen-backend/internal/repository"
)

// distributionColumns maps a group-by dimension to its SQL expression.
var distributionColumns = map[string]string{
	"action":    "tags->>'action'",
	"owner":     "owner",
	"dashboard": "tags->>'dashboard_id'",
	"outcome":   "tags->>'outcome'",
}

type timescaleMetricRepository struct {
	pool       *pgxpool.Pool
	eventTable string
}

// NewTimescaleMetricRepository returns nil when there is no pool, which is
// the case when the activity pipeline is disabled.
func NewTimescaleMetricRepository(pool *pgxpool.Pool) repository.ActivityMetricRepository {
	if pool == nil {
		return nil
	}
	return &timescaleMetricRepository{
		pool:       pool,
		eventTable: activityMetricsTable,
	}
}

// whereClause builds the shared time range and owner filter; args start at $1.
func whereClause(req dto.ActivitySummaryRequest) (string, []any) {
	clauses := []string{"metric_name = $1", "time >= $2", "time < $3"}
	args := []any{metrics.MetricAction, req.StartTime, req.EndTime}
	if len(req.Owners) > 0 {
		placeholders := make([]string, len(req.Owners))
		for i, owner := range req.Owners {
			args = append(args, owner)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("owner IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(clauses, " AND "), args
}

func summarySQL(table, where string) string {
	return fmt.Sprintf(
		"SELECT tags->>'action' AS action, COUNT(*) AS total, COUNT(*) FILTER (WHERE tags->>'outcome' = 'error') AS errors FROM %s WHERE %s GROUP BY action",
		table, where)
}

func distributionSQL(table, where, groupExpr string, limitArg int) string {
	return fmt.Sprintf(
		"SELECT COALESCE(%s, '') AS group_key, COUNT(*) AS value FROM %s WHERE %s GROUP BY group_key ORDER BY value DESC, group_key ASC LIMIT $%d",
		groupExpr, table, where, limitArg)
}

func (r *timescaleMetricRepository) GetSummary(ctx context.Context, req dto.ActivitySummaryRequest) (*dto.ActivitySummaryResponse, error) {
	where, args := whereClause(req)
	query := summarySQL(r.eventTable, where)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to query activity summary")
		return nil, fmt.Errorf("summary query failed: %w", err)
	}
	defer rows.Close()

	resp := &dto.ActivitySummaryResponse{ByAction: map[string]int64{}}
	for rows.Next() {
		var action *string
		var total, errs int64
		if err := rows.Scan(&action, &total, &errs); err != nil {
			log.Error().Err(err).Msg("Failed to scan summary row")
			continue
		}
		key := "unknown"
		if action != nil {
			key = *action
		}
		resp.ByAction[key] += total
		resp.Total += total
		resp.Errors += errs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summary rows failed: %w", err)
	}
	return resp, nil
}

func (r *timescaleMetricRepository) GetDistribution(ctx context.Context, req dto.ActivityDistributionRequest) (*dto.ActivityDistributionResponse, error) {
	groupExpr, ok := distributionColumns[req.GroupBy]
	if !ok {
		return nil, fmt.Errorf("invalid groupBy: %s", req.GroupBy)
	}
	where, args := whereClause(dto.ActivitySummaryRequest{StartTime: req.StartTime, EndTime: req.EndTime, Owners: req.Owners})
	args = append(args, req.Limit)
	query := distributionSQL(r.eventTable, where, groupExpr, len(args))

	log.Debug().Str("query", query).Interface("args", args).Msg("Executing TimescaleDB distribution query")
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to execute distribution query")
		return nil, fmt.Errorf("distribution query failed: %w", err)
	}
	defer rows.Close()

	resp := &dto.ActivityDistributionResponse{GroupBy: req.GroupBy, Buckets: []dto.DistributionBucket{}}
	for rows.Next() {
		var b dto.DistributionBucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			log.Error().Err(err).Msg("Failed to scan distribution row")
			continue
		}
		resp.Buckets = append(resp.Buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distribution rows failed: %w", err)
	}
	return resp, nil
}
