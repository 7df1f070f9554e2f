package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/rs/zerolog/log"

	"dashgen-backend/config"
	"dashgen-backend/internal/dto"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/repository"
)

type elasticsearchActivityRepository struct {
	esTypedClient *elasticsearch.TypedClient
	indexPrefix   string
}

// NewElasticsearchActivityRepository returns nil when the activity pipeline
// is disabled.
func NewElasticsearchActivityRepository(cfg *config.Config) (repository.ActivityRepository, error) {
	if !cfg.Activity.Enabled {
		return nil, nil
	}
	typedClient, err := elasticsearch.NewTypedClient(clientConfig(cfg))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Typed Elasticsearch Client in Repository")
		return nil, err
	}
	return &elasticsearchActivityRepository{
		esTypedClient: typedClient,
		indexPrefix:   cfg.Elasticsearch.ActivityIndex,
	}, nil
}

func keywordTerms(field string, values []string) types.Query {
	terms := make([]types.FieldValue, len(values))
	for i, v := range values {
		terms[i] = v
	}
	return types.Query{
		Terms: &types.TermsQuery{
			TermsQuery: map[string]types.TermsQueryField{field: terms},
		},
	}
}

// buildSearchRequest translates req into a bool filter query sorted by time.
func buildSearchRequest(req dto.ActivitySearchRequest) *search.Request {
	startTimeStr := req.StartTime.UTC().Format(time.RFC3339)
	endTimeStr := req.EndTime.UTC().Format(time.RFC3339)

	queryParts := []types.Query{{
		Range: map[string]types.RangeQuery{
			"@timestamp": types.DateRangeQuery{
				Gte: &startTimeStr,
				Lte: &endTimeStr,
			},
		},
	}}
	if req.Query != "" {
		queryParts = append(queryParts, types.Query{
			QueryString: &types.QueryStringQuery{
				Query:           req.Query,
				Fields:          []string{"detail", "action", "owner", "dashboard_id", "component_id"},
				DefaultOperator: &operator.And,
			},
		})
	}
	if len(req.Actions) > 0 {
		queryParts = append(queryParts, keywordTerms("action", req.Actions))
	}
	if len(req.Owners) > 0 {
		queryParts = append(queryParts, keywordTerms("owner", req.Owners))
	}
	if req.DashboardID != "" {
		queryParts = append(queryParts, keywordTerms("dashboard_id", []string{req.DashboardID}))
	}

	from := (req.Page - 1) * req.Size
	size := req.Size
	order := sortorder.Desc
	if req.SortOrder == "asc" {
		order = sortorder.Asc
	}
	return &search.Request{
		Query: &types.Query{
			Bool: &types.BoolQuery{Filter: queryParts},
		},
		Size: &size,
		From: &from,
		Sort: []types.SortCombinations{
			types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					"@timestamp": {Order: &order},
				},
			},
		},
	}
}

func (r *elasticsearchActivityRepository) Search(ctx context.Context, req dto.ActivitySearchRequest) (*dto.ActivitySearchResponse, error) {
	indexPattern := fmt.Sprintf("%s-*", r.indexPrefix)
	res, err := r.esTypedClient.Search().
		Index(indexPattern).
		Request(buildSearchRequest(req)).
		Do(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error executing Elasticsearch search via TypedClient")
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}

	events := make([]model.ActivityEvent, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var event model.ActivityEvent
		if err := json.Unmarshal(hit.Source_, &event); err != nil {
			log.Error().Err(err).Msg("Error unmarshalling Elasticsearch hit source")
			continue
		}
		events = append(events, event)
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}
	response := &dto.ActivitySearchResponse{
		Events:     events,
		TotalCount: total,
		Page:       req.Page,
		Size:       req.Size,
	}
	log.Debug().Int64("total_hits", response.TotalCount).Int("returned_hits", len(events)).Msg("Elasticsearch search successful")
	return response, nil
}
