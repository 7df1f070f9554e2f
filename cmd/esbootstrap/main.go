// Command esbootstrap creates the index template used by the daily activity
// indices, so action, owner and dashboard_id are indexed as keywords.
package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"dashgen-backend/config"
	"dashgen-backend/internal/elasticsearch"
)

func activityTemplate(indexPrefix string) map[string]any {
	keyword := map[string]any{"type": "keyword"}
	return map[string]any{
		"index_patterns": []string{indexPrefix + "-*"},
		"template": map[string]any{
			"settings": map[string]any{
				"number_of_shards":   1,
				"number_of_replicas": 0,
			},
			"mappings": map[string]any{
				"dynamic": "true",
				"properties": map[string]any{
					"@timestamp":   map[string]any{"type": "date"},
					"session_id":   keyword,
					"owner":        keyword,
					"dashboard_id": keyword,
					"action":       keyword,
					"component_id": keyword,
					"outcome":      keyword,
					"filters":      map[string]any{"type": "flattened"},
					"detail":       map[string]any{"type": "text"},
				},
			},
		},
	}
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	es, err := elasticsearch.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating Elasticsearch client")
	}

	body, err := json.Marshal(activityTemplate(cfg.Elasticsearch.ActivityIndex))
	if err != nil {
		log.Fatal().Err(err).Msg("Error marshaling index template")
	}

	name := cfg.Elasticsearch.ActivityIndex + "-template"
	req := esapi.IndicesPutIndexTemplateRequest{
		Name: name,
		Body: strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, es)
	if err != nil {
		log.Fatal().Err(err).Str("template", name).Msg("Error creating index template")
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(res.Body)
		log.Fatal().Str("status", res.Status()).Str("response", string(detail)).Msg("Elasticsearch rejected the index template")
	}
	log.Info().Str("template", name).Str("pattern", cfg.Elasticsearch.ActivityIndex+"-*").Msg("Index template created")
}
