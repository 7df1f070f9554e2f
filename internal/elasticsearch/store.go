package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"dashgen-backend/config"
	"dashgen-backend/internal/model"
)

type ActivityStore interface {
	StoreEvents(ctx context.Context, events []model.ActivityEvent) error
	Close(ctx context.Context) error
}

type elasticActivityStore struct {
	client          *elasticsearch.Client
	bulkIndexer     esutil.BulkIndexer
	indexPrefix     string
	countSuccessful uint64
	countFailed     uint64
}

func newTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: time.Second * 10,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
	}
}

func clientConfig(cfg *config.Config) elasticsearch.Config {
	return elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: newTransport(),
	}
}

// Connect creates a client and waits, with exponential backoff, until the
// cluster answers Info.
func Connect(ctx context.Context, cfg *config.Config) (*elasticsearch.Client, error) {
	if len(cfg.Elasticsearch.Addresses) == 0 || cfg.Elasticsearch.Addresses[0] == "" {
		log.Error().Msg("Elasticsearch addresses are not configured.")
		return nil, errors.New("elasticsearch configuration missing")
	}
	var esClient *elasticsearch.Client
	operation := func() error {
		var err error
		esClient, err = elasticsearch.NewClient(clientConfig(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the Elasticsearch client")
			return err
		}
		res, err := esClient.Info(esClient.Info.WithContext(ctx))
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error during Elasticsearch Info() call (transport level)")
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			errMsg := fmt.Errorf("elasticsearch Info() returned error status: %s", res.Status())
			log.Warn().Err(errMsg).Msg("Attempt failed: Elasticsearch ping returned error status")
			return errMsg
		}
		log.Info().Str("server_info", res.String()).Msg("Elasticsearch client initialized and connection verified!")
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Msg("Attempting to connect to Elasticsearch with retries...")
	if err := backoff.Retry(operation, backoff.WithContext(connectBackoff, ctx)); err != nil {
		log.Error().Err(err).Msg("Failed to connect to Elasticsearch after multiple retries")
		return nil, err
	}
	return esClient, nil
}

// NewElasticActivityStore returns nil when the activity pipeline is disabled.
func NewElasticActivityStore(lc fx.Lifecycle, cfg *config.Config) (ActivityStore, error) {
	if !cfg.Activity.Enabled {
		return nil, nil
	}
	esClient, err := Connect(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	store := &elasticActivityStore{
		client:      esClient,
		indexPrefix: cfg.Elasticsearch.ActivityIndex,
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        esClient,
		Index:         IndexName(store.indexPrefix, time.Now()),
		NumWorkers:    cfg.Elasticsearch.BulkWorkers,
		FlushBytes:    cfg.Elasticsearch.FlushBytes,
		FlushInterval: cfg.Elasticsearch.FlushInterval,
		OnError: func(ctx context.Context, err error) {
			log.Error().Err(err).Msg("BulkIndexer error")
		},
		OnFlushStart: func(ctx context.Context) context.Context {
			log.Debug().Msg("BulkIndexer flush starting")
			return ctx
		},
		OnFlushEnd: func(ctx context.Context) {
			log.Debug().Msg("BulkIndexer flush ended")
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Error creating the BulkIndexer")
		return nil, err
	}
	store.bulkIndexer = bi
	log.Info().Str("index_prefix", store.indexPrefix).Msg("Elasticsearch BulkIndexer initialized")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Elasticsearch BulkIndexer...")
			return store.Close(ctx)
		},
	})
	return store, nil
}

// StoreEvents queues events on the bulk indexer, one daily index per event
// date.
func (s *elasticActivityStore) StoreEvents(ctx context.Context, events []model.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	var queueFailed int
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal activity event for Elasticsearch")
			atomic.AddUint64(&s.countFailed, 1)
			queueFailed++
			continue
		}
		err = s.bulkIndexer.Add(ctx, esutil.BulkIndexerItem{
			Action: "index",
			Index:  IndexName(s.indexPrefix, event.Timestamp),
			Body:   bytes.NewReader(data),
			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				atomic.AddUint64(&s.countSuccessful, 1)
			},
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				atomic.AddUint64(&s.countFailed, 1)
				if err != nil {
					log.Error().Err(err).Msg("Activity event indexing failed")
				} else {
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Activity event indexing failed")
				}
			},
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to add item to BulkIndexer")
			atomic.AddUint64(&s.countFailed, 1)
			queueFailed++
		}
	}
	log.Debug().Int("count", len(events)).Msg("Added activity events to Elasticsearch BulkIndexer queue")
	if queueFailed > 0 {
		return fmt.Errorf("%d of %d activity events could not be queued for indexing", queueFailed, len(events))
	}
	return nil
}

func (s *elasticActivityStore) Close(ctx context.Context) error {
	err := s.bulkIndexer.Close(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error closing BulkIndexer")
	}
	stats := s.bulkIndexer.Stats()
	log.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("added", stats.NumAdded).
		Uint64("flushed", stats.NumFlushed).
		Uint64("failed", stats.NumFailed).
		Uint64("requests", stats.NumRequests).
		Uint64("callback_successful", atomic.LoadUint64(&s.countSuccessful)).
		Uint64("callback_failed", atomic.LoadUint64(&s.countFailed)).
		Msg("Elasticsearch BulkIndexer final stats")
	return err
}

// IndexName returns the daily index for t, e.g. "dashboard-activity-2024-05-01".
func IndexName(prefix string, t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return fmt.Sprintf("%s-%s", prefix, t.UTC().Format("2006-01-02"))
}
