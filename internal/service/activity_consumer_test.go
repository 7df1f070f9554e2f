package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashgen-backend/internal/metrics"
	"dashgen-backend/internal/model"
)

type queuedMessage struct {
	event *model.ActivityEvent
	msg   kafkaGo.Message
	err   error
}

type fakeActivityConsumer struct {
	mu        sync.Mutex
	queue     []queuedMessage
	committed []kafkaGo.Message
}

func (f *fakeActivityConsumer) FetchMessage(ctx context.Context) (*model.ActivityEvent, kafkaGo.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return next.event, next.msg, next.err
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, kafkaGo.Message{}, ctx.Err()
}

func (f *fakeActivityConsumer) CommitMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeActivityConsumer) Close() error { return nil }

type fakeEventStore struct {
	stored []model.ActivityEvent
	err    error
}

func (f *fakeEventStore) StoreEvents(_ context.Context, events []model.ActivityEvent) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, events...)
	return nil
}

func (f *fakeEventStore) Close(context.Context) error { return nil }

type fakeMetricStore struct {
	stored []model.MetricEvent
}

func (f *fakeMetricStore) StoreMetricEvents(_ context.Context, events []model.MetricEvent) error {
	f.stored = append(f.stored, events...)
	return nil
}

func (f *fakeMetricStore) Close() {}

func message(offset int64, event *model.ActivityEvent, err error) queuedMessage {
	return queuedMessage{
		event: event,
		msg:   kafkaGo.Message{Topic: "dashboard_activity", Offset: offset},
		err:   err,
	}
}

func newTestConsumerService(consumer *fakeActivityConsumer, events *fakeEventStore, metricStore *fakeMetricStore, batchSize int) *activityConsumerService {
	return &activityConsumerService{
		consumer:    consumer,
		eventStore:  events,
		metricStore: metricStore,
		extractor:   metrics.NewActivityExtractor(),
		batchSize:   batchSize,
		maxWaitTime: 20 * time.Millisecond,
		retryDelay:  time.Millisecond,
	}
}

func TestProcessBatch_StoresAndCommits(t *testing.T) {
	consumer := &fakeActivityConsumer{queue: []queuedMessage{
		message(1, &model.ActivityEvent{Owner: "alice", Action: model.ActionUpload, Outcome: model.OutcomeOK}, nil),
		message(2, nil, errors.New("bad json")),
		message(3, &model.ActivityEvent{Owner: "alice", Action: model.ActionGenerate, Outcome: model.OutcomeError}, nil),
	}}
	events := &fakeEventStore{}
	metricStore := &fakeMetricStore{}
	svc := newTestConsumerService(consumer, events, metricStore, 10)

	require.NoError(t, svc.processBatch(context.Background()))

	assert.Len(t, events.stored, 2)
	// one dashboard_action each plus an action_error for the failed generate
	assert.Len(t, metricStore.stored, 3)
	require.Len(t, consumer.committed, 3)
	assert.Equal(t, int64(2), consumer.committed[1].Offset)
}

func TestProcessBatch_StopsAtBatchSize(t *testing.T) {
	consumer := &fakeActivityConsumer{queue: []queuedMessage{
		message(1, &model.ActivityEvent{Action: model.ActionOpen}, nil),
		message(2, &model.ActivityEvent{Action: model.ActionOpen}, nil),
		message(3, &model.ActivityEvent{Action: model.ActionOpen}, nil),
	}}
	svc := newTestConsumerService(consumer, &fakeEventStore{}, &fakeMetricStore{}, 2)

	require.NoError(t, svc.processBatch(context.Background()))
	assert.Len(t, consumer.committed, 2)
	assert.Len(t, consumer.queue, 1)
}

func TestProcessBatch_StoreFailureSkipsCommit(t *testing.T) {
	consumer := &fakeActivityConsumer{queue: []queuedMessage{
		message(1, &model.ActivityEvent{Action: model.ActionOpen}, nil),
	}}
	events := &fakeEventStore{err: errors.New("es down")}
	svc := newTestConsumerService(consumer, events, &fakeMetricStore{}, 5)

	err := svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Empty(t, consumer.committed)
}

func TestProcessBatch_EmptyBatch(t *testing.T) {
	consumer := &fakeActivityConsumer{}
	svc := newTestConsumerService(consumer, &fakeEventStore{}, &fakeMetricStore{}, 5)

	require.NoError(t, svc.processBatch(context.Background()))
	assert.Empty(t, consumer.committed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	consumer := &fakeActivityConsumer{}
	svc := newTestConsumerService(consumer, &fakeEventStore{}, &fakeMetricStore{}, 5)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go svc.Run(ctx, &wg)
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer loop did not stop")
	}
}
