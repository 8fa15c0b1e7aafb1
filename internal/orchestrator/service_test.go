package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"go-feed-cache/internal/freshness"
	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/interfaces/mock"
	"go-feed-cache/internal/models"
	"go-feed-cache/internal/producer"
	"go-feed-cache/internal/resources"
	"go-feed-cache/internal/store"
	"go-feed-cache/internal/store/memory"
)

var trainsRule = freshness.Rule{Window: time.Minute, Offset: -time.Minute}

// countingProducer returns a producer yielding {"n": <call number>}
func countingProducer(calls *atomic.Int32) producer.Func {
	return func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		return map[string]int32{"n": n}, nil
	}
}

type fixture struct {
	service  *Service
	store    *memory.MemoryStore
	clock    *clockwork.FakeClock
	registry *resources.Registry
}

func newFixture(t *testing.T, coalesce bool, entries ...resources.Entry) *fixture {
	t.Helper()

	nyc, err := freshness.LoadLocation("America/New_York")
	require.NoError(t, err)

	registry := resources.NewRegistry()
	for _, entry := range entries {
		require.NoError(t, registry.Register(entry))
	}

	st := memory.NewMemoryStore()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 15, 30, 0, nyc))

	return &fixture{
		service:  NewService(freshness.NewPolicy(nyc), st, registry, clock, coalesce, zaptest.NewLogger(t)),
		store:    st,
		clock:    clock,
		registry: registry,
	}
}

func TestService_Get_TrainsScenario(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, true, resources.Entry{Name: "trains", Rule: trainsRule, Producer: countingProducer(&calls)})
	ctx := context.Background()

	// 10:15:30: miss on the 10:14 window
	env, err := f.service.Get(ctx, "trains", false)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, env.Status)
	assert.Equal(t, "trains_2024-01-01 10:14", env.Key)
	assert.Equal(t, "Mon Jan 1 2024 10:14 AM", env.LastUpdated)
	assert.JSONEq(t, `{"n":1}`, string(env.Result))
	assert.Equal(t, int32(1), calls.Load())

	// 10:15:45: same window, served from the store
	f.clock.Advance(15 * time.Second)
	env, err = f.service.Get(ctx, "trains", false)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusHit, env.Status)
	assert.Equal(t, "trains_2024-01-01 10:14", env.Key)
	assert.JSONEq(t, `{"n":1}`, string(env.Result))
	assert.Equal(t, int32(1), calls.Load())

	// 10:16:05: next window, old key swept and value recomputed
	f.clock.Advance(20 * time.Second)
	env, err = f.service.Get(ctx, "trains", false)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, env.Status)
	assert.Equal(t, "trains_2024-01-01 10:15", env.Key)
	assert.JSONEq(t, `{"n":2}`, string(env.Result))
	assert.Equal(t, int32(2), calls.Load())

	_, found, err := f.store.Get(ctx, "trains_2024-01-01 10:14")
	require.NoError(t, err)
	assert.False(t, found)

	keys, err := f.store.ScanPrefix(ctx, "trains_")
	require.NoError(t, err)
	assert.Equal(t, []string{"trains_2024-01-01 10:15"}, keys)
}

func TestService_Get_SweepLeavesOtherResources(t *testing.T) {
	var trainCalls, topicCalls atomic.Int32
	f := newFixture(t, true,
		resources.Entry{Name: "trains", Rule: trainsRule, Producer: countingProducer(&trainCalls)},
		resources.Entry{Name: "trains-north", Rule: trainsRule, Producer: countingProducer(&topicCalls)},
	)
	ctx := context.Background()

	_, err := f.service.Get(ctx, "trains", false)
	require.NoError(t, err)
	_, err = f.service.Get(ctx, "trains-north", false)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.service.Get(ctx, "trains", false)
	require.NoError(t, err)

	keys, err := f.store.ScanPrefix(ctx, "trains-north_")
	require.NoError(t, err)
	assert.Equal(t, []string{"trains-north_2024-01-01 10:14"}, keys)
}

func TestService_Warm_ThenGetHits(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, true, resources.Entry{Name: "news", Rule: freshness.Rule{Window: time.Hour}, Producer: countingProducer(&calls)})
	ctx := context.Background()

	require.NoError(t, f.service.Warm(ctx, "news"))
	assert.Equal(t, int32(1), calls.Load())

	env, err := f.service.Get(ctx, "news", false)

	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusHit, env.Status)
	assert.Equal(t, "news_2024-01-01 10:00", env.Key)
	assert.Equal(t, "Mon Jan 1 2024 10:00 AM", env.LastUpdated)
	assert.JSONEq(t, `{"n":1}`, string(env.Result))
	assert.Equal(t, int32(1), calls.Load())
}

func TestService_Warm_AlwaysRecomputes(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, true, resources.Entry{Name: "news", Rule: freshness.Rule{Window: time.Hour}, Producer: countingProducer(&calls)})
	ctx := context.Background()

	require.NoError(t, f.service.Warm(ctx, "news"))
	require.NoError(t, f.service.Warm(ctx, "news"))

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, f.store.Len())
}

func TestService_Get_ProducerErrorPropagates(t *testing.T) {
	upstream := errors.New("upstream returned 503")
	fail := false
	news := producer.Func(func(ctx context.Context) (any, error) {
		if fail {
			return nil, upstream
		}
		return []string{"headline"}, nil
	})
	f := newFixture(t, true, resources.Entry{Name: "news", Rule: freshness.Rule{Window: time.Hour}, Producer: news})
	ctx := context.Background()

	_, err := f.service.Get(ctx, "news", false)
	require.NoError(t, err)

	// Next window fails: the stale entry must not be served
	fail = true
	f.clock.Advance(time.Hour)

	env, err := f.service.Get(ctx, "news", false)

	assert.Nil(t, env)
	var producerErr *ProducerError
	require.True(t, errors.As(err, &producerErr))
	assert.Equal(t, "news", producerErr.Resource)
	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 0, f.store.Len())
}

func TestService_Get_UnknownResource(t *testing.T) {
	f := newFixture(t, true)

	env, err := f.service.Get(context.Background(), "planes", false)

	assert.Nil(t, env)
	assert.ErrorIs(t, err, ErrUnknownResource)
	assert.ErrorIs(t, f.service.Warm(context.Background(), "planes"), ErrUnknownResource)
}

func TestService_Get_ForceRefresh(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, true, resources.Entry{Name: "trains", Rule: trainsRule, Producer: countingProducer(&calls)})
	ctx := context.Background()

	_, err := f.service.Get(ctx, "trains", false)
	require.NoError(t, err)

	env, err := f.service.Get(ctx, "trains", true)

	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusRefresh, env.Status)
	assert.JSONEq(t, `{"n":2}`, string(env.Result))
	assert.Equal(t, int32(2), calls.Load())

	// The refreshed value replaces the cached one
	env, err = f.service.Get(ctx, "trains", false)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusHit, env.Status)
	assert.JSONEq(t, `{"n":2}`, string(env.Result))
}

func TestService_Get_CorruptEntryRecomputes(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, true, resources.Entry{Name: "trains", Rule: trainsRule, Producer: countingProducer(&calls)})
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, "trains_2024-01-01 10:14", []byte("{not json")))

	env, err := f.service.Get(ctx, "trains", false)

	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, env.Status)
	assert.JSONEq(t, `{"n":1}`, string(env.Result))

	val, found, err := f.store.Get(ctx, "trains_2024-01-01 10:14")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"n":1}`, string(val))
}

func TestService_Get_UnserializableValue(t *testing.T) {
	bad := producer.Func(func(ctx context.Context) (any, error) {
		return map[string]any{"ch": make(chan int)}, nil
	})
	f := newFixture(t, true, resources.Entry{Name: "news", Rule: freshness.Rule{Window: time.Hour}, Producer: bad})

	env, err := f.service.Get(context.Background(), "news", false)

	assert.Nil(t, env)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.Equal(t, 0, f.store.Len())
}

func TestService_Get_StoreUnavailableStillServes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	nyc, err := freshness.LoadLocation("America/New_York")
	require.NoError(t, err)

	mockStore := mock.NewMockStore(ctrl)
	mockProducer := mock.NewMockProducer(ctrl)
	down := store.Unavailable("keydb get", errors.New("connection refused"))

	registry := resources.NewRegistry()
	require.NoError(t, registry.Register(resources.Entry{Name: "trains", Rule: trainsRule, Producer: mockProducer}))

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 15, 30, 0, nyc))
	service := NewService(freshness.NewPolicy(nyc), mockStore, registry, clock, false, zaptest.NewLogger(t))

	// Mock expectations
	gomock.InOrder(
		mockStore.EXPECT().Get(gomock.Any(), "trains_2024-01-01 10:14").Return(nil, false, down),
		mockStore.EXPECT().ScanPrefix(gomock.Any(), "trains_").Return(nil, down),
		mockProducer.EXPECT().Produce(gomock.Any()).Return([]int{1, 2, 3}, nil),
		mockStore.EXPECT().Set(gomock.Any(), "trains_2024-01-01 10:14", []byte("[1,2,3]")).Return(down),
	)

	// Execute
	env, err := service.Get(context.Background(), "trains", false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, env.Status)
	assert.JSONEq(t, `[1,2,3]`, string(env.Result))
}

func TestService_Get_SweepDeletesScannedKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mock.NewMockStore(ctrl)
	mockProducer := mock.NewMockProducer(ctrl)

	registry := resources.NewRegistry()
	require.NoError(t, registry.Register(resources.Entry{Name: "news", Rule: freshness.Rule{Window: time.Hour}, Producer: mockProducer}))

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC))
	service := NewService(freshness.NewPolicy(time.UTC), mockStore, registry, clock, true, zaptest.NewLogger(t))

	// Mock expectations
	gomock.InOrder(
		mockStore.EXPECT().Get(gomock.Any(), "news_2024-01-01 15:00").Return(nil, false, nil),
		mockStore.EXPECT().ScanPrefix(gomock.Any(), "news_").
			Return([]string{"news_2024-01-01 13:00", "news_2024-01-01 14:00"}, nil),
		mockStore.EXPECT().Delete(gomock.Any(), "news_2024-01-01 13:00", "news_2024-01-01 14:00").Return(nil),
		mockProducer.EXPECT().Produce(gomock.Any()).Return("fresh", nil),
		mockStore.EXPECT().Set(gomock.Any(), "news_2024-01-01 15:00", []byte(`"fresh"`)).Return(nil),
	)

	// Execute
	env, err := service.Get(context.Background(), "news", false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Mon Jan 1 2024 3:00 PM", env.LastUpdated)
	assert.JSONEq(t, `"fresh"`, string(env.Result))
}

// blockingProducer counts calls and blocks each one until release is closed
func blockingProducer(calls *atomic.Int32, started chan<- struct{}, release <-chan struct{}) interfaces.Producer {
	return producer.Func(func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		started <- struct{}{}
		<-release
		return map[string]int32{"n": n}, nil
	})
}

func TestService_Get_CoalescedMisses(t *testing.T) {
	const requests = 8

	var calls atomic.Int32
	started := make(chan struct{}, requests)
	release := make(chan struct{})
	f := newFixture(t, true, resources.Entry{Name: "trains", Rule: trainsRule, Producer: blockingProducer(&calls, started, release)})

	var wg sync.WaitGroup
	results := make([]*models.Envelope, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env, err := f.service.Get(context.Background(), "trains", false)
			assert.NoError(t, err)
			results[i] = env
		}(i)
	}

	<-started
	// Give the remaining requests time to join the in-flight call; any that
	// arrive after it completes are served from the store instead
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, env := range results {
		require.NotNil(t, env)
		assert.JSONEq(t, `{"n":1}`, string(env.Result))
	}
}

func TestService_Get_UncoalescedMissesEachProduce(t *testing.T) {
	const requests = 4

	var calls atomic.Int32
	started := make(chan struct{}, requests)
	release := make(chan struct{})
	f := newFixture(t, false, resources.Entry{Name: "trains", Rule: trainsRule, Producer: blockingProducer(&calls, started, release)})

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Get(context.Background(), "trains", false)
			assert.NoError(t, err)
		}()
	}

	// Every request reaches the producer before any of them finishes
	for i := 0; i < requests; i++ {
		<-started
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(requests), calls.Load())
	assert.Equal(t, 1, f.store.Len())
}

func TestService_Resources(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, true,
		resources.Entry{Name: "trains", Rule: trainsRule, Producer: countingProducer(&calls)},
		resources.Entry{Name: "news", Rule: freshness.Rule{Window: time.Hour}, Producer: countingProducer(&calls)},
	)

	assert.Equal(t, []string{"news", "trains"}, f.service.Resources())
}

func TestProducerError(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&ProducerError{Resource: "news", Err: cause})

	assert.Equal(t, "producer for news failed: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}
