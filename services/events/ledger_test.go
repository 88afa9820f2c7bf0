package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memCounterStore reproduce el primitivo atómico del ledger en memoria:
// cada operación es atómica bajo el mutex, igual que un comando de redis.
type memCounterStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{values: map[string]int64{}}
}

func (s *memCounterStore) Get(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.values[key]
	return value, found, nil
}

func (s *memCounterStore) SetNX(_ context.Context, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.values[key]; !found {
		s.values[key] = value
	}
	return nil
}

func (s *memCounterStore) DecrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] -= delta
	return s.values[key], nil
}

func (s *memCounterStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] += delta
	return s.values[key], nil
}

// fakeEventRepository registra las propagaciones asíncronas del ledger
type fakeEventRepository struct {
	mu     sync.Mutex
	event  *Event
	deltas []int
}

func (r *fakeEventRepository) CreateEvent(context.Context, *Event) error { return nil }

func (r *fakeEventRepository) GetEvent(context.Context, string) (*Event, error) {
	if r.event == nil {
		return nil, ErrEventNotFound
	}
	return r.event, nil
}

func (r *fakeEventRepository) ListEvents(context.Context) ([]Event, error) { return nil, nil }

func (r *fakeEventRepository) AdjustAvailability(_ context.Context, _ string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, delta)
	return nil
}

func (r *fakeEventRepository) deltaSum() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, d := range r.deltas {
		sum += d
	}
	return sum
}

func newTestLedger(capacity int) (*InventoryLedger, *memCounterStore, *fakeEventRepository) {
	counters := newMemCounterStore()
	repository := &fakeEventRepository{
		event: &Event{ID: "event-1", TotalCapacity: capacity, AvailableTickets: capacity, Status: EventStatusActive},
	}
	return NewInventoryLedger(counters, repository, zap.NewNop()), counters, repository
}

func TestLedgerReserveAndRelease(t *testing.T) {
	ledger, _, repository := newTestLedger(10)
	require.NoError(t, ledger.Seed(context.Background(), "event-1", 10))

	remaining, err := ledger.Reserve(context.Background(), "event-1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), remaining)

	remaining, err = ledger.Release(context.Background(), "event-1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)

	// La propagación es asíncrona; los deltas terminan sumando cero
	require.Eventually(t, func() bool {
		repository.mu.Lock()
		defer repository.mu.Unlock()
		return len(repository.deltas) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, repository.deltaSum())
}

func TestLedgerRejectsOverdraw(t *testing.T) {
	ledger, counters, _ := newTestLedger(5)
	require.NoError(t, ledger.Seed(context.Background(), "event-1", 5))

	_, err := ledger.Reserve(context.Background(), "event-1", 6)
	assert.ErrorIs(t, err, ErrInsufficientInventory)

	// El descuento fallido se deshace por completo
	value, found, err := counters.Get(context.Background(), "event:event-1:inventory")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5), value)
}

func TestLedgerLazySeedOnMiss(t *testing.T) {
	ledger, counters, _ := newTestLedger(20)

	// Sin Seed previo: se siembra desde el documento del evento
	remaining, err := ledger.Reserve(context.Background(), "event-1", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(16), remaining)

	value, found, _ := counters.Get(context.Background(), "event:event-1:inventory")
	require.True(t, found)
	assert.Equal(t, int64(16), value)
}

func TestLedgerSeedDoesNotOverwrite(t *testing.T) {
	ledger, counters, _ := newTestLedger(20)

	require.NoError(t, ledger.Seed(context.Background(), "event-1", 20))
	_, err := ledger.Reserve(context.Background(), "event-1", 5)
	require.NoError(t, err)

	// Un segundo Seed no pisa el valor vivo
	require.NoError(t, ledger.Seed(context.Background(), "event-1", 20))
	value, _, _ := counters.Get(context.Background(), "event:event-1:inventory")
	assert.Equal(t, int64(15), value)
}

func TestLedgerNeverOversellsUnderConcurrency(t *testing.T) {
	const capacity = 50
	const workers = 200

	ledger, counters, _ := newTestLedger(capacity)
	require.NoError(t, ledger.Seed(context.Background(), "event-1", capacity))

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Reserve(context.Background(), "event-1", 1); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, admitted)

	value, _, _ := counters.Get(context.Background(), "event:event-1:inventory")
	assert.Equal(t, int64(capacity-admitted), value)
}

func TestLedgerConcurrentMixedQuantities(t *testing.T) {
	const capacity = 100

	ledger, counters, _ := newTestLedger(capacity)
	require.NoError(t, ledger.Seed(context.Background(), "event-1", capacity))

	quantities := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	var wg sync.WaitGroup
	var mu sync.Mutex
	admittedTotal := 0

	for round := 0; round < 5; round++ {
		for _, quantity := range quantities {
			wg.Add(1)
			go func(quantity int) {
				defer wg.Done()
				if _, err := ledger.Reserve(context.Background(), "event-1", quantity); err == nil {
					mu.Lock()
					admittedTotal += quantity
					mu.Unlock()
				}
			}(quantity)
		}
	}
	wg.Wait()

	assert.LessOrEqual(t, admittedTotal, capacity)

	value, _, _ := counters.Get(context.Background(), "event:event-1:inventory")
	assert.Equal(t, int64(capacity-admittedTotal), value)
	assert.GreaterOrEqual(t, value, int64(0))
}

func TestLedgerCapacityOneTwoCompetingBuyers(t *testing.T) {
	ledger, counters, _ := newTestLedger(1)
	require.NoError(t, ledger.Seed(context.Background(), "event-1", 1))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = ledger.Reserve(context.Background(), "event-1", 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientInventory)
		}
	}
	assert.Equal(t, 1, winners)

	value, _, _ := counters.Get(context.Background(), "event:event-1:inventory")
	assert.Equal(t, int64(0), value)
}
