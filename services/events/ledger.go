package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CounterStore es el primitivo de contadores atómicos del ledger. Las
// mutaciones son atómicas a nivel del store: dos Reserve concurrentes
// nunca observan un read-modify-write parcial.
type CounterStore interface {
	Get(ctx context.Context, key string) (value int64, found bool, err error)
	SetNX(ctx context.Context, key string, value int64) error
	DecrBy(ctx context.Context, key string, delta int64) (int64, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
}

// RedisCounterStore implementa CounterStore sobre redis
type RedisCounterStore struct {
	rdb *redis.Client
}

// NewRedisCounterStore crea el store de contadores sobre redis
func NewRedisCounterStore(rdb *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb}
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	value, err := s.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

func (s *RedisCounterStore) SetNX(ctx context.Context, key string, value int64) error {
	return s.rdb.SetNX(ctx, key, value, 0).Err()
}

func (s *RedisCounterStore) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.rdb.DecrBy(ctx, key, delta).Result()
}

func (s *RedisCounterStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.rdb.IncrBy(ctx, key, delta).Result()
}

const propagationTimeout = 5 * time.Second

// InventoryLedger es el contador rápido de entradas por evento. Es la
// fuente de verdad para admitir reservas durante la ventana de venta;
// el documento del evento se actualiza de forma asíncrona.
type InventoryLedger struct {
	counters   CounterStore
	repository EventRepository
	logger     *zap.Logger
}

// NewInventoryLedger crea el ledger de inventario
func NewInventoryLedger(counters CounterStore, repository EventRepository, logger *zap.Logger) *InventoryLedger {
	return &InventoryLedger{
		counters:   counters,
		repository: repository,
		logger:     logger,
	}
}

// Seed inicializa el contador del evento; no pisa un valor existente
func (l *InventoryLedger) Seed(ctx context.Context, eventID string, available int) error {
	return l.counters.SetNX(ctx, inventoryKey(eventID), int64(available))
}

// Reserve descuenta qty del contador del evento. Si el resultado queda
// negativo deshace el descuento y devuelve ErrInsufficientInventory.
// Si el contador no existe, primero lo siembra desde el documento del
// evento. Devuelve el valor posterior al descuento.
func (l *InventoryLedger) Reserve(ctx context.Context, eventID string, quantity int) (int64, error) {
	key := inventoryKey(eventID)

	if _, found, err := l.counters.Get(ctx, key); err != nil {
		return 0, fmt.Errorf("leyendo ledger de %s: %w", eventID, err)
	} else if !found {
		event, err := l.repository.GetEvent(ctx, eventID)
		if err != nil {
			return 0, err
		}
		if err := l.counters.SetNX(ctx, key, int64(event.AvailableTickets)); err != nil {
			return 0, fmt.Errorf("sembrando ledger de %s: %w", eventID, err)
		}
	}

	remaining, err := l.counters.DecrBy(ctx, key, int64(quantity))
	if err != nil {
		return 0, fmt.Errorf("descontando inventario de %s: %w", eventID, err)
	}

	if remaining < 0 {
		// Deshacer el descuento local; el decremento atómico garantiza
		// que bajo concurrencia nunca se admite más que la capacidad.
		if _, err := l.counters.IncrBy(ctx, key, int64(quantity)); err != nil {
			l.logger.Error("❌ No se pudo deshacer el descuento",
				zap.String("evento_id", eventID),
				zap.Error(err),
			)
		}
		return remaining, fmt.Errorf("%w: evento %s", ErrInsufficientInventory, eventID)
	}

	l.propagate(eventID, -quantity)
	return remaining, nil
}

// Release devuelve qty al contador del evento; nunca falla para el llamador
func (l *InventoryLedger) Release(ctx context.Context, eventID string, quantity int) (int64, error) {
	remaining, err := l.counters.IncrBy(ctx, inventoryKey(eventID), int64(quantity))
	if err != nil {
		return 0, fmt.Errorf("devolviendo inventario de %s: %w", eventID, err)
	}
	l.propagate(eventID, quantity)
	return remaining, nil
}

// Peek lee el valor actual, solo para mostrar; no sirve para admitir
func (l *InventoryLedger) Peek(ctx context.Context, eventID string) (int64, bool, error) {
	return l.counters.Get(ctx, inventoryKey(eventID))
}

// propagate aplica el delta al documento del evento en segundo plano.
// Fire-and-forget: el fallo se registra y el documento queda detrás del
// ledger hasta la próxima propagación (consistencia eventual).
func (l *InventoryLedger) propagate(eventID string, delta int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), propagationTimeout)
		defer cancel()

		if err := l.repository.AdjustAvailability(ctx, eventID, delta); err != nil {
			l.logger.Error("❌ Propagación de inventario fallida",
				zap.String("evento_id", eventID),
				zap.Int("delta", delta),
				zap.Error(err),
			)
		}
	}()
}

func inventoryKey(eventID string) string {
	return "event:" + eventID + ":inventory"
}
