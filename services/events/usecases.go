package main

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	eventCacheTTL = 2 * time.Minute
	listCacheTTL  = 5 * time.Minute
	listCacheKey  = "events:list"
)

// CreateEventInput son los datos para crear un evento
type CreateEventInput struct {
	Name          string
	Description   string
	Date          time.Time
	Venue         string
	TotalCapacity int
	Price         float64
	Category      string
}

// EventUseCase contiene la lógica de negocio de eventos e inventario
type EventUseCase struct {
	repository EventRepository
	ledger     *InventoryLedger
	cache      Cache
	logger     *zap.Logger
}

// NewEventUseCase crea el caso de uso de eventos
func NewEventUseCase(repository EventRepository, ledger *InventoryLedger, cache Cache, logger *zap.Logger) *EventUseCase {
	return &EventUseCase{
		repository: repository,
		ledger:     ledger,
		cache:      cache,
		logger:     logger,
	}
}

// CreateEvent persiste el evento y siembra su contador en el ledger
func (uc *EventUseCase) CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error) {
	event := NewEvent(input.Name, input.Description, input.Venue, input.Category, input.Date, input.TotalCapacity, input.Price)

	if err := uc.repository.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	if err := uc.ledger.Seed(ctx, event.ID, event.AvailableTickets); err != nil {
		return nil, err
	}
	if err := uc.cache.Del(ctx, listCacheKey); err != nil {
		uc.logger.Warn("⚠️ No se pudo invalidar el listado cacheado", zap.Error(err))
	}

	uc.logger.Info("🎫 Evento creado",
		zap.String("evento_id", event.ID),
		zap.String("nombre", event.Name),
		zap.Int("aforo_total", event.TotalCapacity),
	)
	return event, nil
}

// GetEvent devuelve el evento con la disponibilidad del ledger superpuesta
func (uc *EventUseCase) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	cacheKey := "event:" + eventID

	if cached, found, err := uc.cache.Get(ctx, cacheKey); err == nil && found {
		var event Event
		if err := json.Unmarshal([]byte(cached), &event); err == nil {
			return &event, nil
		}
	}

	event, err := uc.repository.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// El ledger tiene la disponibilidad real durante la ventana de venta
	if value, found, err := uc.ledger.Peek(ctx, eventID); err == nil && found {
		event.AvailableTickets = int(value)
	}

	if encoded, err := json.Marshal(event); err == nil {
		if err := uc.cache.Set(ctx, cacheKey, string(encoded), eventCacheTTL); err != nil {
			uc.logger.Warn("⚠️ No se pudo cachear el evento", zap.Error(err))
		}
	}
	return event, nil
}

// ListEvents devuelve todos los eventos, cacheados por unos minutos
func (uc *EventUseCase) ListEvents(ctx context.Context) ([]Event, error) {
	if cached, found, err := uc.cache.Get(ctx, listCacheKey); err == nil && found {
		var events []Event
		if err := json.Unmarshal([]byte(cached), &events); err == nil {
			return events, nil
		}
	}

	events, err := uc.repository.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(events); err == nil {
		if err := uc.cache.Set(ctx, listCacheKey, string(encoded), listCacheTTL); err != nil {
			uc.logger.Warn("⚠️ No se pudo cachear el listado", zap.Error(err))
		}
	}
	return events, nil
}

// ReserveInventory descuenta entradas del ledger e invalida el caché
func (uc *EventUseCase) ReserveInventory(ctx context.Context, eventID string, quantity int) (int64, error) {
	remaining, err := uc.ledger.Reserve(ctx, eventID, quantity)
	if err != nil {
		return remaining, err
	}
	uc.invalidateEvent(ctx, eventID)
	return remaining, nil
}

// ReleaseInventory devuelve entradas al ledger e invalida el caché
func (uc *EventUseCase) ReleaseInventory(ctx context.Context, eventID string, quantity int) (int64, error) {
	remaining, err := uc.ledger.Release(ctx, eventID, quantity)
	if err != nil {
		return remaining, err
	}
	uc.invalidateEvent(ctx, eventID)
	return remaining, nil
}

func (uc *EventUseCase) invalidateEvent(ctx context.Context, eventID string) {
	if err := uc.cache.Del(ctx, "event:"+eventID); err != nil {
		uc.logger.Warn("⚠️ No se pudo invalidar el evento cacheado",
			zap.String("evento_id", eventID),
			zap.Error(err),
		)
	}
}
