package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
)

const collaboratorTimeout = 5 * time.Second

// EventInfo es la vista del evento que consume el proceso de reserva
type EventInfo struct {
	ID               string  `json:"evento_id"`
	Name             string  `json:"nombre"`
	Price            float64 `json:"precio"`
	AvailableTickets int     `json:"entradas_disponibles"`
	Status           string  `json:"estado"`
}

// PurchaseRecord es la entrada que se agrega al historial del usuario
type PurchaseRecord struct {
	EventID       string  `json:"evento_id"`
	ReservationID string  `json:"reserva_id"`
	Amount        float64 `json:"monto"`
}

// EventsAPI abstrae al servicio de eventos
type EventsAPI interface {
	GetEvent(ctx context.Context, eventID string) (*EventInfo, error)
	ReserveInventory(ctx context.Context, eventID string, quantity int) (int64, error)
	ReleaseInventory(ctx context.Context, eventID string, quantity int) (int64, error)
}

// UsersAPI abstrae al servicio de usuarios
type UsersAPI interface {
	GetUser(ctx context.Context, userID string) error
	AppendPurchase(ctx context.Context, userID string, purchase PurchaseRecord) error
}

// EventsClient implementa EventsAPI sobre HTTP
type EventsClient struct {
	http *resty.Client
}

// NewEventsClient crea un cliente del servicio de eventos con timeout acotado
func NewEventsClient(baseURL string) *EventsClient {
	return &EventsClient{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(collaboratorTimeout),
	}
}

// GetEvent obtiene el evento con precio, disponibilidad y estado actuales
func (c *EventsClient) GetEvent(ctx context.Context, eventID string) (*EventInfo, error) {
	var event EventInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&event).
		Get("/api/eventos/" + eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: consultando evento: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: evento %s respondió %d", ErrUpstreamUnavailable, eventID, resp.StatusCode())
	}
	return &event, nil
}

type inventoryResponse struct {
	AvailableTickets int64 `json:"entradas_disponibles"`
}

// ReserveInventory descuenta entradas del ledger de inventario del evento
func (c *EventsClient) ReserveInventory(ctx context.Context, eventID string, quantity int) (int64, error) {
	var result inventoryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{"cantidad": quantity}).
		SetResult(&result).
		Put("/api/eventos/" + eventID + "/inventario")
	if err != nil {
		return 0, fmt.Errorf("%w: reservando inventario: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode() == 409 {
		return 0, fmt.Errorf("%w: evento %s", ErrInsufficientInventory, eventID)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: inventario de %s respondió %d", ErrUpstreamUnavailable, eventID, resp.StatusCode())
	}
	return result.AvailableTickets, nil
}

// ReleaseInventory devuelve entradas al ledger (compensación)
func (c *EventsClient) ReleaseInventory(ctx context.Context, eventID string, quantity int) (int64, error) {
	var result inventoryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{"cantidad": quantity}).
		SetResult(&result).
		Put("/api/eventos/" + eventID + "/inventario/revertir")
	if err != nil {
		return 0, fmt.Errorf("%w: revirtiendo inventario: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: revertir en %s respondió %d", ErrUpstreamUnavailable, eventID, resp.StatusCode())
	}
	return result.AvailableTickets, nil
}

// UsersClient implementa UsersAPI sobre HTTP
type UsersClient struct {
	http *resty.Client
}

// NewUsersClient crea un cliente del servicio de usuarios con timeout acotado
func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{
		http: resty.New().SetBaseURL(baseURL).SetTimeout(collaboratorTimeout),
	}
}

// GetUser verifica que el usuario exista
func (c *UsersClient) GetUser(ctx context.Context, userID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/users/" + userID)
	if err != nil {
		return fmt.Errorf("%w: consultando usuario: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: usuario %s respondió %d", ErrUpstreamUnavailable, userID, resp.StatusCode())
	}
	return nil
}

// AppendPurchase agrega la compra al historial del usuario
func (c *UsersClient) AppendPurchase(ctx context.Context, userID string, purchase PurchaseRecord) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(purchase).
		Put("/api/users/" + userID + "/compras")
	if err != nil {
		return fmt.Errorf("%w: actualizando historial: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: historial de %s respondió %d", ErrUpstreamUnavailable, userID, resp.StatusCode())
	}
	return nil
}

// InventoryReader lee el valor actual del ledger, solo para chequeos previos
type InventoryReader interface {
	Peek(ctx context.Context, eventID string) (value int64, found bool, err error)
}

// PurchaseLimitStore lleva el contador de compras por usuario y evento.
// Add es atómico: dos solicitudes concurrentes del mismo usuario nunca
// observan el mismo total.
type PurchaseLimitStore interface {
	Add(ctx context.Context, userID, eventID string, quantity int) (total int, err error)
	Remove(ctx context.Context, userID, eventID string, quantity int) error
}

const purchaseLimitTTL = 24 * time.Hour

// RedisLimitStore implementa InventoryReader y PurchaseLimitStore sobre redis
type RedisLimitStore struct {
	rdb *redis.Client
}

// NewRedisLimitStore crea el acceso redis compartido del pipeline de validación
func NewRedisLimitStore(rdb *redis.Client) *RedisLimitStore {
	return &RedisLimitStore{rdb: rdb}
}

// Peek lee el inventario del evento sin reservarlo; no sirve para admitir
func (s *RedisLimitStore) Peek(ctx context.Context, eventID string) (int64, bool, error) {
	value, err := s.rdb.Get(ctx, inventoryKey(eventID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: leyendo inventario: %v", ErrUpstreamUnavailable, err)
	}
	return value, true, nil
}

// Add incrementa el contador y renueva la ventana de 24h; devuelve el total
func (s *RedisLimitStore) Add(ctx context.Context, userID, eventID string, quantity int) (int, error) {
	key := purchaseKey(userID, eventID)
	total, err := s.rdb.IncrBy(ctx, key, int64(quantity)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: actualizando límite de compra: %v", ErrUpstreamUnavailable, err)
	}
	if err := s.rdb.Expire(ctx, key, purchaseLimitTTL).Err(); err != nil {
		return 0, fmt.Errorf("%w: renovando ventana del límite: %v", ErrUpstreamUnavailable, err)
	}
	return int(total), nil
}

// Remove devuelve un incremento que no fue admitido
func (s *RedisLimitStore) Remove(ctx context.Context, userID, eventID string, quantity int) error {
	if err := s.rdb.DecrBy(ctx, purchaseKey(userID, eventID), int64(quantity)).Err(); err != nil {
		return fmt.Errorf("%w: devolviendo límite de compra: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func inventoryKey(eventID string) string {
	return "event:" + eventID + ":inventory"
}

func purchaseKey(userID, eventID string) string {
	return "user:" + userID + ":event:" + eventID + ":purchases"
}
