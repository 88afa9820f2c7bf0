package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const maxTicketsPerUser = 10

// ReservationRequest es el contexto mutable que recorre la cadena de validación
type ReservationRequest struct {
	UserID      string
	EventID     string
	Quantity    int
	UnitPrice   float64
	TotalAmount float64
	Reservation *Reservation
}

type stage func(ctx context.Context, req *ReservationRequest) error

// ReservationChain ejecuta las etapas de validación en orden fijo.
// Cualquier fallo corta la cadena; solo la última etapa persiste algo.
type ReservationChain struct {
	inventory  InventoryReader
	limits     PurchaseLimitStore
	events     EventsAPI
	repository Repository
	logger     *zap.Logger
}

// NewReservationChain crea la cadena de validación de reservas
func NewReservationChain(
	inventory InventoryReader,
	limits PurchaseLimitStore,
	events EventsAPI,
	repository Repository,
	logger *zap.Logger,
) *ReservationChain {
	return &ReservationChain{
		inventory:  inventory,
		limits:     limits,
		events:     events,
		repository: repository,
		logger:     logger,
	}
}

// Run ejecuta las etapas secuencialmente sobre el contexto de la solicitud
func (c *ReservationChain) Run(ctx context.Context, req *ReservationRequest) error {
	stages := []stage{
		c.validateInput,
		c.checkInventory,
		c.computePrice,
		c.enforcePurchaseLimit,
		c.createReservation,
	}
	for _, run := range stages {
		if err := run(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// Etapa 1: datos de entrada completos y cantidad entre 1 y 10
func (c *ReservationChain) validateInput(_ context.Context, req *ReservationRequest) error {
	if req.UserID == "" || req.EventID == "" || req.Quantity == 0 {
		return fmt.Errorf("%w: se requiere usuario_id, evento_id y cantidad", ErrInvalidRequest)
	}
	if req.Quantity < 1 || req.Quantity > maxTicketsPerUser {
		return fmt.Errorf("%w: la cantidad debe estar entre 1 y %d entradas", ErrInvalidRequest, maxTicketsPerUser)
	}
	return nil
}

// Etapa 2: chequeo previo de inventario. Es solo para fallar rápido;
// la admisión real ocurre en el paso de reserva de la saga.
func (c *ReservationChain) checkInventory(ctx context.Context, req *ReservationRequest) error {
	available, found, err := c.inventory.Peek(ctx, req.EventID)
	if err != nil {
		return err
	}
	if !found || available < int64(req.Quantity) {
		return fmt.Errorf("%w: solo hay %d entradas para el evento %s", ErrInsufficientInventory, available, req.EventID)
	}
	return nil
}

// Etapa 3: obtener el precio vigente y calcular el monto total
func (c *ReservationChain) computePrice(ctx context.Context, req *ReservationRequest) error {
	event, err := c.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return err
	}
	req.UnitPrice = event.Price
	req.TotalAmount = event.Price * float64(req.Quantity)
	c.logger.Info("💰 Precio calculado",
		zap.String("evento_id", req.EventID),
		zap.Float64("monto_total", req.TotalAmount),
	)
	return nil
}

// Etapa 4: límite de compra por usuario y evento, en ventana de 24h.
// El incremento atómico hace que de dos solicitudes concurrentes del
// mismo usuario solo pase la que cabe en el límite. Un incremento
// admitido es estado blando: si una etapa posterior falla no se
// revierte, expira con su TTL.
func (c *ReservationChain) enforcePurchaseLimit(ctx context.Context, req *ReservationRequest) error {
	total, err := c.limits.Add(ctx, req.UserID, req.EventID, req.Quantity)
	if err != nil {
		return err
	}
	if total > maxTicketsPerUser {
		if err := c.limits.Remove(ctx, req.UserID, req.EventID, req.Quantity); err != nil {
			c.logger.Warn("⚠️ No se pudo devolver el contador de límite",
				zap.String("usuario_id", req.UserID),
				zap.Error(err),
			)
		}
		return fmt.Errorf("%w: máximo %d entradas por usuario", ErrLimitExceeded, maxTicketsPerUser)
	}
	return nil
}

// Etapa 5: única etapa con efecto durable, crea la reserva (pendiente, iniciada)
func (c *ReservationChain) createReservation(ctx context.Context, req *ReservationRequest) error {
	reservation := NewReservation(req.UserID, req.EventID, req.Quantity, req.UnitPrice, req.TotalAmount)
	if err := c.repository.CreateReservation(ctx, reservation); err != nil {
		return fmt.Errorf("creando reserva: %w", err)
	}
	req.Reservation = reservation
	c.logger.Info("📝 Reserva creada", zap.String("reserva_id", reservation.ID))
	return nil
}
