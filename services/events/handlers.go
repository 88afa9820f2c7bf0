package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventUseCaseInterface define la interfaz para el caso de uso
type EventUseCaseInterface interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	ReserveInventory(ctx context.Context, eventID string, quantity int) (int64, error)
	ReleaseInventory(ctx context.Context, eventID string, quantity int) (int64, error)
}

// CreateEventRequest es el cuerpo de POST /api/eventos
type CreateEventRequest struct {
	Name          string    `json:"nombre" binding:"required"`
	Description   string    `json:"descripcion" binding:"required"`
	Date          time.Time `json:"fecha" binding:"required"`
	Venue         string    `json:"lugar" binding:"required"`
	TotalCapacity int       `json:"aforo_total" binding:"required,min=1"`
	Price         float64   `json:"precio" binding:"min=0"`
	Category      string    `json:"categoria" binding:"omitempty,oneof=Concierto Conferencia Deportivo Teatro Otro"`
}

// InventoryRequest es el cuerpo de las operaciones de inventario
type InventoryRequest struct {
	Quantity int `json:"cantidad" binding:"required,gt=0"`
}

// EventHandler contiene los handlers HTTP
type EventHandler struct {
	useCase EventUseCaseInterface
	tracer  trace.Tracer
}

// NewEventHandler crea los handlers del servicio de eventos
func NewEventHandler(useCase EventUseCaseInterface, tracer trace.Tracer) *EventHandler {
	return &EventHandler{useCase: useCase, tracer: tracer}
}

// CreateEvent crea un evento y siembra su inventario
func (h *EventHandler) CreateEvent(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_event")
	defer span.End()

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.useCase.CreateEvent(ctx, CreateEventInput{
		Name:          req.Name,
		Description:   req.Description,
		Date:          req.Date,
		Venue:         req.Venue,
		TotalCapacity: req.TotalCapacity,
		Price:         req.Price,
		Category:      req.Category,
	})
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("evento_id", event.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Evento creado exitosamente",
		"evento_id": event.ID,
		"nombre":    event.Name,
	})
}

// ListEvents lista todos los eventos
func (h *EventHandler) ListEvents(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_events")
	defer span.End()

	events, err := h.useCase.ListEvents(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetEvent devuelve un evento con su disponibilidad actual
func (h *EventHandler) GetEvent(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_event")
	defer span.End()

	eventID := c.Param("evento_id")
	span.SetAttributes(attribute.String("evento_id", eventID))

	event, err := h.useCase.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Evento no encontrado"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

// ReserveInventory descuenta entradas de forma atómica (uso interno de la saga)
func (h *EventHandler) ReserveInventory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "reserve_inventory")
	defer span.End()

	eventID := c.Param("evento_id")
	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("evento_id", eventID),
		attribute.Int("cantidad", req.Quantity),
	)

	remaining, err := h.useCase.ReserveInventory(ctx, eventID, req.Quantity)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrInsufficientInventory):
			c.JSON(http.StatusConflict, gin.H{"error": "No hay suficientes entradas disponibles"})
		case errors.Is(err, ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Evento no encontrado"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":              "Inventario actualizado",
		"entradas_disponibles": remaining,
	})
}

// ReleaseInventory devuelve entradas al ledger (compensación de la saga)
func (h *EventHandler) ReleaseInventory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "release_inventory")
	defer span.End()

	eventID := c.Param("evento_id")
	var req InventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("evento_id", eventID),
		attribute.Int("cantidad", req.Quantity),
	)

	remaining, err := h.useCase.ReleaseInventory(ctx, eventID, req.Quantity)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":              "Inventario revertido",
		"entradas_disponibles": remaining,
	})
}

// HealthCheck verifica la salud del servicio
func (h *EventHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "events-service",
	})
}
