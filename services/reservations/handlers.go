package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ReservationUseCaseInterface define la interfaz para el caso de uso
type ReservationUseCaseInterface interface {
	SubmitReservation(ctx context.Context, userID, eventID string, quantity int) (*Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (*Reservation, error)
}

// SubmitReservationRequest es el cuerpo de POST /api/reservar.
// Sin tags de binding: la etapa 1 de la cadena es la que valida.
type SubmitReservationRequest struct {
	UserID   string `json:"usuario_id"`
	EventID  string `json:"evento_id"`
	Quantity int    `json:"cantidad"`
}

// ReservationHandler contiene los handlers HTTP
type ReservationHandler struct {
	useCase      ReservationUseCaseInterface
	tracer       trace.Tracer
	requests     metric.Int64Counter
	sagaDuration metric.Float64Histogram
}

// NewReservationHandler crea los handlers del servicio de reservas
func NewReservationHandler(useCase ReservationUseCaseInterface, tracer trace.Tracer, meter metric.Meter) (*ReservationHandler, error) {
	requests, err := meter.Int64Counter("reservas_solicitadas_total")
	if err != nil {
		return nil, err
	}
	sagaDuration, err := meter.Float64Histogram("reserva_saga_duracion_segundos")
	if err != nil {
		return nil, err
	}
	return &ReservationHandler{
		useCase:      useCase,
		tracer:       tracer,
		requests:     requests,
		sagaDuration: sagaDuration,
	}, nil
}

// SubmitReservation inicia el proceso de reserva: cadena de validación + saga
func (h *ReservationHandler) SubmitReservation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "submit_reservation")
	defer span.End()

	var req SubmitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("usuario_id", req.UserID),
		attribute.String("evento_id", req.EventID),
		attribute.Int("cantidad", req.Quantity),
	)

	start := time.Now()
	reservation, err := h.useCase.SubmitReservation(ctx, req.UserID, req.EventID, req.Quantity)
	h.sagaDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		h.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("resultado", "rechazada")))
		h.writeFailure(c, reservation, err)
		return
	}

	h.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("resultado", "confirmada")))
	span.SetAttributes(attribute.String("reserva_id", reservation.ID))

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Reserva completada exitosamente",
		"reserva_id":  reservation.ID,
		"estado":      reservation.Status,
		"monto_total": reservation.TotalAmount,
		"cantidad":    reservation.Quantity,
	})
}

// writeFailure mapea la taxonomía de errores a códigos HTTP. Si la saga ya
// había creado la reserva, la respuesta incluye el id y la causa del fallo.
func (h *ReservationHandler) writeFailure(c *gin.Context, reservation *Reservation, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrInsufficientInventory):
		status = http.StatusConflict
	case errors.Is(err, ErrCompensationFailure):
		status = http.StatusInternalServerError
	case errors.Is(err, ErrUpstreamUnavailable) && reservation == nil:
		status = http.StatusBadGateway
	}

	body := gin.H{"error": err.Error()}
	if reservation != nil {
		body = gin.H{
			"error":      "La reserva no pudo ser completada",
			"detalle":    err.Error(),
			"reserva_id": reservation.ID,
			"estado":     reservation.Status,
		}
	}
	c.JSON(status, body)
}

// GetReservation devuelve el estado actual de una reserva
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_reservation")
	defer span.End()

	reservationID := c.Param("reserva_id")
	span.SetAttributes(attribute.String("reserva_id", reservationID))

	reservation, err := h.useCase.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reserva no encontrada"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// HealthCheck verifica la salud del servicio
func (h *ReservationHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reservations-service",
	})
}
