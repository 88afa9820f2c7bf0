package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UserUseCaseInterface define la interfaz para el caso de uso
type UserUseCaseInterface interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	AppendPurchase(ctx context.Context, userID string, purchase Purchase) error
}

// CreateUserRequest es el cuerpo de POST /api/users
type CreateUserRequest struct {
	DocumentType string `json:"tipo_documento" binding:"required,oneof=DNI Pasaporte Cedula Otro"`
	DocumentID   string `json:"nro_documento" binding:"required"`
	FirstName    string `json:"nombre" binding:"required"`
	LastName     string `json:"apellido" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
}

// AppendPurchaseRequest es el cuerpo de PUT /api/users/:usuario_id/compras
type AppendPurchaseRequest struct {
	EventID       string  `json:"evento_id" binding:"required"`
	ReservationID string  `json:"reserva_id" binding:"required"`
	Amount        float64 `json:"monto" binding:"min=0"`
}

// UserHandler contiene los handlers HTTP
type UserHandler struct {
	useCase UserUseCaseInterface
	tracer  trace.Tracer
}

// NewUserHandler crea los handlers del servicio de usuarios
func NewUserHandler(useCase UserUseCaseInterface, tracer trace.Tracer) *UserHandler {
	return &UserHandler{useCase: useCase, tracer: tracer}
}

// CreateUser registra un usuario nuevo
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_user")
	defer span.End()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.useCase.CreateUser(ctx, CreateUserInput{
		DocumentType: req.DocumentType,
		DocumentID:   req.DocumentID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Usuario ya existe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.String("usuario_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Usuario creado exitosamente",
		"usuario_id": user.ID,
		"email":      user.Email,
	})
}

// GetUser devuelve un usuario por id
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_user")
	defer span.End()

	userID := c.Param("usuario_id")
	span.SetAttributes(attribute.String("usuario_id", userID))

	user, err := h.useCase.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// AppendPurchase agrega una compra al historial del usuario
func (h *UserHandler) AppendPurchase(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "append_purchase")
	defer span.End()

	userID := c.Param("usuario_id")
	var req AppendPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("usuario_id", userID),
		attribute.String("reserva_id", req.ReservationID),
	)

	err := h.useCase.AppendPurchase(ctx, userID, Purchase{
		EventID:       req.EventID,
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Usuario no encontrado"})
			return
		}
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Historial actualizado"})
}

// HealthCheck verifica la salud del servicio
func (h *UserHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "users-service",
	})
}
