package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Estados de la reserva
const (
	ReservationStatusPending   = "pendiente"
	ReservationStatusConfirmed = "confirmada"
	ReservationStatusCancelled = "cancelada"
	ReservationStatusFailed    = "fallida"
)

// Estados de la transacción SAGA
const (
	SagaStateStarted      = "iniciada"
	SagaStateValidating   = "validando"
	SagaStateReserving    = "reservando"
	SagaStatePaying       = "pagando"
	SagaStateCompleted    = "completada"
	SagaStateCompensating = "compensando"
	SagaStateFailed       = "fallida"
)

// Pasos de la SAGA registrados en el log de la reserva
const (
	StepValidateUser     = "validar_usuario"
	StepValidateEvent    = "validar_evento"
	StepReserveInventory = "reservar_inventario"
	StepProcessPayment   = "procesar_pago"
	StepUpdateHistory    = "actualizar_historial"
)

const StepOutcomeSuccess = "exitoso"

// Orden de avance de saga_estado; compensando/fallida se manejan aparte.
var sagaOrder = map[string]int{
	SagaStateStarted:    0,
	SagaStateValidating: 1,
	SagaStateReserving:  2,
	SagaStatePaying:     3,
	SagaStateCompleted:  4,
}

// SagaStep es una entrada del log append-only de pasos completados
type SagaStep struct {
	Name      string    `json:"paso" bson:"paso"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Outcome   string    `json:"resultado" bson:"resultado"`
}

// Reservation representa una reserva de entradas y el estado de su SAGA
type Reservation struct {
	ID             string     `json:"reserva_id" bson:"_id"`
	UserID         string     `json:"usuario_id" bson:"usuario_id"`
	EventID        string     `json:"evento_id" bson:"evento_id"`
	Quantity       int        `json:"cantidad" bson:"cantidad"`
	UnitPrice      float64    `json:"precio_unitario" bson:"precio_unitario"`
	TotalAmount    float64    `json:"monto_total" bson:"monto_total"`
	Status         string     `json:"estado" bson:"estado"`
	SagaState      string     `json:"saga_estado" bson:"saga_estado"`
	CompletedSteps []SagaStep `json:"saga_pasos_completados" bson:"saga_pasos_completados"`
	ReservedAt     time.Time  `json:"fecha_reserva" bson:"fecha_reserva"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
}

// NewReservation crea una reserva en estado (pendiente, iniciada)
func NewReservation(userID, eventID string, quantity int, unitPrice, totalAmount float64) *Reservation {
	now := time.Now()
	return &Reservation{
		ID:             uuid.New().String(),
		UserID:         userID,
		EventID:        eventID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		TotalAmount:    totalAmount,
		Status:         ReservationStatusPending,
		SagaState:      SagaStateStarted,
		CompletedSteps: []SagaStep{},
		ReservedAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AdvanceSaga avanza saga_estado un paso hacia adelante; nunca retrocede ni salta
func (r *Reservation) AdvanceSaga(state string) error {
	next, ok := sagaOrder[state]
	if !ok {
		return fmt.Errorf("estado de saga desconocido: %s", state)
	}
	current, ok := sagaOrder[r.SagaState]
	if !ok {
		return fmt.Errorf("la saga no puede avanzar desde %s", r.SagaState)
	}
	if next != current+1 {
		return fmt.Errorf("transición de saga inválida: %s -> %s", r.SagaState, state)
	}
	r.SagaState = state
	r.UpdatedAt = time.Now()
	return nil
}

// BeginCompensation entra en compensando desde cualquier estado en vuelo
func (r *Reservation) BeginCompensation() error {
	if _, inFlight := sagaOrder[r.SagaState]; !inFlight || r.SagaState == SagaStateCompleted {
		return fmt.Errorf("no se puede compensar desde %s", r.SagaState)
	}
	r.SagaState = SagaStateCompensating
	r.UpdatedAt = time.Now()
	return nil
}

// FinishCompensation cierra la saga: la reserva queda fallida en ambos estados
func (r *Reservation) FinishCompensation() {
	r.Status = ReservationStatusFailed
	r.SagaState = SagaStateFailed
	r.UpdatedAt = time.Now()
}

// Confirm completa la saga y confirma la reserva
func (r *Reservation) Confirm() error {
	if err := r.AdvanceSaga(SagaStateCompleted); err != nil {
		return err
	}
	r.Status = ReservationStatusConfirmed
	return nil
}

// AppendStep agrega un paso completado al log de la saga
func (r *Reservation) AppendStep(name, outcome string) {
	r.CompletedSteps = append(r.CompletedSteps, SagaStep{
		Name:      name,
		Timestamp: time.Now(),
		Outcome:   outcome,
	})
	r.UpdatedAt = time.Now()
}

// HasStep indica si un paso figura en el log de pasos completados
func (r *Reservation) HasStep(name string) bool {
	for _, s := range r.CompletedSteps {
		if s.Name == name {
			return true
		}
	}
	return false
}
