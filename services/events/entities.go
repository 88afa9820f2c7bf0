package main

import (
	"time"

	"github.com/google/uuid"
)

// Estados del evento
const (
	EventStatusActive    = "activo"
	EventStatusCancelled = "cancelado"
	EventStatusFinished  = "finalizado"
)

// Event representa un evento con su aforo y disponibilidad autoritativa.
// entradas_disponibles puede quedar momentáneamente detrás del ledger en
// redis; el ledger manda durante la ventana de reserva.
type Event struct {
	ID               string    `json:"evento_id" bson:"_id"`
	Name             string    `json:"nombre" bson:"nombre"`
	Description      string    `json:"descripcion" bson:"descripcion"`
	Date             time.Time `json:"fecha" bson:"fecha"`
	Venue            string    `json:"lugar" bson:"lugar"`
	TotalCapacity    int       `json:"aforo_total" bson:"aforo_total"`
	AvailableTickets int       `json:"entradas_disponibles" bson:"entradas_disponibles"`
	Price            float64   `json:"precio" bson:"precio"`
	Category         string    `json:"categoria" bson:"categoria"`
	Status           string    `json:"estado" bson:"estado"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// NewEvent crea un evento activo con las entradas disponibles igual al aforo
func NewEvent(name, description, venue, category string, date time.Time, totalCapacity int, price float64) *Event {
	now := time.Now()
	if category == "" {
		category = "Otro"
	}
	return &Event{
		ID:               uuid.New().String(),
		Name:             name,
		Description:      description,
		Date:             date,
		Venue:            venue,
		TotalCapacity:    totalCapacity,
		AvailableTickets: totalCapacity,
		Price:            price,
		Category:         category,
		Status:           EventStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
