package main

import (
	"time"

	"github.com/google/uuid"
)

// Purchase es una entrada del historial de compras del usuario
type Purchase struct {
	EventID       string    `json:"evento_id" bson:"evento_id"`
	ReservationID string    `json:"reserva_id" bson:"reserva_id"`
	PurchasedAt   time.Time `json:"fecha_compra" bson:"fecha_compra"`
	Amount        float64   `json:"monto" bson:"monto"`
}

// User representa un usuario registrado con su historial de compras
type User struct {
	ID           string     `json:"usuario_id" bson:"_id"`
	DocumentType string     `json:"tipo_documento" bson:"tipo_documento"`
	DocumentID   string     `json:"nro_documento" bson:"nro_documento"`
	FirstName    string     `json:"nombre" bson:"nombre"`
	LastName     string     `json:"apellido" bson:"apellido"`
	Email        string     `json:"email" bson:"email"`
	Purchases    []Purchase `json:"historial_compras" bson:"historial_compras"`
	RegisteredAt time.Time  `json:"fecha_registro" bson:"fecha_registro"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// NewUser crea un usuario sin compras
func NewUser(documentType, documentID, firstName, lastName, email string) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New().String(),
		DocumentType: documentType,
		DocumentID:   documentID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Purchases:    []Purchase{},
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
