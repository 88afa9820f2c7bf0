package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository define las operaciones de persistencia de reservas
type Repository interface {
	// CreateReservation inserta una reserva nueva
	CreateReservation(ctx context.Context, reservation *Reservation) error

	// UpdateReservation persiste el estado completo de la reserva
	UpdateReservation(ctx context.Context, reservation *Reservation) error

	// GetReservation busca una reserva por id
	GetReservation(ctx context.Context, reservationID string) (*Reservation, error)
}

// MongoReservationRepository implementa Repository sobre MongoDB
type MongoReservationRepository struct {
	collection *mongo.Collection
}

// NewReservationRepository crea el repositorio de reservas
func NewReservationRepository(db *mongo.Database) Repository {
	return &MongoReservationRepository{
		collection: db.Collection("reservas"),
	}
}

// CreateReservation inserta una reserva nueva
func (r *MongoReservationRepository) CreateReservation(ctx context.Context, reservation *Reservation) error {
	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		return fmt.Errorf("insertando reserva %s: %w", reservation.ID, err)
	}
	return nil
}

// UpdateReservation reemplaza el documento completo de la reserva
func (r *MongoReservationRepository) UpdateReservation(ctx context.Context, reservation *Reservation) error {
	reservation.UpdatedAt = time.Now()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": reservation.ID}, reservation)
	if err != nil {
		return fmt.Errorf("actualizando reserva %s: %w", reservation.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("actualizando reserva %s: %w", reservation.ID, ErrReservationNotFound)
	}
	return nil
}

// GetReservation busca una reserva por id
func (r *MongoReservationRepository) GetReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	var reservation Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": reservationID}).Decode(&reservation)
	if err == mongo.ErrNoDocuments {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscando reserva %s: %w", reservationID, err)
	}
	return &reservation, nil
}
