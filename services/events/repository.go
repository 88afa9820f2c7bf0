package main

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository define las operaciones de persistencia de eventos
type EventRepository interface {
	// CreateEvent inserta un evento nuevo
	CreateEvent(ctx context.Context, event *Event) error

	// GetEvent busca un evento por id
	GetEvent(ctx context.Context, eventID string) (*Event, error)

	// ListEvents devuelve todos los eventos ordenados por fecha
	ListEvents(ctx context.Context) ([]Event, error)

	// AdjustAvailability aplica un delta a entradas_disponibles
	AdjustAvailability(ctx context.Context, eventID string, delta int) error
}

// MongoEventRepository implementa EventRepository sobre MongoDB
type MongoEventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository crea el repositorio de eventos
func NewEventRepository(db *mongo.Database) EventRepository {
	return &MongoEventRepository{
		collection: db.Collection("eventos"),
	}
}

// CreateEvent inserta un evento nuevo
func (r *MongoEventRepository) CreateEvent(ctx context.Context, event *Event) error {
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insertando evento %s: %w", event.ID, err)
	}
	return nil
}

// GetEvent busca un evento por id
func (r *MongoEventRepository) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	var event Event
	err := r.collection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscando evento %s: %w", eventID, err)
	}
	return &event, nil
}

// ListEvents devuelve todos los eventos ordenados por fecha
func (r *MongoEventRepository) ListEvents(ctx context.Context) ([]Event, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"fecha": 1}))
	if err != nil {
		return nil, fmt.Errorf("listando eventos: %w", err)
	}
	defer cursor.Close(ctx)

	events := []Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decodificando eventos: %w", err)
	}
	return events, nil
}

// AdjustAvailability aplica un delta a entradas_disponibles
func (r *MongoEventRepository) AdjustAvailability(ctx context.Context, eventID string, delta int) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$inc": bson.M{"entradas_disponibles": delta}},
	)
	if err != nil {
		return fmt.Errorf("ajustando disponibilidad de %s: %w", eventID, err)
	}
	if result.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}
