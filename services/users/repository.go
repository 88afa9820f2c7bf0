package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository define las operaciones de persistencia de usuarios
type UserRepository interface {
	// CreateUser inserta un usuario nuevo
	CreateUser(ctx context.Context, user *User) error

	// GetUser busca un usuario por id
	GetUser(ctx context.Context, userID string) (*User, error)

	// AppendPurchase agrega una compra al historial del usuario
	AppendPurchase(ctx context.Context, userID string, purchase Purchase) error
}

// MongoUserRepository implementa UserRepository sobre MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository crea el repositorio de usuarios
func NewUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		collection: db.Collection("usuarios"),
	}
}

// CreateUser inserta un usuario nuevo
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insertando usuario %s: %w", user.ID, err)
	}
	return nil
}

// GetUser busca un usuario por id
func (r *MongoUserRepository) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscando usuario %s: %w", userID, err)
	}
	return &user, nil
}

// AppendPurchase agrega una compra al historial del usuario
func (r *MongoUserRepository) AppendPurchase(ctx context.Context, userID string, purchase Purchase) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$push": bson.M{"historial_compras": purchase},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("actualizando historial de %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
