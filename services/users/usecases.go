package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const userCacheTTL = 5 * time.Minute

// CreateUserInput son los datos para registrar un usuario
type CreateUserInput struct {
	DocumentType string
	DocumentID   string
	FirstName    string
	LastName     string
	Email        string
}

// UserUseCase contiene la lógica de negocio de usuarios
type UserUseCase struct {
	repository UserRepository
	rdb        *redis.Client
	logger     *zap.Logger
}

// NewUserUseCase crea el caso de uso de usuarios
func NewUserUseCase(repository UserRepository, rdb *redis.Client, logger *zap.Logger) *UserUseCase {
	return &UserUseCase{
		repository: repository,
		rdb:        rdb,
		logger:     logger,
	}
}

// CreateUser registra un usuario nuevo
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	user := NewUser(input.DocumentType, input.DocumentID, input.FirstName, input.LastName, input.Email)

	if err := uc.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.Info("👤 Usuario creado",
		zap.String("usuario_id", user.ID),
		zap.String("email", user.Email),
	)
	return user, nil
}

// GetUser devuelve el usuario, cacheado por unos minutos
func (uc *UserUseCase) GetUser(ctx context.Context, userID string) (*User, error) {
	cacheKey := "user:" + userID

	if cached, err := uc.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var user User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
	}

	user, err := uc.repository.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(user); err == nil {
		if err := uc.rdb.SetEX(ctx, cacheKey, string(encoded), userCacheTTL).Err(); err != nil {
			uc.logger.Warn("⚠️ No se pudo cachear el usuario", zap.Error(err))
		}
	}
	return user, nil
}

// AppendPurchase agrega una compra al historial e invalida el caché
func (uc *UserUseCase) AppendPurchase(ctx context.Context, userID string, purchase Purchase) error {
	if purchase.PurchasedAt.IsZero() {
		purchase.PurchasedAt = time.Now()
	}
	if err := uc.repository.AppendPurchase(ctx, userID, purchase); err != nil {
		return err
	}
	if err := uc.rdb.Del(ctx, "user:"+userID).Err(); err != nil {
		uc.logger.Warn("⚠️ No se pudo invalidar el usuario cacheado",
			zap.String("usuario_id", userID),
			zap.Error(err),
		)
	}
	uc.logger.Info("🧾 Historial actualizado",
		zap.String("usuario_id", userID),
		zap.String("reserva_id", purchase.ReservationID),
	)
	return nil
}
