package main

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository simula la persistencia de reservas
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateReservation(ctx context.Context, reservation *Reservation) error {
	return m.Called(ctx, reservation).Error(0)
}

func (m *MockRepository) UpdateReservation(ctx context.Context, reservation *Reservation) error {
	return m.Called(ctx, reservation).Error(0)
}

func (m *MockRepository) GetReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

// MockEventsAPI simula al servicio de eventos
type MockEventsAPI struct {
	mock.Mock
}

func (m *MockEventsAPI) GetEvent(ctx context.Context, eventID string) (*EventInfo, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EventInfo), args.Error(1)
}

func (m *MockEventsAPI) ReserveInventory(ctx context.Context, eventID string, quantity int) (int64, error) {
	args := m.Called(ctx, eventID, quantity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventsAPI) ReleaseInventory(ctx context.Context, eventID string, quantity int) (int64, error) {
	args := m.Called(ctx, eventID, quantity)
	return args.Get(0).(int64), args.Error(1)
}

// MockUsersAPI simula al servicio de usuarios
type MockUsersAPI struct {
	mock.Mock
}

func (m *MockUsersAPI) GetUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUsersAPI) AppendPurchase(ctx context.Context, userID string, purchase PurchaseRecord) error {
	return m.Called(ctx, userID, purchase).Error(0)
}

// MockPaymentGateway simula al procesador de pagos
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Charge(ctx context.Context, reservation *Reservation) error {
	return m.Called(ctx, reservation).Error(0)
}

// MockInventoryReader simula la lectura del ledger
type MockInventoryReader struct {
	mock.Mock
}

func (m *MockInventoryReader) Peek(ctx context.Context, eventID string) (int64, bool, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

// MockLimitStore simula el contador de límite de compra
type MockLimitStore struct {
	mock.Mock
}

func (m *MockLimitStore) Add(ctx context.Context, userID, eventID string, quantity int) (int, error) {
	args := m.Called(ctx, userID, eventID, quantity)
	return args.Int(0), args.Error(1)
}

func (m *MockLimitStore) Remove(ctx context.Context, userID, eventID string, quantity int) error {
	return m.Called(ctx, userID, eventID, quantity).Error(0)
}
