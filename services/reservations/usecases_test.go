package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newTestUseCase() (*ReservationUseCase, *MockInventoryReader, *MockLimitStore, *MockEventsAPI, *MockUsersAPI, *MockPaymentGateway, *MockRepository) {
	inventory := new(MockInventoryReader)
	limits := new(MockLimitStore)
	events := new(MockEventsAPI)
	users := new(MockUsersAPI)
	payments := new(MockPaymentGateway)
	repository := new(MockRepository)

	logger := zap.NewNop()
	tracer := noop.NewTracerProvider().Tracer("test")
	chain := NewReservationChain(inventory, limits, events, repository, logger)
	saga := NewSagaOrchestrator(repository, events, users, payments, logger, tracer)
	useCase := NewReservationUseCase(chain, saga, repository, logger)

	return useCase, inventory, limits, events, users, payments, repository
}

func TestSubmitReservationEndToEnd(t *testing.T) {
	useCase, inventory, limits, events, users, payments, repository := newTestUseCase()

	inventory.On("Peek", mock.Anything, "event-1").Return(int64(50), true, nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(activeEvent(50), nil)
	limits.On("Add", mock.Anything, "user-1", "event-1", 2).Return(2, nil)
	repository.On("CreateReservation", mock.Anything, mock.Anything).Return(nil)
	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("ReserveInventory", mock.Anything, "event-1", 2).Return(int64(48), nil)
	payments.On("Charge", mock.Anything, mock.Anything).Return(nil)
	users.On("AppendPurchase", mock.Anything, "user-1", mock.Anything).Return(nil)

	reservation, err := useCase.SubmitReservation(context.Background(), "user-1", "event-1", 2)

	require.NoError(t, err)
	require.NotNil(t, reservation)
	assert.Equal(t, ReservationStatusConfirmed, reservation.Status)
	assert.Equal(t, 60.0, reservation.TotalAmount)
}

func TestSubmitReservationChainFailureCreatesNothing(t *testing.T) {
	useCase, _, _, _, _, _, repository := newTestUseCase()

	reservation, err := useCase.SubmitReservation(context.Background(), "user-1", "event-1", 0)

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, reservation)
	repository.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
}

func TestSubmitReservationSagaFailureReturnsRecord(t *testing.T) {
	useCase, inventory, limits, events, users, _, repository := newTestUseCase()

	inventory.On("Peek", mock.Anything, "event-1").Return(int64(50), true, nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(&EventInfo{Price: 30, AvailableTickets: 50, Status: "cancelado"}, nil)
	limits.On("Add", mock.Anything, "user-1", "event-1", 1).Return(1, nil)
	repository.On("CreateReservation", mock.Anything, mock.Anything).Return(nil)
	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)

	reservation, err := useCase.SubmitReservation(context.Background(), "user-1", "event-1", 1)

	require.Error(t, err)
	require.NotNil(t, reservation)
	assert.Equal(t, ReservationStatusFailed, reservation.Status)
}

func TestGetReservationIsIdempotent(t *testing.T) {
	useCase, _, _, _, _, _, repository := newTestUseCase()

	stored := NewReservation("user-1", "event-1", 2, 30, 60)
	repository.On("GetReservation", mock.Anything, stored.ID).Return(stored, nil)

	first, err := useCase.GetReservation(context.Background(), stored.ID)
	require.NoError(t, err)
	second, err := useCase.GetReservation(context.Background(), stored.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetReservationNotFound(t *testing.T) {
	useCase, _, _, _, _, _, repository := newTestUseCase()

	repository.On("GetReservation", mock.Anything, "nope").Return(nil, ErrReservationNotFound)

	_, err := useCase.GetReservation(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
