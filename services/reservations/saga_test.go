package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newTestSaga() (*SagaOrchestrator, *MockRepository, *MockEventsAPI, *MockUsersAPI, *MockPaymentGateway) {
	repository := new(MockRepository)
	events := new(MockEventsAPI)
	users := new(MockUsersAPI)
	payments := new(MockPaymentGateway)
	saga := NewSagaOrchestrator(repository, events, users, payments, zap.NewNop(), noop.NewTracerProvider().Tracer("test"))
	return saga, repository, events, users, payments
}

func activeEvent(available int) *EventInfo {
	return &EventInfo{ID: "event-1", Price: 30, AvailableTickets: available, Status: "activo"}
}

func TestSagaHappyPath(t *testing.T) {
	saga, repository, events, users, payments := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 2, 30, 60)

	var sagaStates []string
	repository.On("UpdateReservation", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sagaStates = append(sagaStates, args.Get(1).(*Reservation).SagaState)
		}).
		Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(activeEvent(10), nil)
	events.On("ReserveInventory", mock.Anything, "event-1", 2).Return(int64(8), nil)
	payments.On("Charge", mock.Anything, reservation).Return(nil)
	users.On("AppendPurchase", mock.Anything, "user-1", PurchaseRecord{
		EventID:       "event-1",
		ReservationID: reservation.ID,
		Amount:        60,
	}).Return(nil)

	err := saga.Execute(context.Background(), reservation)

	require.NoError(t, err)
	assert.Equal(t, ReservationStatusConfirmed, reservation.Status)
	assert.Equal(t, SagaStateCompleted, reservation.SagaState)
	for _, step := range []string{StepValidateUser, StepValidateEvent, StepReserveInventory, StepProcessPayment, StepUpdateHistory} {
		assert.True(t, reservation.HasStep(step), "missing step %s", step)
	}

	// saga_estado solo avanza hacia adelante, sin saltos
	var previous int
	for _, state := range sagaStates {
		position, ok := sagaOrder[state]
		require.True(t, ok, "unexpected saga state %s", state)
		assert.GreaterOrEqual(t, position, previous)
		assert.LessOrEqual(t, position-previous, 1)
		previous = position
	}
	assert.Equal(t, SagaStateCompleted, sagaStates[len(sagaStates)-1])

	events.AssertNotCalled(t, "ReleaseInventory", mock.Anything, mock.Anything, mock.Anything)
}

func TestSagaAbortsWhenEventInactive(t *testing.T) {
	saga, repository, events, users, _ := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 1, 30, 30)

	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(&EventInfo{Price: 30, AvailableTickets: 5, Status: "cancelado"}, nil)

	err := saga.Execute(context.Background(), reservation)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no está activo")
	assert.Equal(t, ReservationStatusFailed, reservation.Status)
	assert.Equal(t, SagaStateFailed, reservation.SagaState)

	// No hubo descuento, no hay nada que revertir
	assert.False(t, reservation.HasStep(StepReserveInventory))
	events.AssertNotCalled(t, "ReserveInventory", mock.Anything, mock.Anything, mock.Anything)
	events.AssertNotCalled(t, "ReleaseInventory", mock.Anything, mock.Anything, mock.Anything)
}

func TestSagaAbortsWhenInventoryInsufficient(t *testing.T) {
	saga, repository, events, users, _ := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 4, 30, 120)

	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(activeEvent(10), nil)
	events.On("ReserveInventory", mock.Anything, "event-1", 4).Return(int64(-1), ErrInsufficientInventory)

	err := saga.Execute(context.Background(), reservation)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Equal(t, ReservationStatusFailed, reservation.Status)

	// El descuento falló: el paso no quedó en el log y no se revierte
	assert.False(t, reservation.HasStep(StepReserveInventory))
	events.AssertNotCalled(t, "ReleaseInventory", mock.Anything, mock.Anything, mock.Anything)
}

func TestSagaCompensatesAfterPaymentFailure(t *testing.T) {
	saga, repository, events, users, payments := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 3, 30, 90)

	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(activeEvent(10), nil)
	events.On("ReserveInventory", mock.Anything, "event-1", 3).Return(int64(7), nil)
	payments.On("Charge", mock.Anything, reservation).Return(errors.New("pago rechazado por el procesador"))
	events.On("ReleaseInventory", mock.Anything, "event-1", 3).Return(int64(10), nil)

	err := saga.Execute(context.Background(), reservation)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pago rechazado")
	assert.Equal(t, ReservationStatusFailed, reservation.Status)
	assert.Equal(t, SagaStateFailed, reservation.SagaState)

	// La compensación devuelve exactamente la cantidad reservada
	events.AssertCalled(t, "ReleaseInventory", mock.Anything, "event-1", 3)
	users.AssertNotCalled(t, "AppendPurchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestSagaHistoryFailureIsNonFatal(t *testing.T) {
	saga, repository, events, users, payments := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 1, 30, 30)

	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(activeEvent(10), nil)
	events.On("ReserveInventory", mock.Anything, "event-1", 1).Return(int64(9), nil)
	payments.On("Charge", mock.Anything, reservation).Return(nil)
	users.On("AppendPurchase", mock.Anything, "user-1", mock.Anything).Return(ErrUpstreamUnavailable)

	err := saga.Execute(context.Background(), reservation)

	require.NoError(t, err)
	assert.Equal(t, ReservationStatusConfirmed, reservation.Status)
	assert.Equal(t, SagaStateCompleted, reservation.SagaState)
	assert.False(t, reservation.HasStep(StepUpdateHistory))
	events.AssertNotCalled(t, "ReleaseInventory", mock.Anything, mock.Anything, mock.Anything)
}

func TestSagaCompensatesWhenConfirmPersistFails(t *testing.T) {
	saga, repository, events, users, payments := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 2, 30, 60)

	// Solo falla la persistencia de la confirmación final
	repository.On("UpdateReservation", mock.Anything, mock.MatchedBy(func(r *Reservation) bool {
		return r.SagaState == SagaStateCompleted
	})).Return(errors.New("fallo transitorio de mongodb"))
	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(activeEvent(10), nil)
	events.On("ReserveInventory", mock.Anything, "event-1", 2).Return(int64(8), nil)
	payments.On("Charge", mock.Anything, reservation).Return(nil)
	users.On("AppendPurchase", mock.Anything, "user-1", mock.Anything).Return(nil)
	events.On("ReleaseInventory", mock.Anything, "event-1", 2).Return(int64(10), nil)

	err := saga.Execute(context.Background(), reservation)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmando reserva")
	assert.NotErrorIs(t, err, ErrCompensationFailure)
	assert.Equal(t, ReservationStatusFailed, reservation.Status)
	assert.Equal(t, SagaStateFailed, reservation.SagaState)

	// El inventario descontado se devuelve aunque la saga muera en el cierre
	events.AssertCalled(t, "ReleaseInventory", mock.Anything, "event-1", 2)
}

func TestSagaCompensationFailureIsCritical(t *testing.T) {
	saga, repository, events, users, _ := newTestSaga()
	reservation := NewReservation("user-1", "event-1", 1, 30, 30)

	// La persistencia falla recién al entrar en compensando
	repository.On("UpdateReservation", mock.Anything, mock.MatchedBy(func(r *Reservation) bool {
		return r.SagaState == SagaStateCompensating
	})).Return(errors.New("mongodb no disponible"))
	repository.On("UpdateReservation", mock.Anything, mock.Anything).Return(nil)
	users.On("GetUser", mock.Anything, "user-1").Return(nil)
	events.On("GetEvent", mock.Anything, "event-1").Return(&EventInfo{Price: 30, AvailableTickets: 0, Status: "activo"}, nil)

	err := saga.Execute(context.Background(), reservation)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompensationFailure)
	assert.Equal(t, SagaStateCompensating, reservation.SagaState)
}
