package main

import (
	"context"

	"go.uber.org/zap"
)

// ReservationUseCase encadena la validación y la saga de una reserva
type ReservationUseCase struct {
	chain      *ReservationChain
	saga       *SagaOrchestrator
	repository Repository
	logger     *zap.Logger
}

// NewReservationUseCase crea el caso de uso de reservas
func NewReservationUseCase(
	chain *ReservationChain,
	saga *SagaOrchestrator,
	repository Repository,
	logger *zap.Logger,
) *ReservationUseCase {
	return &ReservationUseCase{
		chain:      chain,
		saga:       saga,
		repository: repository,
		logger:     logger,
	}
}

// SubmitReservation corre la cadena de validación y, si produce una reserva,
// la lleva por la saga hasta confirmada o fallida. Cuando la saga falla la
// reserva igual se devuelve: ya existe, compensada y en estado fallida.
func (uc *ReservationUseCase) SubmitReservation(ctx context.Context, userID, eventID string, quantity int) (*Reservation, error) {
	request := &ReservationRequest{
		UserID:   userID,
		EventID:  eventID,
		Quantity: quantity,
	}

	if err := uc.chain.Run(ctx, request); err != nil {
		uc.logger.Info("⛔ Cadena de validación abortada",
			zap.String("usuario_id", userID),
			zap.String("evento_id", eventID),
			zap.Error(err),
		)
		return nil, err
	}

	reservation := request.Reservation
	if err := uc.saga.Execute(ctx, reservation); err != nil {
		return reservation, err
	}
	return reservation, nil
}

// GetReservation devuelve la reserva tal como está persistida
func (uc *ReservationUseCase) GetReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	return uc.repository.GetReservation(ctx, reservationID)
}
