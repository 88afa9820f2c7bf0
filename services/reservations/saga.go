package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SagaOrchestrator coordina la transacción distribuida de una reserva.
// Ejecuta seis pasos en orden estricto, registra cada paso completado en
// el log de la reserva antes de avanzar y compensa en orden inverso si
// un paso crítico falla.
type SagaOrchestrator struct {
	repository Repository
	events     EventsAPI
	users      UsersAPI
	payments   PaymentGateway
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewSagaOrchestrator crea el orquestador de la saga de reservas
func NewSagaOrchestrator(
	repository Repository,
	events EventsAPI,
	users UsersAPI,
	payments PaymentGateway,
	logger *zap.Logger,
	tracer trace.Tracer,
) *SagaOrchestrator {
	return &SagaOrchestrator{
		repository: repository,
		events:     events,
		users:      users,
		payments:   payments,
		logger:     logger,
		tracer:     tracer,
	}
}

// Execute corre la saga completa para una reserva ya creada por la cadena.
// Devuelve el error del paso que la abortó; la compensación ya quedó
// aplicada y persistida cuando eso ocurre.
func (o *SagaOrchestrator) Execute(ctx context.Context, reservation *Reservation) error {
	ctx, span := o.tracer.Start(ctx, "reservation_saga")
	defer span.End()
	span.SetAttributes(
		attribute.String("reserva_id", reservation.ID),
		attribute.String("evento_id", reservation.EventID),
		attribute.Int("cantidad", reservation.Quantity),
	)

	o.logger.Info("🚀 Iniciando saga", zap.String("reserva_id", reservation.ID))

	steps := []struct {
		name string
		run  func(context.Context, *Reservation) error
	}{
		{StepValidateUser, o.validateUser},
		{StepValidateEvent, o.validateEvent},
		{StepReserveInventory, o.reserveInventory},
		{StepProcessPayment, o.processPayment},
	}

	for _, step := range steps {
		if err := o.runStep(ctx, step.name, step.run, reservation); err != nil {
			span.RecordError(err)
			return o.compensate(ctx, reservation, err)
		}
	}

	// El historial de compras no es crítico: si falla se registra y se sigue
	if err := o.updateUserHistory(ctx, reservation); err != nil {
		o.logger.Warn("⚠️ No se pudo actualizar el historial de compras",
			zap.String("reserva_id", reservation.ID),
			zap.Error(err),
		)
	}

	if err := o.confirmReservation(ctx, reservation); err != nil {
		span.RecordError(err)
		return o.compensate(ctx, reservation, err)
	}

	o.logger.Info("✅ Saga completada", zap.String("reserva_id", reservation.ID))
	return nil
}

func (o *SagaOrchestrator) runStep(
	ctx context.Context,
	name string,
	run func(context.Context, *Reservation) error,
	reservation *Reservation,
) error {
	ctx, span := o.tracer.Start(ctx, "saga."+name)
	defer span.End()

	if err := run(ctx, reservation); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: %w", name, err)
	}

	// El log se persiste antes de avanzar: refleja exactamente qué
	// efectos remotos se aplicaron y es lo que guía la compensación.
	reservation.AppendStep(name, StepOutcomeSuccess)
	if err := o.repository.UpdateReservation(ctx, reservation); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistiendo paso %s: %w", name, err)
	}
	return nil
}

// Paso 1: el usuario debe existir
func (o *SagaOrchestrator) validateUser(ctx context.Context, r *Reservation) error {
	if err := r.AdvanceSaga(SagaStateValidating); err != nil {
		return err
	}
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		return err
	}
	if err := o.users.GetUser(ctx, r.UserID); err != nil {
		return fmt.Errorf("validación de usuario fallida: %w", err)
	}
	o.logger.Info("👤 Usuario validado", zap.String("usuario_id", r.UserID))
	return nil
}

// Paso 2: el evento debe estar activo y con disponibilidad suficiente
func (o *SagaOrchestrator) validateEvent(ctx context.Context, r *Reservation) error {
	event, err := o.events.GetEvent(ctx, r.EventID)
	if err != nil {
		return fmt.Errorf("validación de evento fallida: %w", err)
	}
	if event.AvailableTickets < r.Quantity {
		return fmt.Errorf("%w: evento %s", ErrInsufficientInventory, r.EventID)
	}
	if event.Status != "activo" {
		return fmt.Errorf("el evento %s no está activo", r.EventID)
	}
	o.logger.Info("🎫 Evento validado", zap.String("evento_id", r.EventID))
	return nil
}

// Paso 3: descuento atómico en el ledger, único punto que evita sobreventa
func (o *SagaOrchestrator) reserveInventory(ctx context.Context, r *Reservation) error {
	if err := r.AdvanceSaga(SagaStateReserving); err != nil {
		return err
	}
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		return err
	}
	remaining, err := o.events.ReserveInventory(ctx, r.EventID, r.Quantity)
	if err != nil {
		return fmt.Errorf("reserva de inventario fallida: %w", err)
	}
	o.logger.Info("📦 Inventario reservado",
		zap.String("evento_id", r.EventID),
		zap.Int("cantidad", r.Quantity),
		zap.Int64("entradas_restantes", remaining),
	)
	return nil
}

// Paso 4: cobro a través del gateway de pagos
func (o *SagaOrchestrator) processPayment(ctx context.Context, r *Reservation) error {
	if err := r.AdvanceSaga(SagaStatePaying); err != nil {
		return err
	}
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		return err
	}
	if err := o.payments.Charge(ctx, r); err != nil {
		return fmt.Errorf("procesamiento de pago fallido: %w", err)
	}
	o.logger.Info("💳 Pago procesado", zap.Float64("monto_total", r.TotalAmount))
	return nil
}

// Paso 5: historial de compras del usuario (no crítico)
func (o *SagaOrchestrator) updateUserHistory(ctx context.Context, r *Reservation) error {
	ctx, span := o.tracer.Start(ctx, "saga."+StepUpdateHistory)
	defer span.End()

	err := o.users.AppendPurchase(ctx, r.UserID, PurchaseRecord{
		EventID:       r.EventID,
		ReservationID: r.ID,
		Amount:        r.TotalAmount,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	r.AppendStep(StepUpdateHistory, StepOutcomeSuccess)
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		span.RecordError(err)
		return err
	}
	o.logger.Info("🧾 Historial de usuario actualizado", zap.String("usuario_id", r.UserID))
	return nil
}

// Paso 6: confirmar la reserva y cerrar la saga
func (o *SagaOrchestrator) confirmReservation(ctx context.Context, r *Reservation) error {
	if err := r.Confirm(); err != nil {
		return err
	}
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		// La confirmación no quedó persistida: la reserva vuelve a pagando
		// para que la compensación pueda revertir el inventario descontado.
		r.Status = ReservationStatusPending
		r.SagaState = SagaStatePaying
		return fmt.Errorf("confirmando reserva: %w", err)
	}
	o.logger.Info("🎉 Reserva confirmada", zap.String("reserva_id", r.ID))
	return nil
}

// compensate revierte los efectos aplicados según el log de pasos y deja la
// reserva en fallida. Un fallo dentro de la propia compensación es terminal:
// se reporta como condición crítica y no se reintenta.
func (o *SagaOrchestrator) compensate(ctx context.Context, r *Reservation, cause error) error {
	ctx, span := o.tracer.Start(ctx, "saga.compensacion")
	defer span.End()

	o.logger.Info("↩️ Iniciando compensación",
		zap.String("reserva_id", r.ID),
		zap.Error(cause),
	)

	if err := r.BeginCompensation(); err != nil {
		return o.compensationFailed(r, cause, err)
	}
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		return o.compensationFailed(r, cause, err)
	}

	// Solo el descuento de inventario deja un efecto remoto que revertir.
	// La devolución es best-effort: su fallo se registra, no se propaga.
	if r.HasStep(StepReserveInventory) {
		if _, err := o.events.ReleaseInventory(ctx, r.EventID, r.Quantity); err != nil {
			o.logger.Error("❌ No se pudo revertir el inventario",
				zap.String("evento_id", r.EventID),
				zap.Int("cantidad", r.Quantity),
				zap.Error(err),
			)
		} else {
			o.logger.Info("📦 Inventario revertido", zap.String("evento_id", r.EventID))
		}
	}

	r.FinishCompensation()
	if err := o.repository.UpdateReservation(ctx, r); err != nil {
		return o.compensationFailed(r, cause, err)
	}

	o.logger.Info("↩️ Compensación completada", zap.String("reserva_id", r.ID))
	return cause
}

func (o *SagaOrchestrator) compensationFailed(r *Reservation, cause, err error) error {
	o.logger.Error("🚨 compensation_failure: rollback incompleto, requiere intervención",
		zap.String("reserva_id", r.ID),
		zap.String("saga_estado", r.SagaState),
		zap.NamedError("causa_original", cause),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %v (causa original: %v)", ErrCompensationFailure, err, cause)
}
