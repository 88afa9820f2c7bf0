package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentGateway abstrae al procesador de pagos
type PaymentGateway interface {
	Charge(ctx context.Context, reservation *Reservation) error
}

// SimulatedPaymentGateway aprueba los cobros tras la latencia del procesador.
// Reemplaza a una integración real de pagos; la saga solo depende de la interfaz.
type SimulatedPaymentGateway struct {
	delay  time.Duration
	logger *zap.Logger
}

// NewSimulatedPaymentGateway crea el gateway de pagos simulado
func NewSimulatedPaymentGateway(delay time.Duration, logger *zap.Logger) *SimulatedPaymentGateway {
	return &SimulatedPaymentGateway{delay: delay, logger: logger}
}

// Charge simula el cobro respetando la cancelación del contexto
func (g *SimulatedPaymentGateway) Charge(ctx context.Context, reservation *Reservation) error {
	select {
	case <-time.After(g.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	g.logger.Info("💳 Cobro aprobado",
		zap.String("reserva_id", reservation.ID),
		zap.Float64("monto", reservation.TotalAmount),
	)
	return nil
}
