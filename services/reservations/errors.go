package main

import "errors"

// Taxonomía de errores del proceso de reserva
var (
	// ErrInvalidRequest indica datos de entrada incompletos o fuera de rango
	ErrInvalidRequest = errors.New("solicitud de reserva inválida")

	// ErrInsufficientInventory indica que no hay entradas suficientes
	ErrInsufficientInventory = errors.New("no hay suficientes entradas disponibles")

	// ErrLimitExceeded indica que el usuario superó el máximo por evento
	ErrLimitExceeded = errors.New("límite de compra excedido")

	// ErrUpstreamUnavailable indica fallo o timeout de un servicio colaborador
	ErrUpstreamUnavailable = errors.New("servicio externo no disponible")

	// ErrCompensationFailure indica que la compensación de la saga no pudo completarse
	ErrCompensationFailure = errors.New("fallo crítico en la compensación")

	// ErrReservationNotFound indica que la reserva no existe
	ErrReservationNotFound = errors.New("reserva no encontrada")
)
