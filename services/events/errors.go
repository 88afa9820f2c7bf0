package main

import "errors"

var (
	// ErrEventNotFound indica que el evento no existe
	ErrEventNotFound = errors.New("evento no encontrado")

	// ErrInsufficientInventory indica que el descuento dejaría el ledger en negativo
	ErrInsufficientInventory = errors.New("no hay suficientes entradas disponibles")
)
