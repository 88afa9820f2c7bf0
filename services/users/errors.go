package main

import "errors"

var (
	// ErrUserNotFound indica que el usuario no existe
	ErrUserNotFound = errors.New("usuario no encontrado")

	// ErrUserExists indica un email o documento ya registrado
	ErrUserExists = errors.New("usuario ya existe")
)
