package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrEmptyOrder        = fmt.Errorf("%w: la venta no tiene líneas", ErrValidation)
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrAlreadyReturned   = errors.New("el préstamo ya fue devuelto")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrTransient         = errors.New("almacén no disponible temporalmente, reintente")

	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrNotConsumable      = fmt.Errorf("%w: el producto no es consumible", ErrValidation)
)

// Alias conservados para los casos de uso de catálogo.
var (
	ErrInvalidInput = ErrValidation
	ErrDuplicate    = ErrConflict
)

// InsufficientStockError detalla disponible vs. solicitado para mostrar al usuario.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("stock insuficiente para %s. Disponible: %d, solicitado: %d", name, e.Available, e.Requested)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotFound envuelve ErrNotFound indicando la entidad ausente.
func NotFound(entity, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
}

// Invalid envuelve ErrValidation con un mensaje legible.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
