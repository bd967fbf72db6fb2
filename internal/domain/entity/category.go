package entity

import "time"

// Category agrupa productos; Prefix alimenta la generación de SKU.
type Category struct {
	ID          string
	ParentID    string // vacío si es raíz
	Name        string
	Prefix      string // opcional; si está vacío se usan las 3 primeras letras del nombre
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryVisibility restringe qué categorías ve un usuario no administrador.
type CategoryVisibility struct {
	UserID     string
	CategoryID string
}
