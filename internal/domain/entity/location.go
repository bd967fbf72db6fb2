package entity

import "time"

// Tipos de ubicación.
const (
	LocationPhysical = "PHYSICAL"
	LocationVirtual  = "VIRTUAL"
)

// Location es un lugar físico o virtual donde puede residir stock (bodega, estante, "en tránsito").
// Un padre debe ser del mismo tipo que sus hijos.
type Location struct {
	ID          string
	Name        string
	Type        string
	ParentID    string // vacío si es raíz
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidLocationType indica si t es PHYSICAL o VIRTUAL.
func ValidLocationType(t string) bool {
	return t == LocationPhysical || t == LocationVirtual
}

// ProductLocation cantidad de un producto en una ubicación. Único por (ProductID, LocationID).
// Quantity puede quedar negativa cuando se descuenta de una ubicación sin registro previo.
type ProductLocation struct {
	ProductID  string
	LocationID string
	Quantity   int
	UpdatedAt  time.Time
}
