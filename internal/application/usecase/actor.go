package usecase

import "github.com/jhoicas/stockflow-api/internal/domain/entity"

// Actor principal autenticado de la petición.
type Actor struct {
	ID   string
	Role string
	IP   string
}

// IsAdmin indica si el actor puede ver todas las categorías.
func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }
