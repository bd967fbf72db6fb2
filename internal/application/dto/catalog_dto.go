package dto

import "time"

// CategoryRequest alta o edición de categoría.
type CategoryRequest struct {
	Name        string `json:"name"`
	Prefix      string `json:"prefix"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
}

// CategoryResponse categoría con su número de productos.
type CategoryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Prefix       string    `json:"prefix,omitempty"`
	Description  string    `json:"description,omitempty"`
	ParentID     string    `json:"parent_id,omitempty"`
	ProductCount int       `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// LocationRequest alta o edición de ubicación.
type LocationRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // PHYSICAL | VIRTUAL
	ParentID    string `json:"parent_id"`
	Description string `json:"description"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	ParentID    string    `json:"parent_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditEntryResponse registro de auditoría.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
