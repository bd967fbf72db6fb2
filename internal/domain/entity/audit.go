package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la auditoría.
const (
	AuditCreate = "CREATE"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
	AuditMove   = "MOVE"
	AuditNotify = "NOTIFY"
	AuditLogin  = "LOGIN"
)

// AuditEntry registro append-only de quién hizo qué sobre qué entidad.
type AuditEntry struct {
	ID         string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    json.RawMessage
	IPAddress  string
	CreatedAt  time.Time
}
