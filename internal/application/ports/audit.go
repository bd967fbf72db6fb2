package ports

// Auditor registra acciones mutantes después del commit. Nunca bloquea ni falla hacia el llamador.
type Auditor interface {
	Record(actorID, action, entityType, entityID string, details any)
}

// NopAuditor descarta los registros.
type NopAuditor struct{}

// Record no hace nada.
func (NopAuditor) Record(string, string, string, string, any) {}
