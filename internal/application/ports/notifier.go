package ports

import "context"

// Notifier puerto de salida para mensajes de texto (WhatsApp u otro canal).
// Send es best-effort: devuelve false ante cualquier fallo y nunca propaga errores.
type Notifier interface {
	Send(ctx context.Context, phone, message string) bool
}
