// Package whatsapp envía recordatorios por una API HTTP estilo WAHA.
package whatsapp

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

const sendTimeout = 10 * time.Second

var (
	_ ports.Notifier = (*HTTPSender)(nil)
	_ ports.Notifier = (*LogSender)(nil)
)

type sendTextRequest struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Session string `json:"session"`
}

// HTTPSender POST {base}/api/sendText con X-Api-Key.
type HTTPSender struct {
	baseURL     string
	apiKey      string
	session     string
	countryCode string
	log         *logger.Logger
}

// NewSender devuelve el cliente HTTP o, si no hay URL configurada, un sender que solo registra en log.
func NewSender(cfg config.WhatsAppConfig, log *logger.Logger) ports.Notifier {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.APIURL == "" {
		return &LogSender{countryCode: cfg.CountryCode, log: log.Component("whatsapp")}
	}
	return &HTTPSender{
		baseURL:     cfg.APIURL,
		apiKey:      cfg.APIKey,
		session:     cfg.Session,
		countryCode: cfg.CountryCode,
		log:         log.Component("whatsapp"),
	}
}

// Send devuelve true solo si la API respondió 2xx. Nunca propaga errores.
func (s *HTTPSender) Send(ctx context.Context, phone, message string) bool {
	to := NormalizePhone(phone, s.countryCode)
	if to == "" {
		s.log.Warn().Str("phone", phone).Msg("teléfono inválido")
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	timeout := sendTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}

	a := fiber.Post(s.baseURL + "/api/sendText")
	if s.apiKey != "" {
		a.Set("X-Api-Key", s.apiKey)
	}
	a.JSON(sendTextRequest{ChatID: to + "@c.us", Text: message, Session: s.session})
	a.Timeout(timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		s.log.Error().Err(errs[0]).Str("to", to).Msg("fallo al enviar WhatsApp")
		return false
	}
	if code < 200 || code >= 300 {
		s.log.Error().Int("status", code).Bytes("body", body).Str("to", to).Msg("API de WhatsApp rechazó el mensaje")
		return false
	}
	s.log.Info().Str("to", to).Msg("recordatorio enviado")
	return true
}

// LogSender registra el mensaje sin enviarlo (desarrollo).
type LogSender struct {
	countryCode string
	log         *logger.Logger
}

// Send siempre tiene éxito salvo teléfono inválido.
func (s *LogSender) Send(_ context.Context, phone, message string) bool {
	to := NormalizePhone(phone, s.countryCode)
	if to == "" {
		return false
	}
	s.log.Info().Str("to", to).Str("message", message).Msg("WhatsApp (solo log)")
	return true
}
