package http

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/loan"
)

// CronHandler disparador externo del barrido de préstamos vencidos.
type CronHandler struct {
	uc     *loan.UseCase
	secret string
	now    func() time.Time
}

// NewCronHandler construye el handler. secret vacío rechaza toda llamada.
func NewCronHandler(uc *loan.UseCase, secret string) *CronHandler {
	return &CronHandler{uc: uc, secret: secret, now: time.Now}
}

// CheckOverdue godoc
// @Summary      Barrido de préstamos vencidos
// @Description  Marca OVERDUE los préstamos vencidos y envía recordatorios. Requiere ?key=CRON_SECRET.
// @Tags         cron
// @Produce      json
// @Param        key  query  string  true  "Secreto del cron"
// @Success      200  {object}  dto.SweepResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/cron/check-overdue [get]
func (h *CronHandler) CheckOverdue(c *fiber.Ctx) error {
	key := c.Query("key")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "clave de cron inválida"})
	}
	now := h.now()
	res, err := h.uc.SweepOverdueLoans(c.UserContext(), now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SweepResponse{
		Success:       true,
		MarkedOverdue: res.MarkedOverdue,
		Notified:      res.Notified,
		Failed:        res.Failed,
		Timestamp:     now,
	})
}
