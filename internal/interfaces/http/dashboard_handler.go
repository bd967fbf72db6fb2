package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/stockflow-api/internal/application/analytics"
	"github.com/jhoicas/stockflow-api/internal/application/audit"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// DashboardHandler maneja los endpoints del tablero.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve totales de inventario, ventas del mes, préstamos y los movimientos de
// los últimos 7 días. GET /api/dashboard
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// AuditHandler consulta de la auditoría (solo ADMIN).
type AuditHandler struct {
	uc *audit.UseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.UseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// List godoc
// @Summary      Registro de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        user_id      query  string  false  "Actor"
// @Param        entity_type  query  string  false  "product | loan | sale | ..."
// @Param        entity_id    query  string  false  "ID de la entidad"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), repository.AuditFilter{
		UserID:     c.Query("user_id"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
