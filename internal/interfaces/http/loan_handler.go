package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/loan"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// LoanHandler préstamos de productos.
type LoanHandler struct {
	uc *loan.UseCase
}

// NewLoanHandler construye el handler.
func NewLoanHandler(uc *loan.UseCase) *LoanHandler {
	return &LoanHandler{uc: uc}
}

// Create godoc
// @Summary      Emitir préstamo
// @Description  Crea el préstamo ACTIVE y descuenta el stock (LOAN_OUT) en la misma transacción.
// @Tags         loans
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLoanRequest  true  "borrower_name, product_id, qty, due_date"
// @Success      201   {object}  dto.LoanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/loans [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLoanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	l, err := h.uc.IssueLoan(c.UserContext(), loan.IssueLoanInput{
		BorrowerName:  in.BorrowerName,
		BorrowerPhone: in.BorrowerPhone,
		ProductID:     in.ProductID,
		Qty:           in.Qty,
		DueDate:       in.DueDate,
		Notes:         in.Notes,
		ActorID:       GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loan.ToResponse(l))
}

// List godoc
// @Summary      Listar préstamos
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "ACTIVE | OVERDUE | RETURNED"
// @Param        search  query  string  false  "Prestatario o código"
// @Success      200  {array}  dto.LoanResponse
// @Router       /api/loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), repository.LoanFilter{
		Status: entity.LoanStatus(c.Query("status")),
		Search: c.Query("search"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LoanResponse, 0, len(list))
	for _, l := range list {
		out = append(out, loan.ToResponse(l))
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Préstamos por estado
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LoanStatsResponse
// @Router       /api/loans/stats [get]
func (h *LoanHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.uc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loan.ToStatsResponse(counts))
}

// Return godoc
// @Summary      Devolver préstamo
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.LoanResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	l, err := h.uc.ReturnLoan(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loan.ToResponse(l))
}

// Remind godoc
// @Summary      Enviar recordatorio por WhatsApp
// @Tags         loans
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del préstamo"
// @Success      200  {object}  dto.ReminderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/loans/{id}/remind [post]
func (h *LoanHandler) Remind(c *fiber.Ctx) error {
	sent, err := h.uc.SendReminder(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReminderResponse{Sent: sent})
}
