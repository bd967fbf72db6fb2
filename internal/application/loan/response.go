package loan

import (
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// ToResponse convierte un préstamo a DTO.
func ToResponse(l *entity.Loan) dto.LoanResponse {
	return dto.LoanResponse{
		ID:              l.ID,
		TransactionCode: l.TransactionCode,
		BorrowerName:    l.BorrowerName,
		BorrowerPhone:   l.BorrowerPhone,
		ProductID:       l.ProductID,
		Qty:             l.Qty,
		LoanDate:        l.LoanDate,
		DueDate:         l.DueDate,
		ReturnDate:      l.ReturnDate,
		Status:          string(l.Status),
		LastNotifiedAt:  l.LastNotifiedAt,
		Notes:           l.Notes,
	}
}

// ToStatsResponse agrega los conteos por estado.
func ToStatsResponse(counts map[entity.LoanStatus]int) dto.LoanStatsResponse {
	out := dto.LoanStatsResponse{
		Active:   counts[entity.LoanActive],
		Overdue:  counts[entity.LoanOverdue],
		Returned: counts[entity.LoanReturned],
	}
	out.Total = out.Active + out.Overdue + out.Returned
	return out
}
