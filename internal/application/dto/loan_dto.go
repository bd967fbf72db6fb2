package dto

import "time"

// CreateLoanRequest body para POST /api/loans.
type CreateLoanRequest struct {
	BorrowerName  string    `json:"borrower_name"`
	BorrowerPhone string    `json:"borrower_phone"`
	ProductID     string    `json:"product_id"`
	Qty           int       `json:"qty"`
	DueDate       time.Time `json:"due_date"`
	Notes         string    `json:"notes"`
}

// LoanResponse salida de un préstamo.
type LoanResponse struct {
	ID              string     `json:"id"`
	TransactionCode string     `json:"transaction_code"`
	BorrowerName    string     `json:"borrower_name"`
	BorrowerPhone   string     `json:"borrower_phone,omitempty"`
	ProductID       string     `json:"product_id"`
	Qty             int        `json:"qty"`
	LoanDate        time.Time  `json:"loan_date"`
	DueDate         time.Time  `json:"due_date"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	Status          string     `json:"status"`
	LastNotifiedAt  *time.Time `json:"last_notified_at,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// LoanStatsResponse préstamos por estado.
type LoanStatsResponse struct {
	Active   int `json:"active"`
	Overdue  int `json:"overdue"`
	Returned int `json:"returned"`
	Total    int `json:"total"`
}

// ReminderResponse resultado del envío manual de un recordatorio.
type ReminderResponse struct {
	Sent bool `json:"sent"`
}

// SweepResponse resultado de GET /api/cron/check-overdue.
type SweepResponse struct {
	Success       bool      `json:"success"`
	MarkedOverdue int       `json:"marked_overdue"`
	Notified      int       `json:"notified"`
	Failed        int       `json:"failed"`
	Timestamp     time.Time `json:"timestamp"`
}
