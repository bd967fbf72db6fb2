package dto

import "github.com/shopspring/decimal"

// DashboardResponse métricas del tablero principal.
type DashboardResponse struct {
	TotalProducts  int             `json:"total_products"`
	LowStock       int             `json:"low_stock"`
	OverStock      int             `json:"over_stock"`
	TotalUnits     int             `json:"total_units"`
	AssetValue     decimal.Decimal `json:"asset_value"`
	MovementsToday int             `json:"movements_today"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	MonthlySales   int             `json:"monthly_sales"`
	ActiveLoans    int             `json:"active_loans"`
	OverdueLoans   int             `json:"overdue_loans"`
	Chart          []DailyCount    `json:"chart"`
}

// DailyCount movimientos por día.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
