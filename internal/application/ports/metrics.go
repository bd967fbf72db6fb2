package ports

// LedgerMetrics contadores de negocio del ledger.
type LedgerMetrics interface {
	MovementRecorded(movementType string)
	LoansMarkedOverdue(n int)
	ReminderDispatched(ok bool)
	SaleRecorded(total float64)
	TxRetried()
}

// NopMetrics implementación vacía.
type NopMetrics struct{}

func (NopMetrics) MovementRecorded(string) {}
func (NopMetrics) LoansMarkedOverdue(int)  {}
func (NopMetrics) ReminderDispatched(bool) {}
func (NopMetrics) SaleRecorded(float64)    {}
func (NopMetrics) TxRetried()              {}
