package entity

import "time"

// MovementType etiqueta de un movimiento del ledger.
type MovementType string

// Tipos de movimiento.
const (
	MovementIN          MovementType = "IN"
	MovementOUT         MovementType = "OUT"
	MovementTransfer    MovementType = "TRANSFER"
	MovementLoanOut     MovementType = "LOAN_OUT"
	MovementLoanReturn  MovementType = "LOAN_RETURN"
	MovementSale        MovementType = "SALE"
	MovementConsumption MovementType = "CONSUMPTION"
	MovementAdjustIn    MovementType = "ADJUST_IN"
	MovementAdjustOut   MovementType = "ADJUST_OUT"
)

// Incoming indica si el tipo suma al agregado cuando el movimiento no tiene ubicaciones.
func (t MovementType) Incoming() bool {
	switch t {
	case MovementIN, MovementLoanReturn, MovementAdjustIn:
		return true
	}
	return false
}

// Movement entrada inmutable del ledger. Quantity siempre es positiva.
type Movement struct {
	ID             string
	ProductID      string
	FromLocationID string // vacío = sin origen
	ToLocationID   string // vacío = sin destino
	Quantity       int
	Type           MovementType
	MovedBy        string
	Notes          string
	Reference      string // código de préstamo o factura
	CreatedAt      time.Time
}

// AggregateDelta variación de Product.CurrentStock que produce el movimiento:
// solo destino suma, solo origen resta, ambos (traslado) no cambia el agregado.
// Sin ubicaciones el signo lo decide el tipo.
func (m *Movement) AggregateDelta() int {
	hasFrom, hasTo := m.FromLocationID != "", m.ToLocationID != ""
	switch {
	case hasFrom && hasTo:
		return 0
	case hasTo:
		return m.Quantity
	case hasFrom:
		return -m.Quantity
	case m.Type.Incoming():
		return m.Quantity
	default:
		return -m.Quantity
	}
}
