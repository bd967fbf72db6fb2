package inventory

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Prefijos de códigos de transacción.
const (
	LoanCodePrefix = "LN"
	SaleCodePrefix = "INV"
)

// CodeGenerator genera códigos PREFIX-YYYYMMDD-NNN con sufijo aleatorio 001..999.
// La unicidad la garantiza el almacén; el llamador reintenta ante conflicto.
type CodeGenerator struct {
	rand func(n int) int
}

// NewCodeGenerator usa math/rand/v2 como fuente.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{rand: rand.IntN}
}

// NewCodeGeneratorWithSource permite inyectar la fuente aleatoria (tests).
func NewCodeGeneratorWithSource(src func(n int) int) *CodeGenerator {
	return &CodeGenerator{rand: src}
}

// Next devuelve un código para el prefijo y la fecha dados.
func (g *CodeGenerator) Next(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, at.Format("20060102"), g.rand(999)+1)
}
