package pdf_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/pdf"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]decimal.Decimal{
		"0":         decimal.Zero,
		"999":       decimal.NewFromInt(999),
		"25.000":    decimal.NewFromInt(25000),
		"1.000.000": decimal.NewFromInt(1000000),
		"1.234,50":  decimal.RequireFromString("1234.5"),
		"-1.500":    decimal.NewFromInt(-1500),
	}
	for want, in := range cases {
		assert.Equal(t, want, pdf.FormatMoney(in), in.String())
	}
}

func TestSaleReceipt_GeneraPDF(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("")
	sale := &entity.Sale{
		InvoiceCode:  "INV-20260115-042",
		CustomerName: "Budi",
		TotalAmount:  decimal.NewFromInt(45000),
		SaleDate:     time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Items: []entity.SaleItem{
			{ProductName: "Kabel HDMI", Qty: 3, SellingPrice: decimal.NewFromInt(15000)},
		},
	}
	out, err := g.SaleReceipt(sale)
	require.NoError(t, err)
	assert.True(t, len(out) > 4)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestProductLabel_GeneraPDF(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("StockFlow")
	out, err := g.ProductLabel(&entity.Product{SKU: "ELE-001", Name: "Kabel HDMI"})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
