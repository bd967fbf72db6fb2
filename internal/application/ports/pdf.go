package ports

import "github.com/jhoicas/stockflow-api/internal/domain/entity"

// ReceiptRenderer genera documentos PDF del ledger.
type ReceiptRenderer interface {
	// SaleReceipt comprobante de venta con QR del código de factura.
	SaleReceipt(sale *entity.Sale) ([]byte, error)
	// ProductLabel etiqueta con QR del SKU.
	ProductLabel(product *entity.Product) ([]byte, error)
}
