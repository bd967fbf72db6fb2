package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// PDFUseCase genera el comprobante PDF de una venta.
type PDFUseCase struct {
	saleRepo  repository.SaleRepository
	generator ports.ReceiptRenderer
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(saleRepo repository.SaleRepository, generator ports.ReceiptRenderer) *PDFUseCase {
	return &PDFUseCase{saleRepo: saleRepo, generator: generator}
}

// DownloadReceipt devuelve el PDF y el nombre de archivo sugerido.
//   - domain.ErrNotFound si la venta no existe.
func (uc *PDFUseCase) DownloadReceipt(ctx context.Context, saleID string) (pdfBytes []byte, filename string, err error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.generator.SaleReceipt(sale)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return pdfBytes, sale.InvoiceCode + ".pdf", nil
}
