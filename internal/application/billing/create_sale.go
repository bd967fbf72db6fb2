package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// CreateSaleUseCase registra una venta de punto de venta y descuenta el stock en una sola transacción.
type CreateSaleUseCase struct {
	txRunner    inventory.TxRunner
	inventoryUC InventoryUseCase
	productRepo repository.ProductRepository
	auditor     ports.Auditor
	metrics     ports.LedgerMetrics
	codes       *domaininv.CodeGenerator
	log         *logger.Logger
}

// NewCreateSaleUseCase construye el caso de uso.
func NewCreateSaleUseCase(
	txRunner inventory.TxRunner,
	inventoryUC InventoryUseCase,
	productRepo repository.ProductRepository,
	auditor ports.Auditor,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
) *CreateSaleUseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CreateSaleUseCase{
		txRunner:    txRunner,
		inventoryUC: inventoryUC,
		productRepo: productRepo,
		auditor:     auditor,
		metrics:     metrics,
		codes:       domaininv.NewCodeGenerator(),
		log:         log.Component("billing"),
	}
}

// WithCodeGenerator reemplaza el generador de códigos de factura (tests).
func (uc *CreateSaleUseCase) WithCodeGenerator(g *domaininv.CodeGenerator) *CreateSaleUseCase {
	uc.codes = g
	return uc
}

// SaleLine línea solicitada.
type SaleLine struct {
	ProductID    string
	Qty          int
	SellingPrice decimal.Decimal
}

// CreateSaleInput entrada de una venta.
type CreateSaleInput struct {
	CustomerName string
	Items        []SaleLine
	ActorID      string
}

// CreateSale valida todas las líneas antes de escribir (productos cargados en una sola consulta),
// y luego en una transacción crea la cabecera con el total, cada línea con el costo del momento
// y un movimiento SALE por línea. Cualquier fallo deshace la venta completa.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	ids := make([]string, 0, len(in.Items))
	requested := make(map[string]int, len(in.Items))
	for _, line := range in.Items {
		if line.ProductID == "" {
			return nil, domain.Invalid("product_id es obligatorio en cada línea")
		}
		if line.Qty <= 0 {
			return nil, domain.Invalid("la cantidad de cada línea debe ser mayor que cero")
		}
		if line.SellingPrice.IsNegative() {
			return nil, domain.Invalid("el precio de venta no puede ser negativo")
		}
		if _, seen := requested[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		requested[line.ProductID] += line.Qty
	}

	// Validación previa: orientativa, el descuento condicional en la tx es el definitivo.
	products, err := uc.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("venta: cargar productos: %w", err)
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, domain.NotFound("producto", id)
		}
		if p.CurrentStock < requested[id] {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.CurrentStock,
				Requested:   requested[id],
			}
		}
	}

	now := uc.inventoryUC.Now()
	items := make([]entity.SaleItem, 0, len(in.Items))
	for _, line := range in.Items {
		p := byID[line.ProductID]
		items = append(items, entity.SaleItem{
			ProductID:    line.ProductID,
			ProductName:  p.Name,
			Qty:          line.Qty,
			SellingPrice: line.SellingPrice,
			CostPrice:    p.CostPrice,
		})
	}
	total := entity.ComputeTotal(items)

	var sale *entity.Sale
	var movs []*entity.Movement
	create := func() error {
		code := uc.codes.Next(domaininv.SaleCodePrefix, now)
		return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			sale = &entity.Sale{
				ID:           uuid.New().String(),
				InvoiceCode:  code,
				CustomerName: strings.TrimSpace(in.CustomerName),
				TotalAmount:  total,
				SaleDate:     now,
				CreatedBy:    in.ActorID,
				CreatedAt:    now,
			}
			if err := repos.Sales.Create(ctx, sale); err != nil {
				return err
			}
			movs = movs[:0]
			for _, it := range items {
				it.ID = uuid.New().String()
				it.SaleID = sale.ID
				if err := repos.Sales.AddItem(ctx, &it); err != nil {
					return err
				}
				sale.Items = append(sale.Items, it)
				mov := &entity.Movement{
					ProductID: it.ProductID,
					Quantity:  it.Qty,
					Type:      entity.MovementSale,
					MovedBy:   in.ActorID,
					Notes:     "Venta " + code,
					Reference: code,
				}
				if err := uc.inventoryUC.ApplyInTx(ctx, repos, mov); err != nil {
					return err
				}
				movs = append(movs, mov)
			}
			return nil
		})
	}
	err = create()
	if errors.Is(err, domain.ErrConflict) {
		uc.log.Warn().Msg("colisión de código de factura, se reintenta")
		err = create()
	}
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(in.ActorID, entity.AuditCreate, "sale", sale.ID, map[string]any{
		"invoice_code": sale.InvoiceCode,
		"total_amount": sale.TotalAmount.String(),
		"items":        len(sale.Items),
	})
	uc.metrics.SaleRecorded(sale.TotalAmount.InexactFloat64())
	uc.inventoryUC.Publish(ctx, movs...)
	return sale, nil
}
