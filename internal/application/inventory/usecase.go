package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

const historyLimit = 50

// MovementUseCase es el único punto de escritura de stock: cada cambio de Product.CurrentStock
// y de ProductLocation pasa por ApplyInTx dentro de una transacción.
type MovementUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
	movementRepo repository.MovementRepository
	auditor      ports.Auditor
	cache        ports.StatsCache
	metrics      ports.LedgerMetrics
	now          func() time.Time
}

// NewMovementUseCase construye el motor de movimientos.
func NewMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
	movementRepo repository.MovementRepository,
	auditor ports.Auditor,
	cache ports.StatsCache,
	metrics ports.LedgerMetrics,
) *MovementUseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	if cache == nil {
		cache = ports.NopCache{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &MovementUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		movementRepo: movementRepo,
		auditor:      auditor,
		cache:        cache,
		metrics:      metrics,
		now:          time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *MovementUseCase) WithClock(now func() time.Time) *MovementUseCase {
	uc.now = now
	return uc
}

// Now hora actual según el reloj del motor.
func (uc *MovementUseCase) Now() time.Time { return uc.now() }

// MovementInput entrada de un movimiento manual. Al menos una ubicación es obligatoria.
type MovementInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int
	ActorID        string
	Notes          string
}

// RecordMovement valida, comprueba referencias y aplica el movimiento en una transacción.
// Solo destino = entrada, solo origen = salida, ambos = traslado.
func (uc *MovementUseCase) RecordMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	in.FromLocationID = strings.TrimSpace(in.FromLocationID)
	in.ToLocationID = strings.TrimSpace(in.ToLocationID)
	if in.ProductID == "" {
		return nil, domain.Invalid("product_id es obligatorio")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if in.FromLocationID == "" && in.ToLocationID == "" {
		return nil, domain.Invalid("se requiere ubicación de origen o destino")
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.Invalid("origen y destino deben ser distintos")
	}

	if _, err := uc.productRepo.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}
	for _, locID := range []string{in.FromLocationID, in.ToLocationID} {
		if locID == "" {
			continue
		}
		if _, err := uc.locationRepo.GetByID(ctx, locID); err != nil {
			return nil, err
		}
	}

	mov := &entity.Movement{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Type:           Classify(in.FromLocationID, in.ToLocationID),
		MovedBy:        in.ActorID,
		Notes:          in.Notes,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		return uc.ApplyInTx(ctx, repos, mov)
	})
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(in.ActorID, entity.AuditMove, "movement", mov.ID, map[string]any{
		"product_id":    mov.ProductID,
		"from_location": mov.FromLocationID,
		"to_location":   mov.ToLocationID,
		"quantity":      mov.Quantity,
		"type":          mov.Type,
	})
	uc.Publish(ctx, mov)
	return mov, nil
}

// Classify deriva el tipo de un movimiento manual a partir de sus ubicaciones.
func Classify(fromLocationID, toLocationID string) entity.MovementType {
	switch {
	case fromLocationID != "" && toLocationID != "":
		return entity.MovementTransfer
	case fromLocationID != "":
		return entity.MovementOUT
	default:
		return entity.MovementIN
	}
}

// ApplyInTx escribe el movimiento con los repositorios de la transacción del llamador:
// inserta la entrada del ledger, ajusta origen y destino con upserts atómicos y aplica
// la variación del agregado con una actualización condicional que rechaza stock negativo.
// Lo reutilizan préstamos, ventas y ajustes dentro de sus propias transacciones.
func (uc *MovementUseCase) ApplyInTx(ctx context.Context, repos repository.TxRepos, m *entity.Movement) error {
	if m.Quantity <= 0 {
		return domain.Invalid("la cantidad debe ser mayor que cero")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = uc.now()
	}
	if err := repos.Movements.Create(ctx, m); err != nil {
		return err
	}
	if m.FromLocationID != "" {
		if _, err := repos.Stock.Adjust(ctx, m.ProductID, m.FromLocationID, -m.Quantity); err != nil {
			return err
		}
	}
	if m.ToLocationID != "" {
		if _, err := repos.Stock.Adjust(ctx, m.ProductID, m.ToLocationID, m.Quantity); err != nil {
			return err
		}
	}
	if delta := m.AggregateDelta(); delta != 0 {
		if _, err := repos.Products.AdjustStock(ctx, m.ProductID, delta); err != nil {
			return err
		}
	}
	return nil
}

// Publish notifica movimientos ya confirmados: métricas e invalidación de caché.
func (uc *MovementUseCase) Publish(ctx context.Context, movs ...*entity.Movement) {
	for _, m := range movs {
		uc.metrics.MovementRecorded(string(m.Type))
	}
	uc.cache.Invalidate(ctx)
}

// AdjustStock fija el stock agregado de un producto en newStock registrando un movimiento
// ADJUST_IN o ADJUST_OUT por la diferencia. Devuelve nil si no hay diferencia.
func (uc *MovementUseCase) AdjustStock(ctx context.Context, productID string, newStock int, actorID, notes string) (*entity.Movement, error) {
	if newStock < 0 {
		return nil, domain.Invalid("el stock no puede ser negativo")
	}
	var mov *entity.Movement
	var previous int
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		var err error
		mov, previous, err = uc.AdjustStockInTx(ctx, repos, productID, newStock, actorID, notes)
		return err
	})
	if err != nil || mov == nil {
		return nil, err
	}
	uc.PublishAdjustment(ctx, actorID, previous, newStock, mov)
	return mov, nil
}

// AdjustStockInTx registra el ajuste con los repositorios de la transacción del llamador.
// Devuelve el movimiento (nil si no hay diferencia) y el stock previo.
func (uc *MovementUseCase) AdjustStockInTx(ctx context.Context, repos repository.TxRepos, productID string, newStock int, actorID, notes string) (*entity.Movement, int, error) {
	if newStock < 0 {
		return nil, 0, domain.Invalid("el stock no puede ser negativo")
	}
	p, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, 0, err
	}
	diff := newStock - p.CurrentStock
	if diff == 0 {
		return nil, p.CurrentStock, nil
	}
	mov := &entity.Movement{
		ProductID: productID,
		Quantity:  abs(diff),
		Type:      entity.MovementAdjustIn,
		MovedBy:   actorID,
		Notes:     notes,
	}
	if diff < 0 {
		mov.Type = entity.MovementAdjustOut
	}
	if mov.Notes == "" {
		mov.Notes = "Ajuste manual de stock"
	}
	if err := uc.ApplyInTx(ctx, repos, mov); err != nil {
		return nil, 0, err
	}
	return mov, p.CurrentStock, nil
}

// PublishAdjustment audita un ajuste ya confirmado y lo publica.
func (uc *MovementUseCase) PublishAdjustment(ctx context.Context, actorID string, previous, newStock int, mov *entity.Movement) {
	uc.auditor.Record(actorID, entity.AuditUpdate, "product", mov.ProductID, map[string]any{
		"current_stock": map[string]int{"from": previous, "to": newStock},
		"movement_id":   mov.ID,
	})
	uc.Publish(ctx, mov)
}

// ConsumeInput consumo de un producto consumible, opcionalmente desde una ubicación.
type ConsumeInput struct {
	ProductID      string
	FromLocationID string
	Quantity       int
	ActorID        string
	Notes          string
}

// Consume registra un movimiento CONSUMPTION. Solo productos marcados como consumibles.
func (uc *MovementUseCase) Consume(ctx context.Context, in ConsumeInput) (*entity.Movement, error) {
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad debe ser mayor que cero")
	}
	p, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsConsumable {
		return nil, domain.ErrNotConsumable
	}
	if in.FromLocationID != "" {
		if _, err := uc.locationRepo.GetByID(ctx, in.FromLocationID); err != nil {
			return nil, err
		}
	}
	mov := &entity.Movement{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		Quantity:       in.Quantity,
		Type:           entity.MovementConsumption,
		MovedBy:        in.ActorID,
		Notes:          in.Notes,
	}
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		return uc.ApplyInTx(ctx, repos, mov)
	})
	if err != nil {
		return nil, err
	}
	uc.auditor.Record(in.ActorID, entity.AuditMove, "movement", mov.ID, map[string]any{
		"product_id": mov.ProductID,
		"quantity":   mov.Quantity,
		"type":       mov.Type,
	})
	uc.Publish(ctx, mov)
	return mov, nil
}

// List consulta el ledger con filtros.
func (uc *MovementUseCase) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return uc.movementRepo.List(ctx, filter)
}

// ProductHistory últimos movimientos de un producto.
func (uc *MovementUseCase) ProductHistory(ctx context.Context, productID string) ([]*entity.Movement, error) {
	if _, err := uc.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return uc.movementRepo.List(ctx, repository.MovementFilter{ProductID: productID, Limit: historyLimit})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
