package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/application/inventory"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// ProductUseCase CRUD de productos. El stock nunca se escribe aquí: el inicial y las
// ediciones de current_stock se registran como movimientos de ajuste.
type ProductUseCase struct {
	txRunner     inventory.TxRunner
	engine       *inventory.MovementUseCase
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	stockRepo    repository.ProductLocationRepository
	userRepo     repository.UserRepository
	auditor      ports.Auditor
	labels       ports.ReceiptRenderer
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner inventory.TxRunner,
	engine *inventory.MovementUseCase,
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	stockRepo repository.ProductLocationRepository,
	userRepo repository.UserRepository,
	auditor ports.Auditor,
	labels ports.ReceiptRenderer,
) *ProductUseCase {
	if auditor == nil {
		auditor = ports.NopAuditor{}
	}
	return &ProductUseCase{
		txRunner:     txRunner,
		engine:       engine,
		repo:         repo,
		categoryRepo: categoryRepo,
		stockRepo:    stockRepo,
		userRepo:     userRepo,
		auditor:      auditor,
		labels:       labels,
	}
}

// NextSKU calcula el siguiente SKU de la categoría. Lectura sin bloqueo:
// dos altas simultáneas pueden obtener el mismo valor y la restricción única decide.
func (uc *ProductUseCase) NextSKU(ctx context.Context, categoryID string) (string, error) {
	cat, err := uc.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return "", err
	}
	prefix := domaininv.SKUPrefix(cat.Prefix, cat.Name)
	if prefix == "" {
		return "", domain.Invalid("la categoría no tiene nombre ni prefijo")
	}
	last, err := uc.repo.LastSKUWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return domaininv.NextSKU(prefix, last), nil
}

// Create crea un producto. SKU vacío se genera desde la categoría y, ante colisión,
// se recalcula una vez. El stock inicial entra como movimiento ADJUST_IN en la misma tx.
func (uc *ProductUseCase) Create(ctx context.Context, actor Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if in.Name == "" {
		return nil, domain.Invalid("name es obligatorio")
	}
	if in.CategoryID == "" {
		return nil, domain.Invalid("category_id es obligatorio")
	}
	if err := validateProductNumbers(in.Price.IsNegative(), in.CostPrice.IsNegative(), in.MinStock, in.CurrentStock); err != nil {
		return nil, err
	}
	if !entity.ValidCondition(in.Condition) {
		return nil, domain.Invalid("condition desconocida")
	}
	if _, err := uc.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if in.Unit == "" {
		in.Unit = "pcs"
	}

	autoSKU := in.SKU == ""
	var product *entity.Product
	create := func() error {
		sku := in.SKU
		if autoSKU {
			next, err := uc.NextSKU(ctx, in.CategoryID)
			if err != nil {
				return err
			}
			sku = next
		}
		now := uc.engine.Now()
		product = &entity.Product{
			ID:           uuid.New().String(),
			SKU:          sku,
			Name:         in.Name,
			Description:  in.Description,
			CategoryID:   in.CategoryID,
			Unit:         in.Unit,
			Price:        in.Price,
			CostPrice:    in.CostPrice,
			MinStock:     in.MinStock,
			IsConsumable: in.IsConsumable,
			Condition:    in.Condition,
			Image:        in.Image,
			CreatedBy:    actor.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
			product.CurrentStock = 0
			if err := repos.Products.Create(ctx, product); err != nil {
				return err
			}
			if in.CurrentStock == 0 {
				return nil
			}
			product.CurrentStock = in.CurrentStock
			return uc.engine.ApplyInTx(ctx, repos, &entity.Movement{
				ProductID: product.ID,
				Quantity:  in.CurrentStock,
				Type:      entity.MovementAdjustIn,
				MovedBy:   actor.ID,
				Notes:     "Stock inicial",
			})
		})
	}
	err := create()
	if autoSKU && errors.Is(err, domain.ErrConflict) {
		err = create()
	}
	if err != nil {
		return nil, err
	}

	uc.auditor.Record(actor.ID, entity.AuditCreate, "product", product.ID, map[string]any{
		"sku":           product.SKU,
		"name":          product.Name,
		"current_stock": product.CurrentStock,
	})
	uc.engine.Publish(ctx)
	return toProductResponse(product, nil), nil
}

// GetByID obtiene un producto con su desglose por ubicación.
// Un VIEWER sin visibilidad sobre la categoría recibe ErrNotFound.
func (uc *ProductUseCase) GetByID(ctx context.Context, actor Actor, id string) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	visible, err := uc.visibleCategories(ctx, actor)
	if err != nil {
		return nil, err
	}
	if visible != nil && !slices.Contains(visible, p.CategoryID) {
		return nil, domain.NotFound("producto", id)
	}
	locs, err := uc.stockRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(p, locs), nil
}

// List lista productos con filtros; un VIEWER solo ve sus categorías visibles.
func (uc *ProductUseCase) List(ctx context.Context, actor Actor, filter repository.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Status != "" && !domaininv.ValidStockStatus(filter.Status) {
		return nil, domain.Invalid("status debe ser LOW, IN_STOCK u OVER_STOCK")
	}
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	visible, err := uc.visibleCategories(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter.CategoryIDs = visible
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p, nil))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}, nil
}

// Update actualiza campos del catálogo. Si llega current_stock, la diferencia se registra
// en el ledger como ajuste.
func (uc *ProductUseCase) Update(ctx context.Context, actor Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name no puede estar vacío")
		}
		p.Name = name
		changed["name"] = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
		if _, err := uc.categoryRepo.GetByID(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = *in.CategoryID
		changed["category_id"] = p.CategoryID
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.Invalid("price no puede ser negativo")
		}
		p.Price = *in.Price
		changed["price"] = p.Price.String()
	}
	if in.CostPrice != nil {
		if in.CostPrice.IsNegative() {
			return nil, domain.Invalid("cost_price no puede ser negativo")
		}
		p.CostPrice = *in.CostPrice
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, domain.Invalid("min_stock no puede ser negativo")
		}
		p.MinStock = *in.MinStock
		changed["min_stock"] = p.MinStock
	}
	if in.IsConsumable != nil {
		p.IsConsumable = *in.IsConsumable
	}
	if in.Condition != nil {
		if !entity.ValidCondition(*in.Condition) {
			return nil, domain.Invalid("condition desconocida")
		}
		p.Condition = *in.Condition
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.CurrentStock != nil && *in.CurrentStock < 0 {
		return nil, domain.Invalid("current_stock no puede ser negativo")
	}
	p.UpdatedAt = time.Now()

	// Catálogo y ajuste de stock confirman o revierten juntos.
	var mov *entity.Movement
	var previous int
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		mov = nil
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		if in.CurrentStock == nil {
			return nil
		}
		var err error
		mov, previous, err = uc.engine.AdjustStockInTx(ctx, repos, p.ID, *in.CurrentStock, actor.ID, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.auditor.Record(actor.ID, entity.AuditUpdate, "product", p.ID, changed)
	if mov != nil {
		uc.engine.PublishAdjustment(ctx, actor.ID, previous, *in.CurrentStock, mov)
	} else {
		uc.engine.Publish(ctx)
	}
	return uc.GetByID(ctx, Actor{ID: actor.ID, Role: entity.RoleAdmin}, p.ID)
}

// Delete elimina un producto sin historial. Con movimientos, préstamos o ventas
// asociados devuelve ErrConflict: el ledger no se borra en cascada.
func (uc *ProductUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	has, err := uc.repo.HasHistory(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: el producto %s tiene historial de movimientos", domain.ErrConflict, p.SKU)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.auditor.Record(actor.ID, entity.AuditDelete, "product", id, map[string]any{"sku": p.SKU, "name": p.Name})
	uc.engine.Publish(ctx)
	return nil
}

// Label genera la etiqueta PDF con QR del SKU.
func (uc *ProductUseCase) Label(ctx context.Context, id string) ([]byte, string, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.labels.ProductLabel(p)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar etiqueta: %w", err)
	}
	return pdf, p.SKU + ".pdf", nil
}

// visibleCategories nil = sin restricción (ADMIN); slice vacío = no ve nada.
func (uc *ProductUseCase) visibleCategories(ctx context.Context, actor Actor) ([]string, error) {
	if actor.IsAdmin() {
		return nil, nil
	}
	ids, err := uc.userRepo.VisibleCategories(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func validateProductNumbers(negPrice, negCost bool, minStock, currentStock int) error {
	switch {
	case negPrice:
		return domain.Invalid("price no puede ser negativo")
	case negCost:
		return domain.Invalid("cost_price no puede ser negativo")
	case minStock < 0:
		return domain.Invalid("min_stock no puede ser negativo")
	case currentStock < 0:
		return domain.Invalid("current_stock no puede ser negativo")
	}
	return nil
}

func toProductResponse(p *entity.Product, locs []*entity.ProductLocation) *dto.ProductResponse {
	out := &dto.ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		Unit:         p.Unit,
		Price:        p.Price,
		CostPrice:    p.CostPrice,
		MinStock:     p.MinStock,
		CurrentStock: p.CurrentStock,
		StockStatus:  domaininv.StockStatus(p.CurrentStock, p.MinStock),
		IsConsumable: p.IsConsumable,
		Condition:    p.Condition,
		Image:        p.Image,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, l := range locs {
		out.Locations = append(out.Locations, dto.ProductLocationResponse{LocationID: l.LocationID, Quantity: l.Quantity})
	}
	return out
}
