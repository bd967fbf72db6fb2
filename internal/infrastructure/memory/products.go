package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

type productRepo struct{ db }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	return r.with(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrConflict
		}
		for _, other := range st.products {
			if other.SKU == p.SKU {
				return domain.ErrConflict
			}
		}
		if p.CategoryID != "" {
			if _, ok := st.categories[p.CategoryID]; !ok {
				return domain.NotFound("categoría", p.CategoryID)
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("producto", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *productRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.with(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

// Update no toca CurrentStock.
func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	return r.with(func(st *state) error {
		cur, ok := st.products[p.ID]
		if !ok {
			return domain.NotFound("producto", p.ID)
		}
		for _, other := range st.products {
			if other.ID != p.ID && other.SKU == p.SKU {
				return domain.ErrConflict
			}
		}
		next := *p
		next.CurrentStock = cur.CurrentStock
		st.products[p.ID] = next
		return nil
	})
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.NotFound("producto", id)
		}
		delete(st.products, id)
		for k := range st.stock {
			if k.productID == id {
				delete(st.stock, k)
			}
		}
		return nil
	})
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.with(func(st *state) error {
		var allowed map[string]bool
		if f.CategoryIDs != nil {
			allowed = make(map[string]bool, len(f.CategoryIDs))
			for _, id := range f.CategoryIDs {
				allowed[id] = true
			}
		}
		search := strings.ToLower(f.Search)
		list := make([]*entity.Product, 0, len(st.products))
		for _, k := range sortedKeys(st.products) {
			p := st.products[k]
			if f.CategoryID != "" && p.CategoryID != f.CategoryID {
				continue
			}
			if allowed != nil && !allowed[p.CategoryID] {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.SKU), search) {
				continue
			}
			if f.Status != "" && inventory.StockStatus(p.CurrentStock, p.MinStock) != f.Status {
				continue
			}
			list = append(list, &p)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
		out = page(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *productRepo) LastSKUWithPrefix(_ context.Context, prefix string) (string, error) {
	var last string
	err := r.with(func(st *state) error {
		best := -1
		for _, p := range st.products {
			if n, ok := inventory.SKUNumber(prefix, p.SKU); ok && n > best {
				best, last = n, p.SKU
			}
		}
		return nil
	})
	return last, err
}

func (r *productRepo) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	var stock int
	err := r.with(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("producto", id)
		}
		if p.CurrentStock+delta < 0 {
			return &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.CurrentStock,
				Requested:   -delta,
			}
		}
		p.CurrentStock += delta
		st.products[id] = p
		stock = p.CurrentStock
		return nil
	})
	return stock, err
}

func (r *productRepo) HasHistory(_ context.Context, id string) (bool, error) {
	var has bool
	err := r.with(func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == id {
				has = true
				return nil
			}
		}
		for _, l := range st.loans {
			if l.ProductID == id {
				has = true
				return nil
			}
		}
		for _, s := range st.sales {
			for _, it := range s.Items {
				if it.ProductID == id {
					has = true
					return nil
				}
			}
		}
		return nil
	})
	return has, err
}
