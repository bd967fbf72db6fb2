package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

type categoryRepo struct{ db }

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	return r.with(func(st *state) error {
		for _, other := range st.categories {
			if other.ID == c.ID || other.Name == c.Name {
				return domain.ErrConflict
			}
		}
		st.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.with(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return domain.NotFound("categoría", id)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *categoryRepo) Update(_ context.Context, c *entity.Category) error {
	return r.with(func(st *state) error {
		if _, ok := st.categories[c.ID]; !ok {
			return domain.NotFound("categoría", c.ID)
		}
		for _, other := range st.categories {
			if other.ID != c.ID && other.Name == c.Name {
				return domain.ErrConflict
			}
		}
		st.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return domain.NotFound("categoría", id)
		}
		delete(st.categories, id)
		for u, ids := range st.visibility {
			st.visibility[u] = without(ids, id)
		}
		return nil
	})
}

func (r *categoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.with(func(st *state) error {
		for _, k := range sortedKeys(st.categories) {
			c := st.categories[k]
			out = append(out, &c)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (r *categoryRepo) ProductCounts(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	err := r.with(func(st *state) error {
		for _, p := range st.products {
			if p.CategoryID != "" {
				counts[p.CategoryID]++
			}
		}
		return nil
	})
	return counts, err
}

func (r *categoryRepo) HasDependents(_ context.Context, id string) (bool, error) {
	var has bool
	err := r.with(func(st *state) error {
		for _, p := range st.products {
			if p.CategoryID == id {
				has = true
				return nil
			}
		}
		for _, c := range st.categories {
			if c.ParentID == id {
				has = true
				return nil
			}
		}
		return nil
	})
	return has, err
}

type locationRepo struct{ db }

func (r *locationRepo) Create(_ context.Context, l *entity.Location) error {
	return r.with(func(st *state) error {
		if _, ok := st.locations[l.ID]; ok {
			return domain.ErrConflict
		}
		st.locations[l.ID] = *l
		return nil
	})
}

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	var out *entity.Location
	err := r.with(func(st *state) error {
		l, ok := st.locations[id]
		if !ok {
			return domain.NotFound("ubicación", id)
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *locationRepo) Update(_ context.Context, l *entity.Location) error {
	return r.with(func(st *state) error {
		if _, ok := st.locations[l.ID]; !ok {
			return domain.NotFound("ubicación", l.ID)
		}
		st.locations[l.ID] = *l
		return nil
	})
}

func (r *locationRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, ok := st.locations[id]; !ok {
			return domain.NotFound("ubicación", id)
		}
		delete(st.locations, id)
		for k := range st.stock {
			if k.locationID == id {
				delete(st.stock, k)
			}
		}
		return nil
	})
}

func (r *locationRepo) List(_ context.Context) ([]*entity.Location, error) {
	var out []*entity.Location
	err := r.with(func(st *state) error {
		for _, k := range sortedKeys(st.locations) {
			l := st.locations[k]
			out = append(out, &l)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (r *locationRepo) HasDependents(_ context.Context, id string) (bool, error) {
	var has bool
	err := r.with(func(st *state) error {
		for _, l := range st.locations {
			if l.ParentID == id {
				has = true
				return nil
			}
		}
		for k, pl := range st.stock {
			if k.locationID == id && pl.Quantity != 0 {
				has = true
				return nil
			}
		}
		for _, m := range st.movements {
			if m.FromLocationID == id || m.ToLocationID == id {
				has = true
				return nil
			}
		}
		return nil
	})
	return has, err
}

type stockRepo struct{ db }

func (r *stockRepo) Adjust(_ context.Context, productID, locationID string, delta int) (int, error) {
	var qty int
	err := r.with(func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return domain.NotFound("producto", productID)
		}
		if _, ok := st.locations[locationID]; !ok {
			return domain.NotFound("ubicación", locationID)
		}
		k := stockKey{productID, locationID}
		pl := st.stock[k]
		pl.ProductID, pl.LocationID = productID, locationID
		pl.Quantity += delta
		pl.UpdatedAt = time.Now()
		st.stock[k] = pl
		qty = pl.Quantity
		return nil
	})
	return qty, err
}

func (r *stockRepo) Get(_ context.Context, productID, locationID string) (*entity.ProductLocation, error) {
	var out *entity.ProductLocation
	err := r.with(func(st *state) error {
		pl, ok := st.stock[stockKey{productID, locationID}]
		if !ok {
			return domain.NotFound("stock", productID+"/"+locationID)
		}
		out = &pl
		return nil
	})
	return out, err
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.ProductLocation, error) {
	var out []*entity.ProductLocation
	err := r.with(func(st *state) error {
		for k, pl := range st.stock {
			if k.productID == productID {
				pl := pl
				out = append(out, &pl)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
		return nil
	})
	return out, err
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
