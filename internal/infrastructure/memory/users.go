package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/inventory"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type userRepo struct{ db }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	return r.with(func(st *state) error {
		for _, other := range st.users {
			if other.ID == u.ID || other.Email == u.Email {
				return domain.ErrConflict
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NotFound("usuario", id)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.with(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return domain.NotFound("usuario", email)
	})
	return out, err
}

func (r *userRepo) List(_ context.Context) ([]*entity.User, error) {
	var out []*entity.User
	err := r.with(func(st *state) error {
		for _, k := range sortedKeys(st.users) {
			u := st.users[k]
			out = append(out, &u)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Email < out[j].Email })
		return nil
	})
	return out, err
}

func (r *userRepo) Update(_ context.Context, u *entity.User) error {
	return r.with(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return domain.NotFound("usuario", u.ID)
		}
		for _, other := range st.users {
			if other.ID != u.ID && other.Email == u.Email {
				return domain.ErrConflict
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return domain.NotFound("usuario", id)
		}
		delete(st.users, id)
		delete(st.visibility, id)
		return nil
	})
}

func (r *userRepo) SetVisibleCategories(_ context.Context, userID string, categoryIDs []string) error {
	return r.with(func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return domain.NotFound("usuario", userID)
		}
		st.visibility[userID] = append([]string{}, categoryIDs...)
		return nil
	})
}

// VisibleCategories devuelve un slice vacío (no nil) si el usuario no tiene categorías asignadas.
func (r *userRepo) VisibleCategories(_ context.Context, userID string) ([]string, error) {
	out := []string{}
	err := r.with(func(st *state) error {
		out = append(out, st.visibility[userID]...)
		return nil
	})
	return out, err
}

type auditRepo struct{ db }

func (r *auditRepo) Create(_ context.Context, e *entity.AuditEntry) error {
	return r.with(func(st *state) error {
		st.audit = append(st.audit, *e)
		return nil
	})
}

// List más recientes primero.
func (r *auditRepo) List(_ context.Context, f repository.AuditFilter) ([]*entity.AuditEntry, error) {
	var out []*entity.AuditEntry
	err := r.with(func(st *state) error {
		list := make([]*entity.AuditEntry, 0)
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if f.UserID != "" && e.UserID != f.UserID {
				continue
			}
			if f.EntityType != "" && e.EntityType != f.EntityType {
				continue
			}
			if f.EntityID != "" && e.EntityID != f.EntityID {
				continue
			}
			list = append(list, &e)
		}
		out = page(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

type dashboardRepo struct{ db }

func (r *dashboardRepo) Counts(_ context.Context, now time.Time) (repository.DashboardCounts, error) {
	c := repository.DashboardCounts{AssetValue: decimal.Zero, MovementsByDay: map[string]int{}}
	err := r.with(func(st *state) error {
		for _, p := range st.products {
			c.TotalProducts++
			c.TotalUnits += p.CurrentStock
			c.AssetValue = c.AssetValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.CurrentStock))))
			switch inventory.StockStatus(p.CurrentStock, p.MinStock) {
			case inventory.StockLow:
				c.LowStock++
			case inventory.StockOver:
				c.OverStock++
			}
		}
		today := now.Format("2006-01-02")
		weekAgo := now.AddDate(0, 0, -6).Format("2006-01-02")
		for _, m := range st.movements {
			day := m.CreatedAt.In(now.Location()).Format("2006-01-02")
			if day == today {
				c.MovementsToday++
			}
			if day >= weekAgo && day <= today {
				c.MovementsByDay[day]++
			}
		}
		return nil
	})
	return c, err
}
