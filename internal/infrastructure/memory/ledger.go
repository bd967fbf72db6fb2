package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type movementRepo struct{ db }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.with(func(st *state) error {
		if _, ok := st.products[m.ProductID]; !ok {
			return domain.NotFound("producto", m.ProductID)
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

// List más recientes primero.
func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.with(func(st *state) error {
		list := make([]*entity.Movement, 0)
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && m.CreatedAt.After(*f.To) {
				continue
			}
			list = append(list, &m)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
		out = page(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

type loanRepo struct{ db }

func (r *loanRepo) Create(_ context.Context, l *entity.Loan) error {
	return r.with(func(st *state) error {
		for _, other := range st.loans {
			if other.ID == l.ID || other.TransactionCode == l.TransactionCode {
				return domain.ErrConflict
			}
		}
		if _, ok := st.products[l.ProductID]; !ok {
			return domain.NotFound("producto", l.ProductID)
		}
		st.loans[l.ID] = copyLoan(*l)
		return nil
	})
}

func (r *loanRepo) GetByID(_ context.Context, id string) (*entity.Loan, error) {
	var out *entity.Loan
	err := r.with(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.NotFound("préstamo", id)
		}
		l = copyLoan(l)
		out = &l
		return nil
	})
	return out, err
}

// GetForUpdate dentro de Run el mutex ya serializa.
func (r *loanRepo) GetForUpdate(ctx context.Context, id string) (*entity.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *loanRepo) UpdateStatus(_ context.Context, l *entity.Loan, expected entity.LoanStatus) error {
	return r.with(func(st *state) error {
		cur, ok := st.loans[l.ID]
		if !ok {
			return domain.NotFound("préstamo", l.ID)
		}
		if cur.Status != expected {
			return domain.ErrConflict
		}
		cur.Status = l.Status
		cur.ReturnDate = l.ReturnDate
		cur.UpdatedAt = l.UpdatedAt
		st.loans[l.ID] = copyLoan(cur)
		return nil
	})
}

func (r *loanRepo) MarkOverdue(_ context.Context, now time.Time) (int, error) {
	n := 0
	err := r.with(func(st *state) error {
		for id, l := range st.loans {
			if l.Status == entity.LoanActive && l.DueDate.Before(now) {
				l.Status = entity.LoanOverdue
				l.UpdatedAt = now
				st.loans[id] = l
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *loanRepo) ListDueForReminder(_ context.Context, cutoff time.Time) ([]*entity.Loan, error) {
	var out []*entity.Loan
	err := r.with(func(st *state) error {
		for _, k := range sortedKeys(st.loans) {
			l := copyLoan(st.loans[k])
			if l.Status != entity.LoanOverdue {
				continue
			}
			if l.LastNotifiedAt != nil && !l.LastNotifiedAt.Before(cutoff) {
				continue
			}
			out = append(out, &l)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
		return nil
	})
	return out, err
}

func (r *loanRepo) ClaimReminder(_ context.Context, id string, at, cutoff time.Time) (bool, error) {
	claimed := false
	err := r.with(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.NotFound("préstamo", id)
		}
		if l.Status != entity.LoanOverdue || (l.LastNotifiedAt != nil && !l.LastNotifiedAt.Before(cutoff)) {
			return nil
		}
		t := at
		l.LastNotifiedAt = &t
		st.loans[id] = l
		claimed = true
		return nil
	})
	return claimed, err
}

func (r *loanRepo) ReleaseReminder(_ context.Context, id string, claimedAt time.Time, previous *time.Time) error {
	return r.with(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.NotFound("préstamo", id)
		}
		if l.LastNotifiedAt == nil || !l.LastNotifiedAt.Equal(claimedAt) {
			return nil
		}
		l.LastNotifiedAt = nil
		if previous != nil {
			t := *previous
			l.LastNotifiedAt = &t
		}
		st.loans[id] = l
		return nil
	})
}

func (r *loanRepo) TouchNotified(_ context.Context, id string, at time.Time) error {
	return r.with(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.NotFound("préstamo", id)
		}
		t := at
		l.LastNotifiedAt = &t
		st.loans[id] = l
		return nil
	})
}

func (r *loanRepo) List(_ context.Context, f repository.LoanFilter) ([]*entity.Loan, error) {
	var out []*entity.Loan
	err := r.with(func(st *state) error {
		search := strings.ToLower(f.Search)
		list := make([]*entity.Loan, 0)
		for _, k := range sortedKeys(st.loans) {
			l := copyLoan(st.loans[k])
			if f.Status != "" && l.Status != f.Status {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(l.BorrowerName), search) &&
				!strings.Contains(strings.ToLower(l.TransactionCode), search) {
				continue
			}
			list = append(list, &l)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
		out = page(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *loanRepo) CountByStatus(_ context.Context) (map[entity.LoanStatus]int, error) {
	counts := map[entity.LoanStatus]int{}
	err := r.with(func(st *state) error {
		for _, l := range st.loans {
			counts[l.Status]++
		}
		return nil
	})
	return counts, err
}

type saleRepo struct{ db }

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	return r.with(func(st *state) error {
		for _, other := range st.sales {
			if other.ID == s.ID || other.InvoiceCode == s.InvoiceCode {
				return domain.ErrConflict
			}
		}
		head := *s
		head.Items = nil
		st.sales[s.ID] = head
		return nil
	})
}

func (r *saleRepo) AddItem(_ context.Context, it *entity.SaleItem) error {
	return r.with(func(st *state) error {
		s, ok := st.sales[it.SaleID]
		if !ok {
			return domain.NotFound("venta", it.SaleID)
		}
		p, ok := st.products[it.ProductID]
		if !ok {
			return domain.NotFound("producto", it.ProductID)
		}
		item := *it
		item.ProductName = p.Name
		s.Items = append(append([]entity.SaleItem(nil), s.Items...), item)
		st.sales[s.ID] = s
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.with(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.NotFound("venta", id)
		}
		s = copySale(s)
		out = &s
		return nil
	})
	return out, err
}

func (r *saleRepo) List(_ context.Context, f repository.SaleFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.with(func(st *state) error {
		search := strings.ToLower(f.Search)
		list := make([]*entity.Sale, 0)
		for _, k := range sortedKeys(st.sales) {
			s := copySale(st.sales[k])
			if f.From != nil && s.SaleDate.Before(*f.From) {
				continue
			}
			if f.To != nil && s.SaleDate.After(*f.To) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(s.InvoiceCode), search) &&
				!strings.Contains(strings.ToLower(s.CustomerName), search) {
				continue
			}
			list = append(list, &s)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].SaleDate.After(list[j].SaleDate) })
		out = page(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *saleRepo) Summary(_ context.Context, from, to time.Time) (repository.SalesSummary, error) {
	sum := repository.SalesSummary{Revenue: decimal.Zero}
	err := r.with(func(st *state) error {
		for _, s := range st.sales {
			if s.SaleDate.Before(from) || s.SaleDate.After(to) {
				continue
			}
			sum.Count++
			sum.Revenue = sum.Revenue.Add(s.TotalAmount)
		}
		return nil
	})
	return sum, err
}
