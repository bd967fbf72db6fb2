// Package memory implementa los puertos de persistencia sobre mapas en memoria para
// los tests de los casos de uso; la aplicación en ejecución usa postgres.
// Las transacciones se serializan con un mutex global y se revierten restaurando
// una copia del estado tomada al inicio de Run.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

type stockKey struct {
	productID  string
	locationID string
}

type state struct {
	products   map[string]entity.Product
	categories map[string]entity.Category
	locations  map[string]entity.Location
	stock      map[stockKey]entity.ProductLocation
	movements  []entity.Movement
	loans      map[string]entity.Loan
	sales      map[string]entity.Sale
	audit      []entity.AuditEntry
	users      map[string]entity.User
	visibility map[string][]string
}

func newState() *state {
	return &state{
		products:   map[string]entity.Product{},
		categories: map[string]entity.Category{},
		locations:  map[string]entity.Location{},
		stock:      map[stockKey]entity.ProductLocation{},
		loans:      map[string]entity.Loan{},
		sales:      map[string]entity.Sale{},
		users:      map[string]entity.User{},
		visibility: map[string][]string{},
	}
}

// clone copia profunda de lo que Run puede modificar.
func (st *state) clone() *state {
	c := newState()
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.locations {
		c.locations[k] = v
	}
	for k, v := range st.stock {
		c.stock[k] = v
	}
	c.movements = append([]entity.Movement(nil), st.movements...)
	for k, v := range st.loans {
		c.loans[k] = copyLoan(v)
	}
	for k, v := range st.sales {
		c.sales[k] = copySale(v)
	}
	c.audit = append([]entity.AuditEntry(nil), st.audit...)
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.visibility {
		c.visibility[k] = append([]string(nil), v...)
	}
	return c
}

// Store base de datos en memoria. El valor cero no es usable; usar New.
type Store struct {
	mu sync.Mutex
	st *state
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{st: newState()}
}

// db acceso al estado; dentro de Run el mutex ya está tomado.
type db struct {
	s    *Store
	inTx bool
}

func (d db) with(fn func(st *state) error) error {
	if !d.inTx {
		d.s.mu.Lock()
		defer d.s.mu.Unlock()
	}
	return fn(d.s.st)
}

// Repositorios fuera de transacción.
func (s *Store) Products() repository.ProductRepository      { return &productRepo{db{s: s}} }
func (s *Store) Categories() repository.CategoryRepository   { return &categoryRepo{db{s: s}} }
func (s *Store) Locations() repository.LocationRepository    { return &locationRepo{db{s: s}} }
func (s *Store) Stock() repository.ProductLocationRepository { return &stockRepo{db{s: s}} }
func (s *Store) Movements() repository.MovementRepository    { return &movementRepo{db{s: s}} }
func (s *Store) Loans() repository.LoanRepository            { return &loanRepo{db{s: s}} }
func (s *Store) Sales() repository.SaleRepository            { return &saleRepo{db{s: s}} }
func (s *Store) Audit() repository.AuditRepository           { return &auditRepo{db{s: s}} }
func (s *Store) Users() repository.UserRepository            { return &userRepo{db{s: s}} }
func (s *Store) Dashboard() repository.DashboardRepository   { return &dashboardRepo{db{s: s}} }

// TxRunner ejecuta transacciones serializadas sobre el almacén.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner del almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios atados a la transacción. Si fn falla, el estado
// vuelve a la copia tomada al inicio.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	snapshot := r.s.st.clone()
	tx := db{s: r.s, inTx: true}
	repos := repository.TxRepos{
		Products:  &productRepo{tx},
		Locations: &locationRepo{tx},
		Stock:     &stockRepo{tx},
		Movements: &movementRepo{tx},
		Loans:     &loanRepo{tx},
		Sales:     &saleRepo{tx},
	}
	if err := fn(ctx, repos); err != nil {
		r.s.st = snapshot
		return err
	}
	return nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return []T{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyLoan(l entity.Loan) entity.Loan {
	if l.ReturnDate != nil {
		t := *l.ReturnDate
		l.ReturnDate = &t
	}
	if l.LastNotifiedAt != nil {
		t := *l.LastNotifiedAt
		l.LastNotifiedAt = &t
	}
	return l
}

func copySale(s entity.Sale) entity.Sale {
	s.Items = append([]entity.SaleItem(nil), s.Items...)
	return s
}
