package audit_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/application/audit"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/internal/infrastructure/memory"
)

type brokenRepo struct{ panics bool }

func (r brokenRepo) Create(context.Context, *entity.AuditEntry) error {
	if r.panics {
		panic("conexión cerrada")
	}
	return errors.New("tabla bloqueada")
}

func (brokenRepo) List(context.Context, repository.AuditFilter) ([]*entity.AuditEntry, error) {
	return nil, nil
}

type failureCounter struct{ n atomic.Int32 }

func (c *failureCounter) AuditFailed() { c.n.Add(1) }

func TestRecorder_EscribeEnSegundoPlano(t *testing.T) {
	store := memory.New()
	rec := audit.NewRecorder(store.Audit(), nil, nil)

	rec.Record("u1", entity.AuditCreate, "product", "p1", map[string]any{"sku": "ELK-001"})
	rec.RecordFrom("10.0.0.7", "u1", entity.AuditDelete, "product", "p1", nil)
	rec.Wait()

	list, err := audit.NewUseCase(store.Audit()).List(context.Background(), repository.AuditFilter{EntityID: "p1"})
	require.NoError(t, err)
	require.Len(t, list, 2)

	byAction := map[string]int{}
	for i, e := range list {
		byAction[e.Action] = i
	}
	created := list[byAction[entity.AuditCreate]]
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, map[string]any{"sku": "ELK-001"}, created.Details)

	deleted := list[byAction[entity.AuditDelete]]
	assert.Equal(t, "10.0.0.7", deleted.IPAddress)
	assert.Nil(t, deleted.Details)
}

func TestRecorder_FallosNoLleganAlLlamador(t *testing.T) {
	counter := &failureCounter{}
	rec := audit.NewRecorder(brokenRepo{}, nil, counter)

	assert.NotPanics(t, func() {
		rec.Record("u1", entity.AuditUpdate, "loan", "l1", nil)
		rec.Record("u1", entity.AuditUpdate, "loan", "l2", nil)
	})
	rec.Wait()
	assert.Equal(t, int32(2), counter.n.Load())
}

func TestRecorder_PanicoDelRepositorioSeRecupera(t *testing.T) {
	counter := &failureCounter{}
	rec := audit.NewRecorder(brokenRepo{panics: true}, nil, counter)

	rec.Record("u1", entity.AuditMove, "movement", "m1", nil)
	rec.Wait()
	assert.Equal(t, int32(1), counter.n.Load())
}

func TestRecorder_DetalleNoSerializableSeOmite(t *testing.T) {
	store := memory.New()
	rec := audit.NewRecorder(store.Audit(), nil, nil)

	rec.Record("u1", entity.AuditCreate, "product", "p1", map[string]any{"fn": func() {}})
	rec.Wait()

	list, err := store.Audit().List(context.Background(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Details)
}
