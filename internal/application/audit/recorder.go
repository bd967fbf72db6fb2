package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

const defaultWriteTimeout = 5 * time.Second

// FailureCounter recibe cada escritura de auditoría fallida (métricas).
type FailureCounter interface {
	AuditFailed()
}

// Recorder escribe la auditoría en segundo plano después del commit del ledger.
// Los fallos se registran en el log y nunca llegan al llamador.
type Recorder struct {
	repo     repository.AuditRepository
	log      *logger.Logger
	failures FailureCounter
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewRecorder construye el grabador. failures puede ser nil.
func NewRecorder(repo repository.AuditRepository, log *logger.Logger, failures FailureCounter) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{
		repo:     repo,
		log:      log.Component("audit"),
		failures: failures,
		timeout:  defaultWriteTimeout,
		now:      time.Now,
	}
}

// Record despacha la escritura en una goroutine con su propio timeout.
func (r *Recorder) Record(actorID, action, entityType, entityID string, details any) {
	r.RecordFrom("", actorID, action, entityType, entityID, details)
}

// RecordFrom igual que Record pero con la IP de origen de la petición.
func (r *Recorder) RecordFrom(ip, actorID, action, entityType, entityID string, details any) {
	entry := &entity.AuditEntry{
		ID:         uuid.New().String(),
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ip,
		CreatedAt:  r.now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			r.log.Warn().Err(err).Str("entity_type", entityType).Msg("detalle de auditoría no serializable")
		} else {
			entry.Details = raw
		}
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.fail(entry, nil, p)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.repo.Create(ctx, entry); err != nil {
			r.fail(entry, err, nil)
		}
	}()
}

func (r *Recorder) fail(entry *entity.AuditEntry, err error, panicValue any) {
	ev := r.log.Error().
		Str("action", entry.Action).
		Str("entity_type", entry.EntityType).
		Str("entity_id", entry.EntityID).
		Str("user_id", entry.UserID)
	if err != nil {
		ev = ev.Err(err)
	}
	if panicValue != nil {
		ev = ev.Interface("panic", panicValue)
	}
	ev.Msg("no se pudo registrar auditoría")
	if r.failures != nil {
		r.failures.AuditFailed()
	}
}

// Wait bloquea hasta que terminen las escrituras en curso (apagado y tests).
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// UseCase consulta de la auditoría (solo ADMIN).
type UseCase struct {
	repo repository.AuditRepository
}

// NewUseCase construye el caso de uso de consulta.
func NewUseCase(repo repository.AuditRepository) *UseCase {
	return &UseCase{repo: repo}
}

// List devuelve registros de auditoría, más recientes primero.
func (uc *UseCase) List(ctx context.Context, filter repository.AuditFilter) ([]dto.AuditEntryResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditEntryResponse, 0, len(list))
	for _, e := range list {
		item := dto.AuditEntryResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			IPAddress:  e.IPAddress,
			CreatedAt:  e.CreatedAt,
		}
		if len(e.Details) > 0 {
			_ = json.Unmarshal(e.Details, &item.Details)
		}
		out = append(out, item)
	}
	return out, nil
}
