package billing

import (
	"context"
	"time"

	"github.com/jhoicas/stockflow-api/internal/domain/entity"
	"github.com/jhoicas/stockflow-api/internal/domain/repository"
)

// InventoryUseCase integra las ventas con el motor de movimientos.
// ApplyInTx escribe cada salida con los repositorios de la transacción del llamador;
// si retorna error (ej: stock insuficiente) el llamador hace rollback de toda la venta.
type InventoryUseCase interface {
	ApplyInTx(ctx context.Context, repos repository.TxRepos, m *entity.Movement) error
	Publish(ctx context.Context, movs ...*entity.Movement)
	Now() time.Time
}
