package inventory

import (
	"context"

	"github.com/jhoicas/stockflow-api/internal/application/dto"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// RecordMovementFromRequest adapta el request HTTP a RecordMovement.
func (uc *MovementUseCase) RecordMovementFromRequest(ctx context.Context, actorID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	mov, err := uc.RecordMovement(ctx, MovementInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		ActorID:        actorID,
		Notes:          in.Notes,
	})
	if err != nil {
		return nil, err
	}
	out := ToMovementResponse(mov)
	return &out, nil
}

// ToMovementResponse convierte una entrada del ledger a DTO.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		Quantity:       m.Quantity,
		Type:           string(m.Type),
		MovedBy:        m.MovedBy,
		Notes:          m.Notes,
		Reference:      m.Reference,
		CreatedAt:      m.CreatedAt,
	}
}

// ToMovementResponses convierte una lista.
func ToMovementResponses(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}
