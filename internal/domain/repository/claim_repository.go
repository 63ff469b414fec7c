package repository

import (
	"context"

	"back2me/internal/domain/entity"
)

type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id string) (*entity.Claim, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListByItem(ctx context.Context, itemID string) ([]*entity.Claim, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Claim, error)
	ListByClaimer(ctx context.Context, claimerID string) ([]*entity.Claim, error)
	ExistsForItemAndClaimer(ctx context.Context, itemID, claimerID string) (bool, error)
	CountPendingByOwner(ctx context.Context, ownerID string) (int, error)
}
