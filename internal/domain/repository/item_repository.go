package repository

import (
	"context"

	"back2me/internal/domain/entity"
)

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// List returns all items, or only those with the given status when
	// status is non-empty.
	List(ctx context.Context, status string) ([]*entity.Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	Delete(ctx context.Context, id string) error
}
