package usecase

import (
	"context"
	"sort"
	"strings"

	"back2me/internal/domain/entity"
	"back2me/internal/domain/repository"
	"back2me/pkg/errors"
)

type ItemUseCase struct {
	itemRepo repository.ItemRepository
	now      func() string
}

func NewItemUseCase(itemRepo repository.ItemRepository) *ItemUseCase {
	return &ItemUseCase{
		itemRepo: itemRepo,
		now:      nowUTC,
	}
}

type CreateItemInput struct {
	Name        string
	Location    string
	Description string
	Status      string
	ImageURL    string
}

type UpdateItemInput struct {
	Name        string
	Location    string
	Description string
	Status      string
	ImageURL    string
}

type ListItemsInput struct {
	Status string
	Search string
}

func (uc *ItemUseCase) CreateItem(ctx context.Context, userID string, input CreateItemInput) (*entity.Item, error) {
	// New reports are either lost or found; resolved only happens through
	// claim approval.
	if input.Status != entity.ItemStatusLost && input.Status != entity.ItemStatusFound {
		return nil, errors.BadRequest("Status must be lost or found", nil)
	}

	item := &entity.Item{
		Name:        input.Name,
		Location:    input.Location,
		Description: input.Description,
		Status:      input.Status,
		CreatedBy:   userID,
		CreatedAt:   uc.now(),
		ImageURL:    input.ImageURL,
	}

	if err := uc.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (uc *ItemUseCase) GetItem(ctx context.Context, id string) (*entity.Item, error) {
	return uc.itemRepo.GetByID(ctx, id)
}

// ListItems returns items newest first, optionally filtered by status and a
// free-text search over name, location and description. The status filter
// runs in the store; search and sort run in memory, since the store cannot
// combine them.
func (uc *ItemUseCase) ListItems(ctx context.Context, input ListItemsInput) ([]*entity.Item, error) {
	items, err := uc.itemRepo.List(ctx, input.Status)
	if err != nil {
		return nil, err
	}

	if input.Search != "" {
		needle := strings.ToLower(input.Search)
		filtered := items[:0]
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Name), needle) ||
				strings.Contains(strings.ToLower(item.Location), needle) ||
				strings.Contains(strings.ToLower(item.Description), needle) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	sortItemsNewestFirst(items)
	return items, nil
}

func (uc *ItemUseCase) MyItems(ctx context.Context, userID string) ([]*entity.Item, error) {
	items, err := uc.itemRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	sortItemsNewestFirst(items)
	return items, nil
}

func (uc *ItemUseCase) UpdateItem(ctx context.Context, userID, itemID string, input UpdateItemInput) (*entity.Item, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(userID) {
		return nil, errors.Forbidden("Only the owner can edit this item", nil)
	}

	if input.Status != entity.ItemStatusLost &&
		input.Status != entity.ItemStatusFound &&
		input.Status != entity.ItemStatusResolved {
		return nil, errors.BadRequest("Invalid item status", nil)
	}

	item.Name = input.Name
	item.Location = input.Location
	item.Description = input.Description
	item.Status = input.Status
	if input.ImageURL != "" {
		item.ImageURL = input.ImageURL
	}

	if err := uc.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (uc *ItemUseCase) DeleteItem(ctx context.Context, userID, itemID string) error {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if !item.IsOwnedBy(userID) {
		return errors.Forbidden("Only the owner can delete this item", nil)
	}

	return uc.itemRepo.Delete(ctx, itemID)
}

func sortItemsNewestFirst(items []*entity.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
}
