package biz

import (
	"context"
	"time"

	apperrors "mediatrack/internal/pkg/errors"

	"mediatrack/internal/enrich"
)

// Item is one saved title in a user's collection: the enriched record plus
// the user's bookkeeping around it.
type Item struct {
	enrich.MediaRecord

	Category   string `json:"category,omitempty"`
	UserReview string `json:"userReview,omitempty"`
	SortOrder  int    `json:"sortOrder"`
	SavedAt    int64  `json:"savedAt,omitempty"`
}

// ItemRepo is the persistence contract, keyed by username throughout.
type ItemRepo interface {
	List(ctx context.Context, username string) ([]Item, error)
	Get(ctx context.Context, username, id string) (*Item, error)
	Upsert(ctx context.Context, username string, item *Item) error
	Remove(ctx context.Context, username, id string) error
	Reorder(ctx context.Context, username string, ids []string) error
	ReplaceAll(ctx context.Context, username string, items []Item) error
	UpdateLatestInfo(ctx context.Context, username, id, latestInfo string, checkedAt int64) error
}

// CollectionUseCase holds the business rules around a user's saved items.
type CollectionUseCase struct {
	repo ItemRepo
}

func NewCollectionUseCase(repo ItemRepo) *CollectionUseCase {
	return &CollectionUseCase{repo: repo}
}

func (uc *CollectionUseCase) List(ctx context.Context, username string) ([]Item, error) {
	return uc.repo.List(ctx, username)
}

func (uc *CollectionUseCase) Save(ctx context.Context, username string, item Item) (*Item, error) {
	if item.Title == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "item title is required")
	}
	if item.ID == "" {
		return nil, apperrors.New(apperrors.CodeBadRequest, "item id is required")
	}
	if item.Status == "" {
		item.Status = enrich.DefaultStatus
	}
	if item.SavedAt == 0 {
		item.SavedAt = time.Now().Unix()
	}
	if err := uc.repo.Upsert(ctx, username, &item); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "save item", err)
	}
	return &item, nil
}

func (uc *CollectionUseCase) Remove(ctx context.Context, username, id string) error {
	if err := uc.repo.Remove(ctx, username, id); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "remove item", err)
	}
	return nil
}

// Reorder rewrites the sort order to match ids. Items missing from ids
// keep their relative position after the reordered ones.
func (uc *CollectionUseCase) Reorder(ctx context.Context, username string, ids []string) error {
	if len(ids) == 0 {
		return apperrors.New(apperrors.CodeBadRequest, "no item ids given")
	}
	if err := uc.repo.Reorder(ctx, username, ids); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "reorder items", err)
	}
	return nil
}

// Export returns the full collection for download.
func (uc *CollectionUseCase) Export(ctx context.Context, username string) ([]Item, error) {
	return uc.repo.List(ctx, username)
}

// Import replaces the user's collection with the given items.
func (uc *CollectionUseCase) Import(ctx context.Context, username string, items []Item) (int, error) {
	valid := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Title == "" {
			continue
		}
		if item.Status == "" {
			item.Status = enrich.DefaultStatus
		}
		valid = append(valid, item)
	}
	if err := uc.repo.ReplaceAll(ctx, username, valid); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "import items", err)
	}
	return len(valid), nil
}

// ApplyUpdates records fresh latestUpdateInfo from an update check.
func (uc *CollectionUseCase) ApplyUpdates(ctx context.Context, username string, updates []enrich.Update) error {
	for _, upd := range updates {
		if !upd.HasNewUpdate {
			continue
		}
		if err := uc.repo.UpdateLatestInfo(ctx, username, upd.ID, upd.LatestUpdateInfo, upd.CheckedAt); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "apply update", err)
		}
	}
	return nil
}
