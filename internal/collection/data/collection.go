package data

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"mediatrack/internal/collection/biz"
	"mediatrack/internal/enrich"
	"mediatrack/internal/pkg/database"
)

// StringsJSON stores a string slice as a JSONB column.
type StringsJSON []string

func (j *StringsJSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j StringsJSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// ItemPO is the database model for one saved collection item.
type ItemPO struct {
	ID       string `gorm:"type:uuid;primarykey"`
	Username string `gorm:"size:100;primarykey;index:idx_items_username"`

	Title            string      `gorm:"size:500;not null"`
	Type             string      `gorm:"size:32;not null"`
	DirectorOrAuthor string      `gorm:"size:255"`
	Cast             StringsJSON `gorm:"type:jsonb"`
	Description      string      `gorm:"type:text"`
	ReleaseDate      string      `gorm:"size:64"`
	IsOngoing        bool        `gorm:"not null;default:false"`
	LatestUpdateInfo string      `gorm:"size:500"`
	LastCheckedAt    int64
	PosterURL        string  `gorm:"size:2048"`
	UserRating       float64 `gorm:"default:0"`
	Status           string  `gorm:"size:32"`
	Category         string  `gorm:"size:32"`
	UserReview       string  `gorm:"type:text"`
	SortOrder        int     `gorm:"not null;default:0;index:idx_items_sort"`
	AddedAt          string  `gorm:"size:64"`
	SavedAt          int64

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ItemPO) TableName() string {
	return "collection_items"
}

// ItemRepo implements biz.ItemRepo on gorm.
type ItemRepo struct {
	db *database.DB
}

func NewItemRepo(db *database.DB) biz.ItemRepo {
	return &ItemRepo{db: db}
}

func (r *ItemRepo) List(ctx context.Context, username string) ([]biz.Item, error) {
	var pos []ItemPO
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("sort_order ASC, created_at ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	items := make([]biz.Item, len(pos))
	for i, po := range pos {
		items[i] = toItem(&po)
	}
	return items, nil
}

func (r *ItemRepo) Get(ctx context.Context, username, id string) (*biz.Item, error) {
	var po ItemPO
	err := r.db.WithContext(ctx).
		Where("username = ? AND id = ?", username, id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	item := toItem(&po)
	return &item, nil
}

func (r *ItemRepo) Upsert(ctx context.Context, username string, item *biz.Item) error {
	po := toPO(username, item)
	return r.db.WithContext(ctx).Save(po).Error
}

func (r *ItemRepo) Remove(ctx context.Context, username, id string) error {
	return r.db.WithContext(ctx).
		Where("username = ? AND id = ?", username, id).
		Delete(&ItemPO{}).Error
}

func (r *ItemRepo) Reorder(ctx context.Context, username string, ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			err := tx.WithContext(ctx).
				Model(&ItemPO{}).
				Where("username = ? AND id = ?", username, id).
				Update("sort_order", i).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ItemRepo) ReplaceAll(ctx context.Context, username string, items []biz.Item) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).
			Unscoped().
			Where("username = ?", username).
			Delete(&ItemPO{}).Error
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].SortOrder == 0 {
				items[i].SortOrder = i
			}
			if err := tx.WithContext(ctx).Create(toPO(username, &items[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ItemRepo) UpdateLatestInfo(ctx context.Context, username, id, latestInfo string, checkedAt int64) error {
	return r.db.WithContext(ctx).
		Model(&ItemPO{}).
		Where("username = ? AND id = ?", username, id).
		Updates(map[string]interface{}{
			"latest_update_info": latestInfo,
			"last_checked_at":    checkedAt,
		}).Error
}

func toPO(username string, item *biz.Item) *ItemPO {
	return &ItemPO{
		ID:               item.ID,
		Username:         username,
		Title:            item.Title,
		Type:             string(item.Type),
		DirectorOrAuthor: item.DirectorOrAuthor,
		Cast:             StringsJSON(item.Cast),
		Description:      item.Description,
		ReleaseDate:      item.ReleaseDate,
		IsOngoing:        item.IsOngoing,
		LatestUpdateInfo: item.LatestUpdateInfo,
		PosterURL:        item.PosterURL,
		UserRating:       item.UserRating,
		Status:           item.Status,
		Category:         item.Category,
		UserReview:       item.UserReview,
		SortOrder:        item.SortOrder,
		AddedAt:          item.AddedAt,
		SavedAt:          item.SavedAt,
	}
}

func toItem(po *ItemPO) biz.Item {
	return biz.Item{
		MediaRecord: enrich.MediaRecord{
			ID:               po.ID,
			Title:            po.Title,
			Type:             enrich.MediaType(po.Type),
			DirectorOrAuthor: po.DirectorOrAuthor,
			Cast:             []string(po.Cast),
			Description:      po.Description,
			ReleaseDate:      po.ReleaseDate,
			IsOngoing:        po.IsOngoing,
			LatestUpdateInfo: po.LatestUpdateInfo,
			PosterURL:        po.PosterURL,
			UserRating:       po.UserRating,
			Status:           po.Status,
			AddedAt:          po.AddedAt,
		},
		Category:   po.Category,
		UserReview: po.UserReview,
		SortOrder:  po.SortOrder,
		SavedAt:    po.SavedAt,
	}
}
