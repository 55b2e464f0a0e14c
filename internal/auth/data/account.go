package data

import (
	"context"
	"time"

	"gorm.io/gorm"

	"mediatrack/internal/auth/biz"
	"mediatrack/internal/pkg/database"
)

// AccountPO is the database model for a registered user.
type AccountPO struct {
	Username     string         `gorm:"size:100;primarykey"`
	PasswordHash string         `gorm:"size:255;not null"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (AccountPO) TableName() string {
	return "accounts"
}

// AccountRepo implements biz.AccountRepo on gorm.
type AccountRepo struct {
	db *database.DB
}

func NewAccountRepo(db *database.DB) biz.AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *biz.Account) error {
	po := &AccountPO{
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*biz.Account, error) {
	var po AccountPO
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&po).Error; err != nil {
		return nil, err
	}
	return &biz.Account{
		Username:     po.Username,
		PasswordHash: po.PasswordHash,
		CreatedAt:    po.CreatedAt,
	}, nil
}

func (r *AccountRepo) Delete(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).Where("username = ?", username).Delete(&AccountPO{}).Error
}
