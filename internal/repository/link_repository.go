package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Omakidx/link6ync/internal/model"
)

// LinkRepository defines persistence operations for shortened links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	FindByShortCode(ctx context.Context, code string) (*model.Link, error)
	IncrementClicks(ctx context.Context, id uint) error
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository builds a GORM-backed repository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) FindByShortCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) IncrementClicks(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}
