package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pixel-frame/internal/domain"
)

// GormPlacementRepository 是 PlacementRepository 接口的 GORM 实现
type GormPlacementRepository struct {
	db *gorm.DB
}

// NewGormPlacementRepository 创建 GormPlacementRepository 实例
func NewGormPlacementRepository(db *gorm.DB) *GormPlacementRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPlacementRepository")
	}
	return &GormPlacementRepository{db: db}
}

// SaveBatch 批量保存放置记录
func (r *GormPlacementRepository) SaveBatch(ctx context.Context, placements []domain.Placement) error {
	if len(placements) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&placements).Error; err != nil {
		return fmt.Errorf("gorm: failed to save placement batch (size %d): %w", len(placements), err)
	}
	return nil
}

// CountSince 获取某个时间点之后的放置记录数量, 零值时间表示全部
func (r *GormPlacementRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Placement{})
	if !since.IsZero() {
		query = query.Where("placed_at > ?", since)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: failed to count placements since %v: %w", since, err)
	}
	return count, nil
}
