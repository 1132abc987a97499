package repository

import (
	"context"
	"time"

	"pixel-frame/internal/domain"
)

// PlacementRepository 定义了像素放置历史的存储和查询。
type PlacementRepository interface {
	// SaveBatch 批量保存放置记录到持久化存储（如数据库）。
	SaveBatch(ctx context.Context, placements []domain.Placement) error

	// CountSince 获取某个时间点之后的放置记录数量。
	CountSince(ctx context.Context, since time.Time) (int64, error)
}
