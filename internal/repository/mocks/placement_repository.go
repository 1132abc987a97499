package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pixel-frame/internal/domain"
)

// PlacementRepository 是 repository.PlacementRepository 的 testify Mock 实现
type PlacementRepository struct {
	mock.Mock
}

func (m *PlacementRepository) SaveBatch(ctx context.Context, placements []domain.Placement) error {
	args := m.Called(ctx, placements)
	return args.Error(0)
}

func (m *PlacementRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}
