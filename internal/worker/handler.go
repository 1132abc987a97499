package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-frame/internal/domain"
	"pixel-frame/internal/repository"
	"pixel-frame/internal/tasks"
)

// PlacementPersistenceHandler 处理放置历史持久化任务
type PlacementPersistenceHandler struct {
	placementRepo repository.PlacementRepository
}

// NewPlacementPersistenceHandler 创建 Handler 实例
func NewPlacementPersistenceHandler(placementRepo repository.PlacementRepository) *PlacementPersistenceHandler {
	return &PlacementPersistenceHandler{placementRepo: placementRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *PlacementPersistenceHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
	logCtx.Debug("Processing placement persistence task...")

	var payload tasks.PlacementPersistencePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p := payload.Placement
	if !domain.InBounds(p.Row, p.Col) {
		logCtx.WithFields(logrus.Fields{"row": p.Row, "col": p.Col}).Error("Placement out of range, dropping task")
		return fmt.Errorf("placement (%d, %d) out of range: %w", p.Row, p.Col, asynq.SkipRetry)
	}

	if err := h.placementRepo.SaveBatch(ctx, []domain.Placement{p}); err != nil {
		logCtx.WithError(err).Error("Failed to save placement")
		return fmt.Errorf("failed to save placement (%d, %d): %w", p.Row, p.Col, err)
	}

	logCtx.WithFields(logrus.Fields{"row": p.Row, "col": p.Col, "color": p.Color}).Info("Placement persistence task processed successfully")
	return nil
}
