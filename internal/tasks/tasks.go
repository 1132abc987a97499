package tasks

import (
	"encoding/json"

	"pixel-frame/internal/domain"
)

// 定义任务类型常量
const (
	TypePlacementPersistence = "placement:persist" // 像素放置历史持久化任务类型
)

// PlacementPersistencePayload 定义了放置历史持久化任务的数据结构
type PlacementPersistencePayload struct {
	Placement domain.Placement
}

// NewPlacementPersistenceTask 创建一个新的放置历史持久化任务 payload
func NewPlacementPersistenceTask(p domain.Placement) ([]byte, error) {
	payload := PlacementPersistencePayload{
		Placement: p,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return payloadBytes, nil
}
