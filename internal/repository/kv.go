package repository

import "context"

// KeyValueStore 是画布状态所依赖的外部键值后端。
// 后端只保证单 key 原子性, 不提供跨多步操作的事务。
type KeyValueStore interface {
	// Get 读取 key 对应的值。key 不存在时返回 ErrNotFound。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 整体覆盖 key 对应的值。
	Set(ctx context.Context, key string, value []byte) error
}
