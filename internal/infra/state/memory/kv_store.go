package memory

import (
	"context"
	"sync"
	"time"

	"pixel-frame/internal/repository"
)

// KVStore 是进程内的 repository.KeyValueStore 实现, 用于本地开发和测试。
type KVStore struct {
	mu      sync.RWMutex
	data    map[string][]byte
	windows map[string]*counterWindow
}

type counterWindow struct {
	count   int64
	expires time.Time
}

func NewKVStore() *KVStore {
	return &KVStore{
		data:    make(map[string][]byte),
		windows: make(map[string]*counterWindow),
	}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Raw 返回 key 的原始字节, 供测试检查存储内容。
func (s *KVStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return append([]byte(nil), value...), ok
}

// IncrWindow 对 key 计数并把过期时间推迟到 now+window, 与 Redis 的 INCR+EXPIRE 一致。
// 过期的计数在加锁期间顺带清理。
func (s *KVStore) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.pruneWindows(now)
	w, ok := s.windows[key]
	if !ok {
		w = &counterWindow{}
		s.windows[key] = w
	}
	w.count++
	w.expires = now.Add(window)
	return w.count, nil
}

// WindowCount 返回 key 当前的计数, 供测试使用。
func (s *KVStore) WindowCount(key string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[key]
	if !ok || !time.Now().Before(w.expires) {
		return 0, false
	}
	return w.count, true
}

// WindowKeys 返回仍在跟踪的计数 key 数量
func (s *KVStore) WindowKeys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// 调用方必须持有写锁
func (s *KVStore) pruneWindows(now time.Time) {
	for k, w := range s.windows {
		if !now.Before(w.expires) {
			delete(s.windows, k)
		}
	}
}
