package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pixel-frame/internal/domain"
	"pixel-frame/internal/repository"
)

// DefaultCanvasKey 是画布状态在键值后端中的固定 key
const DefaultCanvasKey = "frame-canvas-state"

// LoadOutcome 区分 Load 得到网格的来源。
type LoadOutcome int

const (
	OutcomeValid       LoadOutcome = iota // 存储中的数据解码成功
	OutcomeDefault                        // 首次访问, 返回 (并尝试写回) 默认网格
	OutcomeCorrupted                      // 存储中的数据无法解码, 返回诊断网格
	OutcomeUnavailable                    // 读取后端失败, 返回诊断网格
)

func (o LoadOutcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeDefault:
		return "default"
	case OutcomeCorrupted:
		return "corrupted"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("LoadOutcome(%d)", int(o))
	}
}

// LoadResult 是一次加载的完整结果。Grid 总是完整可绘制的。
type LoadResult struct {
	Grid    domain.Grid
	Outcome LoadOutcome
	Err     error // 仅用于诊断: Corrupted/Unavailable 的原因, 或默认网格写回失败的原因
}

// CanvasStore 拥有画布网格与存储表示之间的映射。
type CanvasStore struct {
	kv  repository.KeyValueStore
	key string
	log *logrus.Entry
}

// NewCanvasStore 创建 CanvasStore 实例。key 为空时使用 DefaultCanvasKey。
func NewCanvasStore(kv repository.KeyValueStore, key string) *CanvasStore {
	if kv == nil {
		panic("KeyValueStore cannot be nil for CanvasStore")
	}
	if key == "" {
		key = DefaultCanvasKey
	}
	return &CanvasStore{
		kv:  kv,
		key: key,
		log: logrus.WithFields(logrus.Fields{"component": "canvas_store", "key": key}),
	}
}

// Load 返回当前画布, 永不失败。
// 首次访问 (key 不存在或值为空) 返回白色默认网格; 存储数据损坏或后端不可用时返回全红诊断网格。
func (s *CanvasStore) Load(ctx context.Context) domain.Grid {
	return s.LoadResult(ctx).Grid
}

// LoadResult 与 Load 相同, 但同时返回结果来源。
func (s *CanvasStore) LoadResult(ctx context.Context) LoadResult {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.initialize(ctx)
		}
		s.log.WithError(err).Error("Failed to read canvas state, serving error canvas")
		return LoadResult{
			Grid:    domain.NewFilledGrid(domain.ErrorColor),
			Outcome: OutcomeUnavailable,
			Err:     fmt.Errorf("%w: %v", ErrStoreUnavailable, err),
		}
	}

	if len(data) == 0 {
		// 空值与不存在等同, 按首次访问处理
		return s.initialize(ctx)
	}

	grid, err := domain.DecodeGrid(data)
	if err != nil {
		// 不覆盖损坏的数据, 保留以便排查
		s.log.WithError(err).WithField("raw", truncate(data, 256)).Error("Failed to decode canvas state, serving error canvas")
		return LoadResult{
			Grid:    domain.NewFilledGrid(domain.ErrorColor),
			Outcome: OutcomeCorrupted,
			Err:     fmt.Errorf("%w: %v", ErrCanvasCorrupted, err),
		}
	}
	return LoadResult{Grid: grid, Outcome: OutcomeValid}
}

// initialize 构造默认网格并尽力写回。并发的首次加载会写入相同的值, 无需加锁。
func (s *CanvasStore) initialize(ctx context.Context) LoadResult {
	grid := domain.NewFilledGrid(domain.DefaultColor)
	result := LoadResult{Grid: grid, Outcome: OutcomeDefault}

	data, err := domain.EncodeGrid(grid)
	if err == nil {
		err = s.kv.Set(ctx, s.key, data)
	}
	if err != nil {
		// 写回失败不影响本次请求, 下次加载会再次初始化
		s.log.WithError(err).Warn("Failed to persist default canvas")
		result.Err = err
		return result
	}
	s.log.Info("Initialized canvas state with default grid")
	return result
}

// Save 序列化网格并整体覆盖存储中的值。
// 网格中存在非法颜色时不写入, 返回包装了 ErrInvalidColor 的错误。
func (s *CanvasStore) Save(ctx context.Context, grid domain.Grid) error {
	data, err := domain.EncodeGrid(grid)
	if err != nil {
		s.log.WithError(err).Warn("Refusing to save invalid canvas")
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.log.WithError(err).Error("Failed to save canvas state")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SetPixel 读取当前网格, 修改单个格子, 再整体写回。
//
// 后端只有单 key 原子性, 因此两次并发的 SetPixel 即使修改不同格子,
// 后写入者也会覆盖先写入者的修改 (lost update)。这是整网格覆盖写的已知限制,
// 每次调用本身只保证对一个结构完整的网格做读-改-写。
//
// 坐标和颜色在访问存储之前校验。当前存储数据损坏或不可读时拒绝写入,
// 避免诊断网格覆盖原始数据。
func (s *CanvasStore) SetPixel(ctx context.Context, row, col int, color string) (domain.Grid, error) {
	if !domain.InBounds(row, col) {
		return domain.Grid{}, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	c, err := domain.ParseColor(color)
	if err != nil {
		return domain.Grid{}, err
	}

	result := s.LoadResult(ctx)
	switch result.Outcome {
	case OutcomeCorrupted, OutcomeUnavailable:
		return result.Grid, result.Err
	}

	grid := result.Grid
	if err := grid.Set(row, col, c); err != nil {
		return result.Grid, err
	}
	if err := s.Save(ctx, grid); err != nil {
		return result.Grid, err
	}

	s.log.WithFields(logrus.Fields{"row": row, "col": col, "color": c}).Debug("Pixel placed")
	return grid, nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
