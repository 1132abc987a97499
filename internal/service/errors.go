package service

import (
	"errors"

	"pixel-frame/internal/domain"
)

var (
	ErrOutOfRange       = domain.ErrOutOfRange
	ErrInvalidColor     = domain.ErrInvalidColor
	ErrStoreUnavailable = errors.New("canvas store unavailable")
	ErrCanvasCorrupted  = errors.New("stored canvas is corrupted")
	ErrInvalidCellSize  = errors.New("cell edge length out of range")
	ErrRenderFailed     = errors.New("failed to render canvas")
	ErrInvalidInput     = errors.New("invalid frame input")
)
