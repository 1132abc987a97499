package repository

import "errors"

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的 key 或记录不存在
	ErrNotFound = errors.New("repository: record not found")
	// ErrUnavailable 表示后端不可达、超时或拒绝了请求
	ErrUnavailable = errors.New("repository: backend unavailable")
)
