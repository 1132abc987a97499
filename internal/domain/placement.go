package domain

import "time"

// Placement 记录一次成功的像素放置, 由后台任务写入数据库。
type Placement struct {
	ID        uint      `gorm:"primaryKey"`
	Row       int       `gorm:"not null"`
	Col       int       `gorm:"not null"`
	Color     string    `gorm:"size:7;not null"`
	Fid       uint64    `gorm:"index"`          // 帧请求方的用户 fid, 未知时为 0
	PlacedAt  time.Time `gorm:"index;not null"` // 放置发生的时间
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
