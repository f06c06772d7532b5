package model

import "time"

// 通知级别
const (
	NotifyLevelInfo    = "info"
	NotifyLevelWarning = "warning"
	NotifyLevelError   = "error"
)

// Notification 站内通知（数据库模型）
type Notification struct {
	ID        string    `json:"id"`    // uuid
	Level     string    `json:"level"` // info/warning/error
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
