package model

import (
	"time"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
)

// PrinterStatus 打印机状态快照
// 由轮询客户端拉取或打印机侧代理推送，仅在内存中缓存，不落库
type PrinterStatus struct {
	PrinterID int64   `json:"printerId"`
	State     string  `json:"state"`    // idle/printing/paused/error/offline
	JobName   string  `json:"jobName"`  // 当前打印任务名，空闲时为空
	Progress  float64 `json:"progress"` // 打印进度 0-100

	// Trays 当前装载的全部料盘（各 AMS 单元与外置料架拍平后的列表）
	Trays []matching.LoadedTray `json:"trays"`

	UpdatedAt time.Time `json:"updatedAt"` // 快照接收时间
}
