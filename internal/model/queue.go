package model

import (
	"time"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
)

// 队列任务状态
const (
	QueueStatusQueued   = "queued"   // 排队中
	QueueStatusPrinting = "printing" // 打印中
	QueueStatusDone     = "done"     // 已完成
	QueueStatusFailed   = "failed"   // 失败
)

// QueueItem 打印队列任务（数据库模型）
type QueueItem struct {
	ID          string    `json:"id"`          // uuid
	PrinterID   int64     `json:"printerId"`   // 目标打印机
	ArchiveName string    `json:"archiveName"` // 切片文件名
	Status      string    `json:"status"`      // queued/printing/done/failed
	Position    int       `json:"position"`    // 队列内排序，越小越靠前
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt"`

	// RequiredSlots 切片文件声明的耗材槽需求，入队时从切片元数据解析
	RequiredSlots []matching.RequiredSlot `json:"requiredSlots"`

	// FilamentMapping 开始打印时确认的位置映射（下标为槽位序号-1，-1 表示未分配）
	// 未开始打印时为空
	FilamentMapping []int `json:"filamentMapping"`
}
