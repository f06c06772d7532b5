package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool `json:"initialized"`    // 是否已初始化（有打印机）
	PrinterCount   int  `json:"printerCount"`   // 打印机总数
	OnlineCount    int  `json:"onlineCount"`    // 有有效快照的打印机数
	SpoolCount     int  `json:"spoolCount"`     // 耗材库存数量
	QueuedCount    int  `json:"queuedCount"`    // 排队中的任务数
	PrintingCount  int  `json:"printingCount"`  // 打印中的任务数
	UnreadNotices  int  `json:"unreadNotices"`  // 未读通知数
	WSClientCount  int  `json:"wsClientCount"`  // 当前 websocket 连接数
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	printerCount, err := h.store.CountPrinters()
	if err != nil {
		printerCount = 0
	}
	spoolCount, err := h.store.CountSpools()
	if err != nil {
		spoolCount = 0
	}
	queuedCount, err := h.store.CountQueueItems(model.QueueStatusQueued)
	if err != nil {
		queuedCount = 0
	}
	printingCount, err := h.store.CountQueueItems(model.QueueStatusPrinting)
	if err != nil {
		printingCount = 0
	}
	unread, err := h.store.CountUnreadNotifications()
	if err != nil {
		unread = 0
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized:   printerCount > 0,
		PrinterCount:  printerCount,
		OnlineCount:   h.cache.Count(),
		SpoolCount:    spoolCount,
		QueuedCount:   queuedCount,
		PrintingCount: printingCount,
		UnreadNotices: unread,
		WSClientCount: h.hub.ClientCount(),
	})
}
