package api

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// CreateQueueItemRequest 入队请求
type CreateQueueItemRequest struct {
	PrinterID     int64                   `json:"printerId" binding:"required"`
	ArchiveName   string                  `json:"archiveName" binding:"required"`
	RequiredSlots []matching.RequiredSlot `json:"requiredSlots"`
}

// ListQueue 查询打印队列
// GET /api/queue
func (h *Handler) ListQueue(c *gin.Context) {
	opts := store.QueueQueryOptions{}
	if v := c.Query("printerId"); v != "" {
		printerID := int64(parseIntWithDefault(v, 0))
		opts.PrinterID = &printerID
	}
	if v := c.Query("status"); v != "" {
		opts.Status = &v
	}

	items, err := h.store.ListQueueItems(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// CreateQueueItem 入队
// POST /api/queue
func (h *Handler) CreateQueueItem(c *gin.Context) {
	var req CreateQueueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.store.GetPrinter(req.PrinterID); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "打印机不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id, err := h.store.CreateQueueItem(&model.QueueItem{
		PrinterID:     req.PrinterID,
		ArchiveName:   req.ArchiveName,
		RequiredSlots: req.RequiredSlots,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	item, err := h.store.GetQueueItem(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.hub.Broadcast(ws.EventQueueUpdate, item)
	c.JSON(http.StatusCreated, item)
}

// NextQueueItem 获取指定打印机下一个待打印任务
// GET /api/queue/next?printerId=1
func (h *Handler) NextQueueItem(c *gin.Context) {
	printerID := int64(parseIntWithDefault(c.Query("printerId"), 0))
	if printerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的打印机 ID"})
		return
	}

	item, err := h.store.NextQueuedItem(printerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "没有待打印任务"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetQueueItem 获取单个队列任务
// GET /api/queue/:id
func (h *Handler) GetQueueItem(c *gin.Context) {
	item, err := h.store.GetQueueItem(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "队列任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteQueueItem 删除队列任务
// DELETE /api/queue/:id
func (h *Handler) DeleteQueueItem(c *gin.Context) {
	if err := h.store.DeleteQueueItem(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StartQueueItemRequest 开始打印请求
type StartQueueItemRequest struct {
	// Overrides 确认界面上的手动指定，随请求传入，服务端不保存
	Overrides matching.Overrides `json:"overrides"`
}

// StartQueueItemResponse 开始打印响应
type StartQueueItemResponse struct {
	Item    *model.QueueItem       `json:"item"`
	Results []matching.MatchResult `json:"results"`
	Mapping []int                  `json:"mapping"`
}

// StartQueueItem 开始打印：对当前料盘快照做匹配，持久化确认后的位置映射
// POST /api/queue/:id/start
//
// 匹配结果只做报告，未匹配的槽位在映射里记 -1，由固件侧决定如何处理
func (h *Handler) StartQueueItem(c *gin.Context) {
	item, err := h.store.GetQueueItem(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "队列任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if item.Status != model.QueueStatusQueued {
		c.JSON(http.StatusConflict, gin.H{"error": "任务不在排队状态"})
		return
	}

	// 没有手动指定时允许空请求体
	var req StartQueueItemRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	trays := h.cache.Trays(item.PrinterID)
	results := matching.Match(item.RequiredSlots, trays, req.Overrides)
	mapping := matching.BuildMapping(results)

	if err := h.store.MarkQueueItemStarted(item.ID, mapping); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	item, err = h.store.GetQueueItem(item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.hub.Broadcast(ws.EventQueueUpdate, item)
	h.notify(model.NotifyLevelInfo, "打印开始", fmt.Sprintf("%s 已开始打印", item.ArchiveName))

	c.JSON(http.StatusOK, StartQueueItemResponse{
		Item:    item,
		Results: results,
		Mapping: mapping,
	})
}

// FinishQueueItemRequest 结束打印请求
type FinishQueueItemRequest struct {
	OK bool `json:"ok"`
}

// FinishQueueItem 标记任务结束
// POST /api/queue/:id/finish
func (h *Handler) FinishQueueItem(c *gin.Context) {
	item, err := h.store.GetQueueItem(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "队列任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if item.Status != model.QueueStatusPrinting {
		c.JSON(http.StatusConflict, gin.H{"error": "任务不在打印状态"})
		return
	}

	var req FinishQueueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.MarkQueueItemFinished(item.ID, req.OK); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	item, err = h.store.GetQueueItem(item.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.hub.Broadcast(ws.EventQueueUpdate, item)

	if req.OK {
		h.notify(model.NotifyLevelInfo, "打印完成", fmt.Sprintf("%s 打印完成", item.ArchiveName))
	} else {
		h.notify(model.NotifyLevelError, "打印失败", fmt.Sprintf("%s 打印失败", item.ArchiveName))
	}

	c.JSON(http.StatusOK, item)
}

// ReorderQueueItemRequest 队列调序请求
type ReorderQueueItemRequest struct {
	Position int `json:"position"`
}

// ReorderQueueItem 调整任务在队列中的位置
// POST /api/queue/:id/reorder
func (h *Handler) ReorderQueueItem(c *gin.Context) {
	var req ReorderQueueItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.ReorderQueueItem(c.Param("id"), req.Position); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	item, err := h.store.GetQueueItem(c.Param("id"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "队列任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.hub.Broadcast(ws.EventQueueUpdate, item)
	c.JSON(http.StatusOK, item)
}
