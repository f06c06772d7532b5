package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// CreatePrinterRequest 新增打印机请求
type CreatePrinterRequest struct {
	Name         string `json:"name" binding:"required"`
	Host         string `json:"host"`
	SerialNumber string `json:"serialNumber"`
	AccessCode   string `json:"accessCode"`
	Model        string `json:"model"`
	Active       *bool  `json:"active"`
}

// ListPrinters 查询打印机列表
// GET /api/printers
func (h *Handler) ListPrinters(c *gin.Context) {
	opts := store.PrinterQueryOptions{}
	if v := c.Query("active"); v != "" {
		active := v == "true" || v == "1"
		opts.Active = &active
	}
	if v := c.Query("model"); v != "" {
		opts.Model = &v
	}

	printers, err := h.store.ListPrinters(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": printers, "total": len(printers)})
}

// CreatePrinter 新增打印机
// POST /api/printers
func (h *Handler) CreatePrinter(c *gin.Context) {
	var req CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	id, err := h.store.CreatePrinter(&model.Printer{
		Name:         req.Name,
		Host:         req.Host,
		SerialNumber: req.SerialNumber,
		AccessCode:   req.AccessCode,
		Model:        req.Model,
		Active:       active,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	p, err := h.store.GetPrinter(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GetPrinter 获取单台打印机
// GET /api/printers/:id
func (h *Handler) GetPrinter(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的打印机 ID"})
		return
	}

	p, err := h.store.GetPrinter(id)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "打印机不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePrinter 部分更新打印机
// PATCH /api/printers/:id
func (h *Handler) UpdatePrinter(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的打印机 ID"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 白名单字段，JSON 字段名映射为数据库列名
	allowed := map[string]string{
		"name":         "name",
		"host":         "host",
		"serialNumber": "serial_number",
		"accessCode":   "access_code",
		"model":        "model",
		"active":       "active",
	}
	updates := map[string]interface{}{}
	for key, value := range req {
		column, ok := allowed[key]
		if !ok {
			continue
		}
		if key == "active" {
			if b, ok := value.(bool); ok {
				if b {
					value = 1
				} else {
					value = 0
				}
			}
		}
		updates[column] = value
	}

	if err := h.store.UpdatePrinter(id, updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	p, err := h.store.GetPrinter(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePrinter 删除打印机并清掉状态快照
// DELETE /api/printers/:id
func (h *Handler) DeletePrinter(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的打印机 ID"})
		return
	}

	if err := h.store.DeletePrinter(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.cache.Remove(id)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetPrinterStatus 获取打印机状态快照
// GET /api/printers/:id/status
func (h *Handler) GetPrinterStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的打印机 ID"})
		return
	}

	st, ok := h.cache.Get(id)
	if !ok {
		// 从未上报过，按离线返回
		st = &model.PrinterStatus{
			PrinterID: id,
			State:     model.PrinterStateOffline,
			Trays:     []matching.LoadedTray{},
		}
	}
	c.JSON(http.StatusOK, st)
}

// StatusReportRequest 状态上报请求（打印机侧代理推送）
type StatusReportRequest struct {
	State    string                `json:"state" binding:"required"`
	JobName  string                `json:"jobName"`
	Progress float64               `json:"progress"`
	Trays    []matching.LoadedTray `json:"trays"`
}

// ReportPrinterStatus 接收打印机状态上报
// POST /api/printers/:id/status
func (h *Handler) ReportPrinterStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的打印机 ID"})
		return
	}
	if _, err := h.store.GetPrinter(id); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "打印机不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req StatusReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := &model.PrinterStatus{
		PrinterID: id,
		State:     req.State,
		JobName:   req.JobName,
		Progress:  req.Progress,
		Trays:     req.Trays,
		UpdatedAt: time.Now(),
	}
	h.cache.Update(st)
	h.hub.Broadcast(ws.EventPrinterStatus, st)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
