package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// CreateSpoolRequest 新增耗材请求
type CreateSpoolRequest struct {
	Name           string  `json:"name"`
	Brand          string  `json:"brand"`
	MaterialType   string  `json:"materialType" binding:"required"`
	Color          string  `json:"color"`
	RemainingGrams float64 `json:"remainingGrams"`
	TotalGrams     float64 `json:"totalGrams"`
	Location       string  `json:"location"`
}

// ListSpools 查询耗材列表
// GET /api/spools
func (h *Handler) ListSpools(c *gin.Context) {
	opts := store.SpoolQueryOptions{
		Limit:  parseIntWithDefault(c.Query("limit"), 0),
		Offset: parseIntWithDefault(c.Query("offset"), 0),
	}
	if v := c.Query("materialType"); v != "" {
		opts.MaterialType = &v
	}
	if v := c.Query("location"); v != "" {
		opts.Location = &v
	}

	spools, err := h.store.ListSpools(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": spools, "total": len(spools)})
}

// CreateSpool 新增一卷耗材
// POST /api/spools
func (h *Handler) CreateSpool(c *gin.Context) {
	var req CreateSpoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.store.CreateSpool(&model.Spool{
		Name:           req.Name,
		Brand:          req.Brand,
		MaterialType:   req.MaterialType,
		Color:          req.Color,
		RemainingGrams: req.RemainingGrams,
		TotalGrams:     req.TotalGrams,
		Location:       req.Location,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.store.GetSpool(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// GetSpool 获取单卷耗材
// GET /api/spools/:id
func (h *Handler) GetSpool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的耗材 ID"})
		return
	}

	sp, err := h.store.GetSpool(id)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "耗材不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sp)
}

// UpdateSpool 部分更新耗材
// PATCH /api/spools/:id
func (h *Handler) UpdateSpool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的耗材 ID"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed := map[string]string{
		"name":           "name",
		"brand":          "brand",
		"materialType":   "material_type",
		"color":          "color",
		"remainingGrams": "remaining_grams",
		"totalGrams":     "total_grams",
		"location":       "location",
	}
	updates := map[string]interface{}{}
	for key, value := range req {
		if column, ok := allowed[key]; ok {
			updates[column] = value
		}
	}

	if err := h.store.UpdateSpool(id, updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.store.GetSpool(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sp)
}

// DeleteSpool 删除耗材
// DELETE /api/spools/:id
func (h *Handler) DeleteSpool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的耗材 ID"})
		return
	}

	if err := h.store.DeleteSpool(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ConsumeSpoolRequest 耗材扣减请求
type ConsumeSpoolRequest struct {
	Grams float64 `json:"grams" binding:"required,gt=0"`
}

// ConsumeSpool 扣减耗材剩余重量，低于阈值时发告警通知
// POST /api/spools/:id/consume
func (h *Handler) ConsumeSpool(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的耗材 ID"})
		return
	}

	var req ConsumeSpoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	before, err := h.store.GetSpool(id)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "耗材不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sp, err := h.store.ConsumeSpool(id, req.Grams)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 只在跨过阈值的那一次扣减发告警，避免重复打扰
	threshold := h.lowFilamentThreshold()
	if before.RemainingGrams > threshold && sp.RemainingGrams <= threshold {
		h.notify(model.NotifyLevelWarning, "耗材不足",
			fmt.Sprintf("%s %s 剩余 %.0f 克，低于阈值 %.0f 克", sp.MaterialType, sp.Name, sp.RemainingGrams, threshold))
	}

	c.JSON(http.StatusOK, sp)
}

// ExportSpools 导出耗材库存清单
// GET /api/spools/export
func (h *Handler) ExportSpools(c *gin.Context) {
	spools, err := h.store.ListSpools(store.SpoolQueryOptions{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f, err := h.exporter.ExportSpools(spools)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("耗材库存_%s.xlsx", time.Now().Format("20060102_150405"))
	if h.exportDir != "" {
		// 同时落一份到导出目录
		if err := f.SaveAs(filepath.Join(h.exportDir, filename)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
}

// lowFilamentThreshold 告警阈值，数据库配置优先于启动配置
func (h *Handler) lowFilamentThreshold() float64 {
	if v, err := h.store.GetConfigFloat(store.ConfigKeyLowFilamentGrams); err == nil {
		return v
	}
	return h.lowFilamentGrams
}

// notify 落库一条通知并广播给前端
func (h *Handler) notify(level, title, message string) {
	n := &model.Notification{Level: level, Title: title, Message: message}
	id, err := h.store.CreateNotification(n)
	if err != nil {
		return
	}

	created, err := h.store.GetNotification(id)
	if err != nil {
		return
	}
	h.hub.Broadcast(ws.EventNotification, created)
}
