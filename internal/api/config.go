package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/store"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	PollIntervalSeconds int     `json:"pollIntervalSeconds"` // 状态轮询间隔（秒）
	LowFilamentGrams    float64 `json:"lowFilamentGrams"`    // 耗材低量告警阈值（克）
}

// UpdateConfigRequest 更新配置请求
type UpdateConfigRequest struct {
	// 使用 map 允许部分更新
	Updates map[string]interface{} `json:"updates"`
}

// GetConfig 获取所有配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	resp := ConfigResponse{
		LowFilamentGrams: h.lowFilamentGrams,
	}

	if v, err := h.store.GetConfigInt(store.ConfigKeyPollInterval); err == nil {
		resp.PollIntervalSeconds = v
	}
	if v, err := h.store.GetConfigFloat(store.ConfigKeyLowFilamentGrams); err == nil {
		resp.LowFilamentGrams = v
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateConfig 部分更新配置
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for key, value := range req.Updates {
		switch key {
		case "pollIntervalSeconds":
			if v, ok := value.(float64); ok && v > 0 {
				if err := h.store.SetConfigInt(store.ConfigKeyPollInterval, int(v)); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
			}
		case "lowFilamentGrams":
			if v, ok := value.(float64); ok && v >= 0 {
				if err := h.store.SetConfigFloat(store.ConfigKeyLowFilamentGrams, v); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
			}
		}
	}

	h.GetConfig(c)
}
