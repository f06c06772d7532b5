package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
)

// MatchRequest 耗材槽匹配请求
// Overrides 为用户手动指定：槽位序号 -> 全局槽位号，只传显式指定过的槽位
type MatchRequest struct {
	Requirements []matching.RequiredSlot `json:"requirements" binding:"required"`
	Overrides    matching.Overrides      `json:"overrides"`
}

// MatchResponse 耗材槽匹配响应
type MatchResponse struct {
	Results []matching.MatchResult `json:"results"`
	Mapping []int                  `json:"mapping"`
}

// MatchFilament 对指定打印机的当前料盘快照做匹配预览
// POST /api/printers/:id/match
//
// 每次调用都从头计算，服务端不保存任何手动指定；
// 换打印机或换任务后的指定失效由前端负责清空
func (h *Handler) MatchFilament(c *gin.Context) {
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

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trays := h.cache.Trays(id)
	results := matching.Match(req.Requirements, trays, req.Overrides)

	c.JSON(http.StatusOK, MatchResponse{
		Results: results,
		Mapping: matching.BuildMapping(results),
	})
}
