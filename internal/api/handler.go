package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/service/excel"
	"github.com/sbcrumb/bambuddy-sub000/internal/service/status"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// Handler API 处理器
type Handler struct {
	store     *store.Store
	cache     *status.Cache
	hub       *ws.Hub
	exporter  *excel.Exporter
	exportDir string // 导出文件落盘目录

	// lowFilamentGrams 耗材低量告警阈值（克），数据库配置优先
	lowFilamentGrams float64
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, cache *status.Cache, hub *ws.Hub, exportDir string, lowFilamentGrams float64) *Handler {
	return &Handler{
		store:            st,
		cache:            cache,
		hub:              hub,
		exporter:         excel.NewExporter(),
		exportDir:        exportDir,
		lowFilamentGrams: lowFilamentGrams,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 打印机管理
	router.GET("/printers", h.ListPrinters)
	router.POST("/printers", h.CreatePrinter)
	router.GET("/printers/:id", h.GetPrinter)
	router.PATCH("/printers/:id", h.UpdatePrinter)
	router.DELETE("/printers/:id", h.DeletePrinter)

	// 打印机状态快照
	router.GET("/printers/:id/status", h.GetPrinterStatus)
	router.POST("/printers/:id/status", h.ReportPrinterStatus)

	// 耗材槽匹配预览
	router.POST("/printers/:id/match", h.MatchFilament)

	// 耗材库存
	router.GET("/spools", h.ListSpools)
	router.POST("/spools", h.CreateSpool)
	router.GET("/spools/export", h.ExportSpools)
	router.GET("/spools/:id", h.GetSpool)
	router.PATCH("/spools/:id", h.UpdateSpool)
	router.DELETE("/spools/:id", h.DeleteSpool)
	router.POST("/spools/:id/consume", h.ConsumeSpool)

	// 打印队列
	router.GET("/queue", h.ListQueue)
	router.POST("/queue", h.CreateQueueItem)
	router.GET("/queue/next", h.NextQueueItem)
	router.GET("/queue/:id", h.GetQueueItem)
	router.DELETE("/queue/:id", h.DeleteQueueItem)
	router.POST("/queue/:id/start", h.StartQueueItem)
	router.POST("/queue/:id/finish", h.FinishQueueItem)
	router.POST("/queue/:id/reorder", h.ReorderQueueItem)

	// 通知
	router.GET("/notifications", h.ListNotifications)
	router.POST("/notifications/:id/read", h.MarkNotificationRead)
	router.POST("/notifications/read-all", h.MarkAllNotificationsRead)

	// 事件推送
	router.GET("/ws", func(c *gin.Context) {
		h.hub.HandleConn(c.Writer, c.Request)
	})
}

// parseIntWithDefault 解析整数参数，失败时返回默认值
func parseIntWithDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// parseIDParam 解析路径中的整数 ID
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
