package server

import (
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/api"
	"github.com/sbcrumb/bambuddy-sub000/internal/config"
	"github.com/sbcrumb/bambuddy-sub000/internal/printer"
	"github.com/sbcrumb/bambuddy-sub000/internal/service/status"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// Server HTTP 服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	cache  *status.Cache
	hub    *ws.Hub
	poller *printer.Poller
	api    *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}
	dbPath := filepath.Join(dataDir, "bambuddy.db")

	sqliteStore, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	pollInterval := time.Duration(cfg.Printer.PollIntervalSeconds) * time.Second
	requestTimeout := time.Duration(cfg.Printer.RequestTimeoutSecs) * time.Second

	// 状态缓存：连续错过三轮轮询视为离线
	cache := status.NewCache(3 * pollInterval)
	hub := ws.NewHub()

	// 打印机状态轮询
	poller := printer.NewPoller(sqliteStore, cache, hub,
		printer.NewClient(requestTimeout), pollInterval)

	// 创建 API 处理器
	apiHandler := api.NewHandler(sqliteStore, cache, hub,
		filepath.Join(dataDir, "exports"), cfg.Printer.LowFilamentGrams)

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		cache:  cache,
		hub:    hub,
		poller: poller,
		api:    apiHandler,
	}

	s.setupRoutes(devMode)

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// API 路由
	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
	} else {
		// 前端静态资源单独部署，这里只给个落地页
		s.router.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, "bambuddy API is running. See /api/status")
		})
	}
}

// Run 启动服务器（同时启动打印机轮询）
func (s *Server) Run(addr string) error {
	s.poller.Start()
	return s.router.Run(addr)
}

// Shutdown 停止轮询并关闭资源
func (s *Server) Shutdown() error {
	s.poller.Stop()
	s.hub.Close()
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
