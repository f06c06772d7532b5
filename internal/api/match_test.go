package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
	"github.com/sbcrumb/bambuddy-sub000/internal/service/status"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// testEnv 测试用的处理器环境
type testEnv struct {
	router *gin.Engine
	store  *store.Store
	cache  *status.Cache
}

// newTestEnv 创建带临时数据库的测试环境
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "bambuddy.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cache := status.NewCache(0)
	hub := ws.NewHub()
	t.Cleanup(hub.Close)

	handler := NewHandler(st, cache, hub, "", 100)

	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api)

	return &testEnv{router: router, store: st, cache: cache}
}

// doJSON 发送 JSON 请求并返回响应
func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// addTestPrinter 建一台打印机并写入料盘快照
func (e *testEnv) addTestPrinter(t *testing.T, trays []matching.LoadedTray) int64 {
	t.Helper()
	id, err := e.store.CreatePrinter(&model.Printer{Name: "测试机", Active: true})
	if err != nil {
		t.Fatalf("create printer: %v", err)
	}
	e.cache.Update(&model.PrinterStatus{
		PrinterID: id,
		State:     model.PrinterStateIdle,
		Trays:     trays,
		UpdatedAt: time.Now(),
	})
	return id
}

// urlf 拼接带参数的请求路径
func urlf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// TestMatchFilamentEndpoint 测试匹配预览接口
func TestMatchFilamentEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTestPrinter(t, []matching.LoadedTray{
		{UnitID: 0, TrayPosition: 0, MaterialType: "PLA", Color: "FF0000"},
		{UnitID: 0, TrayPosition: 1, MaterialType: "PETG", Color: "00FF00"},
	})

	w := env.doJSON(t, http.MethodPost, urlf("/api/printers/%d/match", id), MatchRequest{
		Requirements: []matching.RequiredSlot{
			{SlotID: 1, MaterialType: "PLA", Color: "FF0000"},
			{SlotID: 3, MaterialType: "PETG", Color: "00FF00"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp MatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Status != matching.StatusMatch || resp.Results[1].Status != matching.StatusMatch {
		t.Errorf("statuses = %q, %q", resp.Results[0].Status, resp.Results[1].Status)
	}
	// 槽位 2 不存在，映射中间留 -1
	want := []int{0, -1, 1}
	if len(resp.Mapping) != 3 || resp.Mapping[0] != want[0] || resp.Mapping[1] != want[1] || resp.Mapping[2] != want[2] {
		t.Errorf("mapping = %v, want %v", resp.Mapping, want)
	}
}

// TestMatchFilamentOverrides 测试手动指定经接口透传后生效
func TestMatchFilamentOverrides(t *testing.T) {
	env := newTestEnv(t)
	id := env.addTestPrinter(t, []matching.LoadedTray{
		{UnitID: 0, TrayPosition: 0, MaterialType: "PLA", Color: "FF0000"},
		{UnitID: -1, External: true, MaterialType: "PLA", Color: "FFFFFF"},
	})

	w := env.doJSON(t, http.MethodPost, urlf("/api/printers/%d/match", id), MatchRequest{
		Requirements: []matching.RequiredSlot{{SlotID: 1, MaterialType: "PLA", Color: "FF0000"}},
		Overrides:    matching.Overrides{1: matching.ExternalTrayID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp MatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Results[0].Manual {
		t.Error("结果应为手动指定")
	}
	if resp.Mapping[0] != matching.ExternalTrayID {
		t.Errorf("mapping[0] = %d, want %d", resp.Mapping[0], matching.ExternalTrayID)
	}
}

// TestMatchFilamentUnknownPrinter 测试不存在的打印机返回 404
func TestMatchFilamentUnknownPrinter(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/printers/999/match", MatchRequest{
		Requirements: []matching.RequiredSlot{{SlotID: 1, MaterialType: "PLA"}},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestMatchFilamentOfflinePrinter 测试没有快照时全部 mismatch
func TestMatchFilamentOfflinePrinter(t *testing.T) {
	env := newTestEnv(t)
	id, err := env.store.CreatePrinter(&model.Printer{Name: "离线机"})
	if err != nil {
		t.Fatalf("create printer: %v", err)
	}

	w := env.doJSON(t, http.MethodPost, urlf("/api/printers/%d/match", id), MatchRequest{
		Requirements: []matching.RequiredSlot{{SlotID: 1, MaterialType: "PLA", Color: "FF0000"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp MatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Results[0].Status != matching.StatusMismatch {
		t.Errorf("status = %q, want mismatch", resp.Results[0].Status)
	}
	if resp.Mapping[0] != -1 {
		t.Errorf("mapping[0] = %d, want -1", resp.Mapping[0])
	}
}
