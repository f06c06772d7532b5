package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// TestQueueStartPersistsMapping 测试开始打印时映射被持久化
func TestQueueStartPersistsMapping(t *testing.T) {
	env := newTestEnv(t)
	printerID := env.addTestPrinter(t, []matching.LoadedTray{
		{UnitID: 0, TrayPosition: 0, MaterialType: "PLA", Color: "FF0000"},
		{UnitID: 0, TrayPosition: 1, MaterialType: "PETG", Color: "00FF00"},
	})

	w := env.doJSON(t, http.MethodPost, "/api/queue", CreateQueueItemRequest{
		PrinterID:   printerID,
		ArchiveName: "benchy.3mf",
		RequiredSlots: []matching.RequiredSlot{
			{SlotID: 1, MaterialType: "PLA", Color: "FF0000"},
			{SlotID: 2, MaterialType: "PETG", Color: "00FF00"},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create queue item: status = %d, body = %s", w.Code, w.Body.String())
	}
	var created model.QueueItem
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created item: %v", err)
	}

	w = env.doJSON(t, http.MethodPost, "/api/queue/"+created.ID+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp StartQueueItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal start response: %v", err)
	}
	if resp.Item.Status != model.QueueStatusPrinting {
		t.Errorf("status = %q, want printing", resp.Item.Status)
	}
	if len(resp.Mapping) != 2 || resp.Mapping[0] != 0 || resp.Mapping[1] != 1 {
		t.Errorf("mapping = %v, want [0 1]", resp.Mapping)
	}

	// 映射应已落库
	item, err := env.store.GetQueueItem(created.ID)
	if err != nil {
		t.Fatalf("get queue item: %v", err)
	}
	if len(item.FilamentMapping) != 2 || item.FilamentMapping[0] != 0 {
		t.Errorf("persisted mapping = %v", item.FilamentMapping)
	}

	// 开始打印应生成通知
	unread, err := env.store.CountUnreadNotifications()
	if err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread notifications = %d, want 1", unread)
	}
}

// TestQueueStartConflict 测试重复开始返回 409
func TestQueueStartConflict(t *testing.T) {
	env := newTestEnv(t)
	printerID := env.addTestPrinter(t, nil)

	w := env.doJSON(t, http.MethodPost, "/api/queue", CreateQueueItemRequest{
		PrinterID:   printerID,
		ArchiveName: "a.3mf",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	var created model.QueueItem
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if w = env.doJSON(t, http.MethodPost, "/api/queue/"+created.ID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("first start: %d", w.Code)
	}
	if w = env.doJSON(t, http.MethodPost, "/api/queue/"+created.ID+"/start", nil); w.Code != http.StatusConflict {
		t.Errorf("second start: status = %d, want 409", w.Code)
	}
}

// TestQueueFinishFailed 测试失败结束产生错误级别通知
func TestQueueFinishFailed(t *testing.T) {
	env := newTestEnv(t)
	printerID := env.addTestPrinter(t, nil)

	w := env.doJSON(t, http.MethodPost, "/api/queue", CreateQueueItemRequest{
		PrinterID:   printerID,
		ArchiveName: "a.3mf",
	})
	var created model.QueueItem
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w = env.doJSON(t, http.MethodPost, "/api/queue/"+created.ID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start: %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPost, "/api/queue/"+created.ID+"/finish", FinishQueueItemRequest{OK: false})
	if w.Code != http.StatusOK {
		t.Fatalf("finish: status = %d, body = %s", w.Code, w.Body.String())
	}

	item, err := env.store.GetQueueItem(created.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Status != model.QueueStatusFailed {
		t.Errorf("status = %q, want failed", item.Status)
	}

	notifications, err := env.store.ListNotifications(true, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	found := false
	for _, n := range notifications {
		if n.Level == model.NotifyLevelError {
			found = true
		}
	}
	if !found {
		t.Errorf("应有错误级别通知: %+v", notifications)
	}
}

// TestSpoolConsumeLowFilamentNotice 测试耗材跨过阈值时只告警一次
func TestSpoolConsumeLowFilamentNotice(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/spools", CreateSpoolRequest{
		Name:           "黑色PLA",
		MaterialType:   "PLA",
		RemainingGrams: 150,
		TotalGrams:     1000,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create spool: %d", w.Code)
	}
	var sp model.Spool
	if err := json.Unmarshal(w.Body.Bytes(), &sp); err != nil {
		t.Fatalf("unmarshal spool: %v", err)
	}

	// 150 -> 90，跨过 100 克阈值，应产生告警
	if w = env.doJSON(t, http.MethodPost, urlf("/api/spools/%d/consume", sp.ID), ConsumeSpoolRequest{Grams: 60}); w.Code != http.StatusOK {
		t.Fatalf("consume: %d", w.Code)
	}
	unread, _ := env.store.CountUnreadNotifications()
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	// 已在阈值下继续扣减，不再重复告警
	if w = env.doJSON(t, http.MethodPost, urlf("/api/spools/%d/consume", sp.ID), ConsumeSpoolRequest{Grams: 10}); w.Code != http.StatusOK {
		t.Fatalf("consume again: %d", w.Code)
	}
	unread, _ = env.store.CountUnreadNotifications()
	if unread != 1 {
		t.Errorf("unread after second consume = %d, want 1", unread)
	}
}
