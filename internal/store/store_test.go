package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// newTestStore 创建临时数据库
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bambuddy.db")
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// TestPrinterCRUD 测试打印机增删改查
func TestPrinterCRUD(t *testing.T) {
	st := newTestStore(t)

	id, err := st.CreatePrinter(&model.Printer{
		Name:         "车间X1C",
		Host:         "http://192.168.1.30:8883",
		SerialNumber: "01S00A000000001",
		Model:        "X1C",
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create printer: %v", err)
	}

	p, err := st.GetPrinter(id)
	if err != nil {
		t.Fatalf("get printer: %v", err)
	}
	if p.Name != "车间X1C" || !p.Active {
		t.Errorf("printer = %+v", p)
	}

	if err := st.UpdatePrinter(id, map[string]interface{}{"name": "改名", "active": 0}); err != nil {
		t.Fatalf("update printer: %v", err)
	}
	p, err = st.GetPrinter(id)
	if err != nil {
		t.Fatalf("get printer after update: %v", err)
	}
	if p.Name != "改名" || p.Active {
		t.Errorf("printer after update = %+v", p)
	}

	active := true
	printers, err := st.ListPrinters(PrinterQueryOptions{Active: &active})
	if err != nil {
		t.Fatalf("list printers: %v", err)
	}
	if len(printers) != 0 {
		t.Errorf("启用过滤后应为空, got %d", len(printers))
	}

	if err := st.DeletePrinter(id); err != nil {
		t.Fatalf("delete printer: %v", err)
	}
	if _, err := st.GetPrinter(id); err != sql.ErrNoRows {
		t.Errorf("删除后查询应返回 sql.ErrNoRows, got %v", err)
	}
}

// TestSpoolConsume 测试耗材扣减不会扣成负数
func TestSpoolConsume(t *testing.T) {
	st := newTestStore(t)

	id, err := st.CreateSpool(&model.Spool{
		Name:           "黑色PLA",
		MaterialType:   "PLA",
		Color:          "000000",
		RemainingGrams: 100,
		TotalGrams:     1000,
	})
	if err != nil {
		t.Fatalf("create spool: %v", err)
	}

	sp, err := st.ConsumeSpool(id, 30)
	if err != nil {
		t.Fatalf("consume spool: %v", err)
	}
	if sp.RemainingGrams != 70 {
		t.Errorf("remaining = %v, want 70", sp.RemainingGrams)
	}

	sp, err = st.ConsumeSpool(id, 200)
	if err != nil {
		t.Fatalf("consume spool over: %v", err)
	}
	if sp.RemainingGrams != 0 {
		t.Errorf("remaining = %v, want 0", sp.RemainingGrams)
	}
}

// TestSpoolQueryOptions 测试耗材按材质过滤
func TestSpoolQueryOptions(t *testing.T) {
	st := newTestStore(t)

	for _, sp := range []*model.Spool{
		{MaterialType: "PLA", Color: "FF0000"},
		{MaterialType: "PETG", Color: "00FF00"},
		{MaterialType: "PLA", Color: "0000FF"},
	} {
		if _, err := st.CreateSpool(sp); err != nil {
			t.Fatalf("create spool: %v", err)
		}
	}

	pla := "PLA"
	spools, err := st.ListSpools(SpoolQueryOptions{MaterialType: &pla})
	if err != nil {
		t.Fatalf("list spools: %v", err)
	}
	if len(spools) != 2 {
		t.Errorf("PLA 数量 = %d, want 2", len(spools))
	}
}

// TestQueueLifecycle 测试队列任务从入队到完成的完整流程
func TestQueueLifecycle(t *testing.T) {
	st := newTestStore(t)

	slots := []matching.RequiredSlot{
		{SlotID: 1, MaterialType: "PLA", Color: "FF0000", UsedGrams: 12.5},
		{SlotID: 3, MaterialType: "PETG", Color: "00FF00", UsedGrams: 3.2},
	}
	id, err := st.CreateQueueItem(&model.QueueItem{
		PrinterID:     1,
		ArchiveName:   "benchy.3mf",
		RequiredSlots: slots,
	})
	if err != nil {
		t.Fatalf("create queue item: %v", err)
	}

	item, err := st.GetQueueItem(id)
	if err != nil {
		t.Fatalf("get queue item: %v", err)
	}
	if item.Status != model.QueueStatusQueued {
		t.Errorf("status = %q, want queued", item.Status)
	}
	if len(item.RequiredSlots) != 2 || item.RequiredSlots[1].SlotID != 3 {
		t.Errorf("required slots = %+v", item.RequiredSlots)
	}
	if item.FilamentMapping != nil {
		t.Errorf("未开始打印时映射应为空, got %v", item.FilamentMapping)
	}

	if err := st.MarkQueueItemStarted(id, []int{0, -1, 5}); err != nil {
		t.Fatalf("mark started: %v", err)
	}
	item, err = st.GetQueueItem(id)
	if err != nil {
		t.Fatalf("get after start: %v", err)
	}
	if item.Status != model.QueueStatusPrinting || item.StartedAt == nil {
		t.Errorf("item after start = %+v", item)
	}
	if len(item.FilamentMapping) != 3 || item.FilamentMapping[1] != -1 {
		t.Errorf("mapping = %v, want [0 -1 5]", item.FilamentMapping)
	}

	if err := st.MarkQueueItemFinished(id, false); err != nil {
		t.Fatalf("mark finished: %v", err)
	}
	item, err = st.GetQueueItem(id)
	if err != nil {
		t.Fatalf("get after finish: %v", err)
	}
	if item.Status != model.QueueStatusFailed || item.FinishedAt == nil {
		t.Errorf("item after finish = %+v", item)
	}
}

// TestQueuePositionAssignment 测试入队时自动排到队尾
func TestQueuePositionAssignment(t *testing.T) {
	st := newTestStore(t)

	id1, err := st.CreateQueueItem(&model.QueueItem{PrinterID: 1, ArchiveName: "a.3mf"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	id2, err := st.CreateQueueItem(&model.QueueItem{PrinterID: 1, ArchiveName: "b.3mf"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	printerID := int64(1)
	items, err := st.ListQueueItems(QueueQueryOptions{PrinterID: &printerID})
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	if len(items) != 2 || items[0].ID != id1 || items[1].ID != id2 {
		t.Fatalf("队列顺序不对: %+v", items)
	}

	// 把第二个任务调到队首
	if err := st.ReorderQueueItem(id2, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	items, err = st.ListQueueItems(QueueQueryOptions{PrinterID: &printerID})
	if err != nil {
		t.Fatalf("list after reorder: %v", err)
	}
	if items[0].ID != id2 {
		t.Errorf("调序后队首 = %s, want %s", items[0].ID, id2)
	}
}

// TestNextQueuedItem 测试下一个待打印任务的查找
func TestNextQueuedItem(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.NextQueuedItem(1); err != sql.ErrNoRows {
		t.Errorf("空队列应返回 sql.ErrNoRows, got %v", err)
	}

	id1, err := st.CreateQueueItem(&model.QueueItem{PrinterID: 1, ArchiveName: "a.3mf"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	id2, err := st.CreateQueueItem(&model.QueueItem{PrinterID: 1, ArchiveName: "b.3mf"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	next, err := st.NextQueuedItem(1)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next.ID != id1 {
		t.Errorf("next = %s, want %s", next.ID, id1)
	}

	// 队首开始打印后，下一个应变为第二个任务
	if err := st.MarkQueueItemStarted(id1, []int{0}); err != nil {
		t.Fatalf("start first: %v", err)
	}
	next, err = st.NextQueuedItem(1)
	if err != nil {
		t.Fatalf("next after start: %v", err)
	}
	if next.ID != id2 {
		t.Errorf("next = %s, want %s", next.ID, id2)
	}
}

// TestNotifications 测试通知的已读标记
func TestNotifications(t *testing.T) {
	st := newTestStore(t)

	id, err := st.CreateNotification(&model.Notification{
		Level:   model.NotifyLevelWarning,
		Title:   "耗材不足",
		Message: "黑色PLA剩余不足100克",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if _, err := st.CreateNotification(&model.Notification{
		Level: model.NotifyLevelInfo,
		Title: "打印开始",
	}); err != nil {
		t.Fatalf("create second notification: %v", err)
	}

	count, err := st.CountUnreadNotifications()
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if err := st.MarkNotificationRead(id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := st.ListNotifications(true, 0)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Errorf("unread list = %d, want 1", len(unread))
	}

	if err := st.MarkAllNotificationsRead(); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	count, err = st.CountUnreadNotifications()
	if err != nil {
		t.Fatalf("count after mark all: %v", err)
	}
	if count != 0 {
		t.Errorf("unread after mark all = %d, want 0", count)
	}
}

// TestConfigKV 测试配置项读写
func TestConfigKV(t *testing.T) {
	st := newTestStore(t)

	if err := st.SetConfigInt(ConfigKeyPollInterval, 10); err != nil {
		t.Fatalf("set config: %v", err)
	}
	v, err := st.GetConfigInt(ConfigKeyPollInterval)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if v != 10 {
		t.Errorf("poll interval = %d, want 10", v)
	}

	// 重复设置走 upsert
	if err := st.SetConfigInt(ConfigKeyPollInterval, 30); err != nil {
		t.Fatalf("set config again: %v", err)
	}
	v, err = st.GetConfigInt(ConfigKeyPollInterval)
	if err != nil {
		t.Fatalf("get config again: %v", err)
	}
	if v != 30 {
		t.Errorf("poll interval = %d, want 30", v)
	}

	if _, err := st.GetConfig("no_such_key"); err == nil {
		t.Error("不存在的配置键应返回错误")
	}
}
