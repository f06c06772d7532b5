package status

import (
	"sync"
	"time"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// Cache 打印机状态快照的内存缓存
// 快照只存内存不落库，每次轮询或上报整体替换
type Cache struct {
	statuses   map[int64]*model.PrinterStatus
	staleAfter time.Duration // 超过该时长没有新快照视为离线，0 表示不判定
	mu         sync.RWMutex
}

// NewCache 创建状态缓存
func NewCache(staleAfter time.Duration) *Cache {
	return &Cache{
		statuses:   make(map[int64]*model.PrinterStatus),
		staleAfter: staleAfter,
	}
}

// Update 写入打印机的最新快照，UpdatedAt 未填时补当前时间
func (c *Cache) Update(st *model.PrinterStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := copyStatus(st)
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = time.Now()
	}
	c.statuses[copied.PrinterID] = copied
}

// Get 获取打印机的当前快照
// 从未上报过时返回 ok=false；快照过期时返回离线状态（料盘清空）
func (c *Cache) Get(printerID int64) (*model.PrinterStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st, ok := c.statuses[printerID]
	if !ok {
		return nil, false
	}

	copied := copyStatus(st)
	if c.staleAfter > 0 && time.Since(copied.UpdatedAt) > c.staleAfter {
		copied.State = model.PrinterStateOffline
		copied.Trays = nil
	}
	return copied, true
}

// Trays 获取打印机当前装载的料盘列表
// 没有快照或快照过期时返回空列表
func (c *Cache) Trays(printerID int64) []matching.LoadedTray {
	st, ok := c.Get(printerID)
	if !ok || st.State == model.PrinterStateOffline {
		return []matching.LoadedTray{}
	}
	return st.Trays
}

// Remove 删除打印机的快照（打印机被删除时调用）
func (c *Cache) Remove(printerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, printerID)
}

// Count 已有快照的打印机数量
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses)
}

// copyStatus 深拷贝快照，避免调用方与缓存互相影响
func copyStatus(st *model.PrinterStatus) *model.PrinterStatus {
	copied := *st
	if st.Trays != nil {
		copied.Trays = make([]matching.LoadedTray, len(st.Trays))
		copy(copied.Trays, st.Trays)
	}
	return &copied
}
