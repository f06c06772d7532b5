package printer

import (
	"context"
	"log"
	"time"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
	"github.com/sbcrumb/bambuddy-sub000/internal/service/status"
	"github.com/sbcrumb/bambuddy-sub000/internal/store"
	"github.com/sbcrumb/bambuddy-sub000/internal/ws"
)

// Poller 周期轮询所有启用的打印机，把快照写进状态缓存并向前端广播
type Poller struct {
	store    *store.Store
	cache    *status.Cache
	hub      *ws.Hub
	client   *Client
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPoller 创建轮询器
func NewPoller(st *store.Store, cache *status.Cache, hub *ws.Hub, client *Client, interval time.Duration) *Poller {
	return &Poller{
		store:    st,
		cache:    cache,
		hub:      hub,
		client:   client,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start 启动轮询，立即跑一轮然后按间隔重复
func (p *Poller) Start() {
	go func() {
		defer close(p.doneCh)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.pollOnce()
		for {
			select {
			case <-ticker.C:
				p.pollOnce()
			case <-p.stopCh:
				return
			}
		}
	}()
}

// Stop 停止轮询并等待当前轮次结束
func (p *Poller) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

// pollOnce 轮询一轮所有启用的打印机
func (p *Poller) pollOnce() {
	active := true
	printers, err := p.store.ListPrinters(store.PrinterQueryOptions{Active: &active})
	if err != nil {
		log.Printf("poller: list printers failed: %v", err)
		return
	}

	for _, pr := range printers {
		select {
		case <-p.stopCh:
			return
		default:
		}
		p.pollPrinter(pr)
	}
}

// pollPrinter 拉取单台打印机的快照
// 拉取失败时写入离线快照，保证前端能看到状态翻转
func (p *Poller) pollPrinter(pr *model.Printer) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	st, err := p.client.FetchStatus(ctx, pr)
	if err != nil {
		log.Printf("poller: fetch status of printer %d failed: %v", pr.ID, err)
		st = &model.PrinterStatus{
			PrinterID: pr.ID,
			State:     model.PrinterStateOffline,
		}
	}

	p.cache.Update(st)
	p.hub.Broadcast(ws.EventPrinterStatus, st)
}
