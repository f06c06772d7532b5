package ws

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// 事件类型
const (
	EventPrinterStatus = "printer_status" // 打印机状态快照更新
	EventQueueUpdate   = "queue_update"   // 队列任务状态变化
	EventNotification  = "notification"   // 新通知
)

// Event 推送给前端的事件信封
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub 事件推送中心，管理所有 websocket 连接
// 只做服务端到前端的单向广播，不处理客户端请求
type Hub struct {
	upgrader websocket.Upgrader
	clients  map[int64]*client
	nextID   int64
	mu       sync.RWMutex
}

// NewHub 创建事件推送中心
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 本地单用户工具，不做跨域限制
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[int64]*client),
	}
}

// HandleConn 升级 HTTP 连接并纳入广播
func (h *Hub) HandleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:     atomic.AddInt64(&h.nextID, 1),
		conn:   conn,
		sendCh: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go c.writePump()
	go c.readPump(func() { h.remove(c.id) })
}

// Broadcast 向所有连接广播事件
func (h *Hub) Broadcast(eventType string, data interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.send(event)
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close 关闭所有连接
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.close()
	}
	h.clients = make(map[int64]*client)
}

// remove 移除并关闭指定连接
func (h *Hub) remove(id int64) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		c.close()
	}
}

// client 单个 websocket 连接
type client struct {
	id     int64
	conn   *websocket.Conn
	sendCh chan Event
	done   chan struct{}
	mu     sync.Mutex
}

// send 向连接的发送队列投递事件，队列满时丢弃
func (c *client) send(event Event) {
	select {
	case c.sendCh <- event:
	case <-c.done:
	default:
		log.Printf("websocket: dropping event to client %d (channel full)", c.id)
	}
}

// close 关闭连接，可重复调用
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	c.conn.Close()
}

// readPump 持续读取以感知连接断开，收到的内容一律忽略
func (c *client) readPump(onClose func()) {
	defer func() {
		onClose()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
	}
}

// writePump 把发送队列里的事件写到连接上，定期发 ping 保活
func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case event := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
