// internal/pkg/wshub/hub.go
package wshub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"nexusmall/internal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 跨域交给网关处理
		return true
	},
}

// Bus 负责跨实例广播。未配置时 Hub 只投递本地连接。
type Bus interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Subscribe(ctx context.Context, deliver func(key string, payload []byte)) error
}

// MessageFunc 处理客户端发上来的一帧
type MessageFunc func(ctx context.Context, c *Client, payload []byte)

// Hub 维护所有活跃的连接。一个连接可以挂在多个 key 下（用户 id、房间名）。
type Hub struct {
	nodeID  string
	bus     Bus
	lock    sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub(bus Bus) *Hub {
	return &Hub{
		nodeID:  "node-" + uuid.New().String()[:8],
		bus:     bus,
		clients: make(map[string]map[*Client]struct{}),
	}
}

// NodeID 返回本实例的标识
func (h *Hub) NodeID() string { return h.nodeID }

// Client 是一个 WebSocket 连接的代表
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	keys []string

	mu     sync.Mutex
	closed bool
}

// Keys 返回连接注册的 key，第一个是用户 id
func (c *Client) Keys() []string { return c.keys }

// Send 把一帧放入发送队列，队列满时丢弃并断开慢连接
func (c *Client) Send(payload []byte) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	select {
	case c.send <- payload:
		c.mu.Unlock()
		return true
	default:
		c.mu.Unlock()
		c.hub.remove(c)
		return false
	}
}

// Serve 升级 HTTP 连接并挂到给定 key 下，阻塞到连接断开
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, keys []string, onMessage MessageFunc) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{hub: h, conn: conn, send: make(chan []byte, 256), keys: keys}
	h.add(c)

	go c.writePump()
	c.readPump(r.Context(), onMessage)
	return nil
}

// Publish 向某个 key 推送一帧。配置了 Bus 时经由 Bus 到达所有实例。
func (h *Hub) Publish(ctx context.Context, key string, payload []byte) error {
	if h.bus != nil {
		return h.bus.Publish(ctx, key, payload)
	}
	h.Deliver(key, payload)
	return nil
}

// Deliver 只投递到本实例的连接，返回投递数
func (h *Hub) Deliver(key string, payload []byte) int {
	h.lock.RLock()
	targets := make([]*Client, 0, len(h.clients[key]))
	for c := range h.clients[key] {
		targets = append(targets, c)
	}
	h.lock.RUnlock()

	n := 0
	for _, c := range targets {
		if c.Send(payload) {
			n++
		}
	}
	return n
}

// Online 返回某个 key 在本实例上的连接数
func (h *Hub) Online(key string) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients[key])
}

// Run 订阅 Bus 并在 ctx 结束时关闭所有连接
func (h *Hub) Run(ctx context.Context) error {
	if h.bus != nil {
		go func() {
			if err := h.bus.Subscribe(ctx, func(key string, payload []byte) { h.Deliver(key, payload) }); err != nil && ctx.Err() == nil {
				logger.Ctx(ctx).Error().Err(err).Str("node", h.nodeID).Msg("hub bus subscription stopped")
			}
		}()
	}
	<-ctx.Done()

	h.lock.Lock()
	all := map[*Client]struct{}{}
	for _, set := range h.clients {
		for c := range set {
			all[c] = struct{}{}
		}
	}
	h.lock.Unlock()
	for c := range all {
		h.remove(c)
	}
	return nil
}

func (h *Hub) add(c *Client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for _, k := range c.keys {
		if h.clients[k] == nil {
			h.clients[k] = make(map[*Client]struct{})
		}
		h.clients[k][c] = struct{}{}
	}
	logger.Ctx(context.Background()).Debug().Strs("keys", c.keys).Str("node", h.nodeID).Msg("client registered")
}

func (h *Hub) remove(c *Client) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	h.lock.Lock()
	for _, k := range c.keys {
		delete(h.clients[k], c)
		if len(h.clients[k]) == 0 {
			delete(h.clients, k)
		}
	}
	h.lock.Unlock()
	logger.Ctx(context.Background()).Debug().Strs("keys", c.keys).Msg("client unregistered")
}

func (c *Client) readPump(ctx context.Context, onMessage MessageFunc) {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Ctx(ctx).Warn().Err(err).Strs("keys", c.keys).Msg("websocket closed unexpectedly")
			}
			return
		}
		if onMessage != nil {
			onMessage(ctx, c, payload)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
