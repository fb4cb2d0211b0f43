package controller

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/db/models"
	"github.com/solmirror/tradescope/pkg/redis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action  string `json:"action"`  // "subscribe" or "unsubscribe"
	Address string `json:"address"` // wallet or token address, or "*" for everything
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"` // "trade", "subscribed", "unsubscribed", "error", "ping"
	Payload interface{} `json:"payload"`
}

// clientSubscriptions tracks which addresses a client wants trades for.
type clientSubscriptions struct {
	mu    sync.RWMutex
	addrs map[string]bool
}

func newClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{addrs: make(map[string]bool)}
}

func (cs *clientSubscriptions) Subscribe(addr string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.addrs[addr] = true
}

func (cs *clientSubscriptions) Unsubscribe(addr string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.addrs, addr)
}

// Matches reports whether a trade is interesting to this client. A trade
// matches on either side: the trading wallet or the token mint. Wildcard (*)
// matches everything.
func (cs *clientSubscriptions) Matches(trade models.Trade) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.addrs["*"] {
		return true
	}
	return cs.addrs[trade.Wallet] || cs.addrs[trade.TokenAddress]
}

// HandleTradesWS streams live trades to the client as they arrive from the
// collector via Redis pub/sub.
// Endpoint: GET /ws/trades
func (c *Controller) HandleTradesWS(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		writeError(w, http.StatusServiceUnavailable, "FeedUnavailable", "live trade feed is disabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	subs := newClientSubscriptions()
	ctx := r.Context()

	pubsub := c.App.RedisClient.Subscribe(ctx, redis.TradesChannel)
	defer func() { _ = pubsub.Close() }()

	var writeMu sync.Mutex
	send := func(msg ServerMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(msg)
	}

	// Reader: client subscribe/unsubscribe commands.
	go func() {
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Action {
			case "subscribe":
				subs.Subscribe(msg.Address)
				_ = send(ServerMessage{Type: "subscribed", Payload: msg.Address})
			case "unsubscribe":
				subs.Unsubscribe(msg.Address)
				_ = send(ServerMessage{Type: "unsubscribed", Payload: msg.Address})
			default:
				_ = send(ServerMessage{Type: "error", Payload: "unknown action"})
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := send(ServerMessage{Type: "ping", Payload: time.Now().Unix()}); err != nil {
				return
			}
		case m, ok := <-ch:
			if !ok {
				return
			}
			var trade models.Trade
			if err := json.Unmarshal([]byte(m.Payload), &trade); err != nil {
				c.App.Logger.Warn("Malformed trade on live channel", zap.Error(err))
				continue
			}
			if !subs.Matches(trade) {
				continue
			}
			if err := send(ServerMessage{Type: "trade", Payload: trade}); err != nil {
				return
			}
		}
	}
}
