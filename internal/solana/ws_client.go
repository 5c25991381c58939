package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClient defines the Solana WebSocket subscription surface.
type WSClient interface {
	// SubscribeLogs subscribes to logs mentioning any of the given
	// program IDs. The returned channel closes when the client closes.
	SubscribeLogs(ctx context.Context, mentions []string) (<-chan LogNotification, error)

	// Close shuts down the connection and all subscriptions.
	Close() error
}

// LogNotification is one logsSubscribe message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// WSConfig tunes reconnect and keepalive behavior.
type WSConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultWSConfig returns the default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSConn implements WSClient on gorilla/websocket with automatic
// reconnect and resubscribe.
type WSConn struct {
	endpoint string
	config   WSConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	subs    map[int64]*wsSub // subscription ID -> subscriber
	subsMu  sync.Mutex
	pending map[uint64]chan int64 // request ID -> confirmation
	pendMu  sync.Mutex

	reconnecting atomic.Bool
	done         chan struct{}
	wg           sync.WaitGroup
}

type wsSub struct {
	mentions []string
	ch       chan LogNotification
}

// DialWS connects a new WebSocket client.
func DialWS(ctx context.Context, endpoint string, config *WSConfig) (*WSConn, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSConn{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[int64]*wsSub),
		pending:  make(map[uint64]chan int64),
		done:     make(chan struct{}),
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

func (c *WSConn) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	return nil
}

// SubscribeLogs subscribes to program logs for the given mentions.
func (c *WSConn) SubscribeLogs(ctx context.Context, mentions []string) (<-chan LogNotification, error) {
	subID, err := c.sendSubscribe(ctx, mentions)
	if err != nil {
		return nil, err
	}

	// Buffered so launch bursts do not stall the read loop.
	ch := make(chan LogNotification, 1024)
	c.subsMu.Lock()
	c.subs[subID] = &wsSub{mentions: mentions, ch: ch}
	c.subsMu.Unlock()
	return ch, nil
}

// sendSubscribe issues logsSubscribe and waits for the subscription ID.
func (c *WSConn) sendSubscribe(ctx context.Context, mentions []string) (int64, error) {
	if c.closed.Load() {
		return 0, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)
	filter := map[string]interface{}{"mentions": mentions}
	if len(mentions) == 0 {
		filter = map[string]interface{}{"all": nil}
	}
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      reqID,
		"method":  "logsSubscribe",
		"params": []interface{}{
			filter,
			map[string]string{"commitment": "confirmed"},
		},
	}

	confirm := make(chan int64, 1)
	c.pendMu.Lock()
	c.pending[reqID] = confirm
	c.pendMu.Unlock()

	cleanup := func() {
		c.pendMu.Lock()
		delete(c.pending, reqID)
		c.pendMu.Unlock()
	}

	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		cleanup()
		return 0, fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirm:
		return subID, nil
	case <-time.After(30 * time.Second):
		cleanup()
		return 0, fmt.Errorf("subscription confirmation timeout")
	case <-c.done:
		return 0, fmt.Errorf("client closed")
	case <-ctx.Done():
		cleanup()
		return 0, ctx.Err()
	}
}

// Close shuts the connection down and closes subscriber channels.
func (c *WSConn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		close(sub.ch)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *WSConn) readLoop() {
	defer c.wg.Done()

	delay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			if !c.reconnecting.Swap(true) {
				go c.reconnect(delay)
			}
			delay *= 2
			if delay > c.config.MaxReconnectDelay {
				delay = c.config.MaxReconnectDelay
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		delay = c.config.ReconnectDelay
		c.handleMessage(message)
	}
}

func (c *WSConn) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.connect(ctx); err != nil {
		return // next read error retries
	}

	// Re-establish every active subscription under its new ID, keeping
	// the original channel so consumers are unaware of the reconnect.
	c.subsMu.Lock()
	old := c.subs
	c.subs = make(map[int64]*wsSub, len(old))
	c.subsMu.Unlock()

	for _, sub := range old {
		subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
		newID, err := c.sendSubscribe(subCtx, sub.mentions)
		subCancel()
		if err != nil {
			continue
		}
		c.subsMu.Lock()
		c.subs[newID] = sub
		c.subsMu.Unlock()
	}
}

func (c *WSConn) handleMessage(message []byte) {
	// Subscription confirmation
	var resp struct {
		ID     uint64 `json:"id"`
		Result int64  `json:"result"`
	}
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 && resp.ID > 0 {
		c.pendMu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.pendMu.Unlock()
		if ok {
			select {
			case ch <- resp.Result:
			default:
			}
		}
		return
	}

	// Log notification
	var notif struct {
		Method string `json:"method"`
		Params *struct {
			Subscription int64 `json:"subscription"`
			Result       struct {
				Context *struct {
					Slot int64 `json:"slot"`
				} `json:"context"`
				Value struct {
					Signature string      `json:"signature"`
					Logs      []string    `json:"logs"`
					Err       interface{} `json:"err"`
				} `json:"value"`
			} `json:"result"`
		} `json:"params"`
	}
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "logsNotification" || notif.Params == nil {
		return
	}

	out := LogNotification{
		Signature: notif.Params.Result.Value.Signature,
		Logs:      notif.Params.Result.Value.Logs,
		Err:       notif.Params.Result.Value.Err,
	}
	if notif.Params.Result.Context != nil {
		out.Slot = notif.Params.Result.Context.Slot
	}

	c.subsMu.Lock()
	sub, ok := c.subs[notif.Params.Subscription]
	c.subsMu.Unlock()
	if !ok {
		return
	}

	select {
	case sub.ch <- out:
	case <-c.done:
	}
}

func (c *WSConn) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A failed ping surfaces as a read error; the reader reconnects.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

var _ WSClient = (*WSConn)(nil)
