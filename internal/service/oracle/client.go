package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	drepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// Client implements OracleStream over the reference market's trade WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	pairs          []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// New creates an OracleStream for the configured pairs.
func New(apiKey, websocketURL string, pairs []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.OracleStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		pairs:          pairs,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("oracle connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("oracle stream connected")
	return nil
}

// Subscribe subscribes to the configured pairs.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("oracle stream not connected")
	}
	for _, p := range c.pairs {
		msg := map[string]string{"type": "subscribe", "symbol": p}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", p, err)
		}
		c.log.Info("oracle stream subscribed", logger.String("pair", p))
	}
	return nil
}

type wireTick struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	T int64   `json:"t"` // ms
}

type wireFrame struct {
	Type string     `json:"type"`
	Data []wireTick `json:"data"`
}

// Read streams price updates and errors. The read loop owns the channels and
// closes both when the connection dies; the caller reconnects.
func (c *Client) Read(ctx context.Context) (<-chan *models.OracleUpdate, <-chan error) {
	updates := make(chan *models.OracleUpdate, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(updates)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("oracle conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("oracle read: %w", err)
					return
				}
				var f wireFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-trade frames
					continue
				}
				if f.Type != "trade" {
					continue
				}
				for _, tick := range f.Data {
					u := &models.OracleUpdate{
						Pair:      tick.S,
						Price:     decimal.NewFromFloat(tick.P),
						Timestamp: time.UnixMilli(tick.T),
					}
					select {
					case updates <- u:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return updates, errs
}

// Reconnect closes and re-establishes the connection, then resubscribes.
func (c *Client) Reconnect(ctx context.Context) error {
	c.connected = false
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports the connection state.
func (c *Client) IsConnected() bool { return c.connected }
