// Package ws carries the live host feed: a reconnecting websocket client
// delivering binary market data frames.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sierra_bridge/utils"

	"github.com/gorilla/websocket"
)

const (
	HeartbeatInterval = 10 * time.Second
	ReconnectDelay    = 5 * time.Second
)

type FeedClient struct {
	conn           *websocket.Conn
	url            string
	OnFrame        func([]byte)
	isConnected    bool
	reconnectDelay time.Duration
	Headers        map[string]string
}

func NewFeedClient(url string, headers map[string]string) *FeedClient {
	return &FeedClient{
		url:            url,
		Headers:        headers,
		reconnectDelay: ReconnectDelay,
	}
}

func (c *FeedClient) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	conn, _, err := dialer.Dial(c.url, c.httpHeaders())
	if err != nil {
		return err
	}

	c.conn = conn
	c.isConnected = true

	// Start heartbeat
	go c.heartbeat()

	return nil
}

func (c *FeedClient) httpHeaders() http.Header {
	headers := http.Header{}
	for key, value := range c.Headers {
		headers.Set(key, value)
	}
	return headers
}

func (c *FeedClient) heartbeat() {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		<-ticker.C
		if !c.isConnected {
			return
		}
		if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			utils.Logger.Warnw("Feed heartbeat failed", "error", err)
			c.isConnected = false
			c.conn.Close()
			return
		}
	}
}

// Listen reads frames until the context is cancelled, reconnecting on any
// transport failure and handing each binary message to OnFrame.
func (c *FeedClient) Listen(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !c.isConnected {
			if err := c.Connect(); err != nil {
				utils.Logger.Warnw("Feed connection failed",
					"url", c.url,
					"error", err,
					"retry_in", c.reconnectDelay)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.reconnectDelay):
				}
				continue
			}
			utils.Logger.Infow("Feed connected", "url", c.url)
		}

		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			utils.Logger.Warnw("Feed read error", "error", err)
			c.isConnected = false
			c.conn.Close()
			continue
		}

		if msgType == websocket.BinaryMessage && c.OnFrame != nil {
			c.OnFrame(message)
		}
	}
}

// Connected reports whether the client currently holds a live connection.
func (c *FeedClient) Connected() bool { return c.isConnected }

func (c *FeedClient) Close() {
	c.isConnected = false
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendJSON writes a JSON control message, e.g. a subscription request.
func (c *FeedClient) SendJSON(v interface{}) error {
	if !c.isConnected {
		return fmt.Errorf("feed is not connected")
	}
	return c.conn.WriteJSON(v)
}
