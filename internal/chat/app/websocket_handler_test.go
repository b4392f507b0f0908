package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/logger"

	"github.com/stretchr/testify/assert"
)

var errWriteTimeout = errors.New("i/o timeout")

// stalledConn a peer that never reads: writes block until the deadline passes
type stalledConn struct {
	mu       sync.Mutex
	deadline time.Time
	writes   int
}

func (c *stalledConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *stalledConn) WriteMessage(int, []byte) error {
	c.mu.Lock()
	deadline := c.deadline
	c.writes++
	c.mu.Unlock()
	return c.block(deadline)
}

func (c *stalledConn) WriteControl(_ int, _ []byte, deadline time.Time) error {
	return c.block(deadline)
}

func (c *stalledConn) block(deadline time.Time) error {
	if deadline.IsZero() {
		select {}
	}
	time.Sleep(time.Until(deadline))
	return errWriteTimeout
}

func TestWSClient_WritesGiveUpOnStalledPeer(t *testing.T) {
	logger.SetNewNop()
	conn := &stalledConn{}
	client := &wsClient{conn: conn, log: logger.Log, writeTimeout: 50 * time.Millisecond}

	done := make(chan error, 1)
	go func() {
		client.send(domain.WSResponse{Action: string(domain.MessagesChanged)})
		client.send(domain.WSResponse{Action: string(domain.MessagesChanged)})
		done <- client.ping()
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errWriteTimeout)
	case <-time.After(3 * time.Second):
		t.Fatal("websocket write blocked on a peer that stopped reading")
	}
	assert.Equal(t, 2, conn.writes)
}

func TestNewChatWebsocketHandler_Defaults(t *testing.T) {
	h := NewChatWebsocketHandler(nil, nil, nil, nil, nil, 0, nil)
	assert.Equal(t, 30*time.Second, h.pingInterval)
	assert.Equal(t, defaultWriteTimeout, h.writeTimeout)
	assert.Equal(t, time.UTC, h.loc)
}
