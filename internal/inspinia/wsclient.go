package inspinia

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	hubURL = "wss://skyplatform.io:35601"

	keepAliveInterval = 1 * time.Second
)

// WsClient is a session against the Inspinia/Astrum hub's WebSocket
// endpoint: it decorates every outgoing message with the envelope fields
// the hub expects (sequence, elapsed time, target id) and answers the
// protocol-level ping/pong itself.
type WsClient struct {
	conn *websocket.Conn

	start    time.Time
	sequence uint32
	targetID string

	mu sync.Mutex
}

// Connect dials the hub's WebSocket endpoint for the given mobile/client id
// and Inspinia target (site) id.
func Connect(ctx context.Context, clientID, targetID string) (*WsClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	uri := fmt.Sprintf("%s/mobileId=%s", hubURL, clientID)

	conn, resp, err := dialer.DialContext(ctx, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("inspinia: connecting to hub: %w", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}

	return &WsClient{
		conn:     conn,
		start:    time.Now(),
		targetID: targetID,
	}, nil
}

// Close closes the underlying WebSocket connection.
func (c *WsClient) Close() error {
	return c.conn.Close()
}

// Register announces this client to the hub.
func (c *WsClient) Register(ctx context.Context, deviceType, deviceName, pushToken string) error {
	return c.sendMessage(ctx, newRegisterMessage(deviceType, deviceName, pushToken))
}

// KeepAlive sends the hub a keep-alive frame. Call this on a
// keepAliveInterval ticker to hold the session open.
func (c *WsClient) KeepAlive(ctx context.Context) error {
	return c.sendMessage(ctx, newKeepAliveMessage())
}

// SetValue pushes a new value for portID (e.g. a setpoint write).
func (c *WsClient) SetValue(ctx context.Context, portID, value string) error {
	return c.sendMessage(ctx, newSQLRequestMessage(portID, value))
}

// AcknowledgeUpdate tells the hub this client applied an incoming update.
func (c *WsClient) AcknowledgeUpdate(ctx context.Context, portID string) error {
	return c.sendMessage(ctx, newUpdateStateMessage(portID))
}

// sendMessage envelopes msg with the fields every outgoing Astrum message
// needs (code, type, sequence, time, targetId) and writes it as a single
// text frame.
func (c *WsClient) sendMessage(ctx context.Context, msg outgoingMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("inspinia: encoding message: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("inspinia: enveloping message: %w", err)
	}

	c.mu.Lock()
	fields["code"] = msg.code()
	fields["type"] = "com.astrum.websocket.JSONRequest"
	fields["sequence"] = c.sequence
	fields["time"] = uint64(time.Since(c.start).Seconds())
	fields["targetId"] = c.targetID
	c.sequence++
	c.mu.Unlock()

	envelope, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("inspinia: encoding envelope: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	return c.conn.WriteMessage(websocket.TextMessage, envelope)
}

// ReadMessage blocks for the next incoming frame, answering protocol-level
// pings transparently and surfacing application messages as ReceivedMessage.
func (c *WsClient) ReadMessage() (ReceivedMessage, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ReceivedMessage{}, ErrStreamClosed
			}
			return ReceivedMessage{}, err
		}

		switch messageType {
		case websocket.TextMessage:
			var msg ReceivedMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return ReceivedMessage{}, fmt.Errorf("inspinia: decoding message: %w", err)
			}
			return msg, nil
		case websocket.PingMessage:
			if err := c.conn.WriteMessage(websocket.PongMessage, data); err != nil {
				return ReceivedMessage{}, err
			}
			continue
		default:
			return ReceivedMessage{}, ErrUnexpectedMessage
		}
	}
}

// RunKeepAlive sends a keep-alive frame every keepAliveInterval until ctx is
// done, logging nothing itself — the caller's reconnect supervisor handles
// a failed send.
func (c *WsClient) RunKeepAlive(ctx context.Context) error {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.KeepAlive(ctx); err != nil {
				return err
			}
		}
	}
}
