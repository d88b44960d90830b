package roborock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultPort is the TCP port the local protocol listens on.
const DefaultPort = 58867

// readTimeout bounds how long Connection.next waits for the next frame
// before giving up.
const readTimeout = 15 * time.Second

// retryDelay is the pause before a reconnect-and-retry attempt on a send_rpc
// failure judged retryable.
const retryDelay = 300 * time.Millisecond

// Connection is a single TCP session speaking the L01 local protocol to one
// device.
type Connection struct {
	conn    net.Conn
	codec   *Codec
	buffer  []byte
	pending []Message
}

// Dial opens a TCP connection to ip:DefaultPort and performs the hello
// handshake, returning a Connection bound to the resulting ack nonce.
func Dial(ctx context.Context, ip string, localKey string, connectNonce, helloSeq, helloNonce uint32) (*Connection, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ip, DefaultPort))
	if err != nil {
		return nil, err
	}
	return connect(ctx, conn, localKey, connectNonce, helloSeq, helloNonce)
}

func connect(ctx context.Context, conn net.Conn, localKey string, connectNonce, helloSeq, helloNonce uint32) (*Connection, error) {
	c := &Connection{
		conn:  conn,
		codec: NewCodec(localKey, connectNonce),
	}

	ackNonce, err := c.hello(ctx, helloSeq, helloNonce)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.codec = c.codec.WithAckNonce(ackNonce)
	return c, nil
}

func (c *Connection) hello(ctx context.Context, seq, nonce uint32) (uint32, error) {
	message := NewMessage(MessageProtocolHelloRequest, seq, nonce, nil)
	if err := c.send(message); err != nil {
		return 0, err
	}

	for {
		response, err := c.next(ctx)
		if err != nil {
			return 0, err
		}
		if response.Protocol == MessageProtocolHelloResponse && response.Seq == seq {
			return response.Nonce, nil
		}
	}
}

// SendRpc sends a GeneralRequest RPC and blocks until the matching response
// (by request id) arrives, skipping any unrelated frames the device sends in
// the meantime.
func (c *Connection) SendRpc(ctx context.Context, requestID uint32, seq, nonce uint32, method string, params any) (json.RawMessage, error) {
	request, err := NewRpcRequest(requestID, method, params)
	if err != nil {
		return nil, err
	}
	payload, err := request.ToPayload()
	if err != nil {
		return nil, err
	}

	message := NewMessage(MessageProtocolGeneralRequest, seq, nonce, payload)
	if err := c.send(message); err != nil {
		return nil, err
	}

	for {
		response, err := c.next(ctx)
		if err != nil {
			return nil, err
		}
		switch response.Protocol {
		case MessageProtocolGeneralResponse, MessageProtocolGeneralRequest, MessageProtocolRpcResponse:
		default:
			continue
		}
		if response.Payload == nil {
			continue
		}

		rpcResponse, err := DecodeRpcResponse(response.Payload)
		if err != nil {
			return nil, err
		}
		if rpcResponse.ID == nil || *rpcResponse.ID != requestID {
			continue
		}
		if rpcResponse.Err != nil {
			return nil, rpcResponse.Err
		}
		return rpcResponse.Result, nil
	}
}

// Ping sends a PingRequest and waits for the matching PingResponse.
func (c *Connection) Ping(ctx context.Context, seq, nonce uint32) error {
	message := NewMessage(MessageProtocolPingRequest, seq, nonce, nil)
	if err := c.send(message); err != nil {
		return err
	}
	for {
		response, err := c.next(ctx)
		if err != nil {
			return err
		}
		if response.Protocol == MessageProtocolPingResponse && response.Seq == seq {
			return nil
		}
	}
}

// Close closes the underlying TCP connection.
func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) send(message Message) error {
	frame, err := c.codec.BuildMessage(message)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(frame)
	return err
}

func (c *Connection) next(ctx context.Context) (Message, error) {
	if len(c.pending) > 0 {
		message := c.pending[0]
		c.pending = c.pending[1:]
		return message, nil
	}

	for {
		if deadline, ok := ctx.Deadline(); ok {
			_ = c.conn.SetReadDeadline(deadline)
		} else {
			_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		}

		chunk := make([]byte, 1024)
		n, err := c.conn.Read(chunk)
		if n == 0 && err != nil {
			return Message{}, err
		}
		if n == 0 {
			return Message{}, ErrConnectionClosed
		}
		c.buffer = append(c.buffer, chunk[:n]...)

		messages, err := c.codec.DecodeMessages(&c.buffer)
		if err != nil {
			return Message{}, err
		}
		if len(messages) > 0 {
			first := messages[0]
			c.pending = append(c.pending, messages[1:]...)
			return first, nil
		}
	}
}

// shouldRetry reports whether a send_rpc failure is worth a single
// reconnect-and-retry: protocol decode errors and the usual transient
// connection failures, but not a device-reported RPC error.
func shouldRetry(err error) bool {
	switch {
	case errors.Is(err, ErrFrameTooShort), errors.Is(err, ErrPayloadLenMismatch),
		errors.Is(err, ErrPayloadCRCMissing), errors.Is(err, ErrCRCMismatch),
		errors.Is(err, ErrPayloadLenMissing), errors.Is(err, ErrUnknownProtocol),
		errors.Is(err, ErrUnknownVersion), errors.Is(err, ErrMissingAckNonce):
		return true
	case errors.Is(err, ErrConnectionClosed):
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
