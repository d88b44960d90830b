package roborock

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestConnection_HelloHandshake(t *testing.T) {
	localKey := "0123456789abcdef"
	var connectNonce uint32 = 11111
	var ackNonce uint32 = 22222
	var helloSeq uint32 = 100
	var helloNonce uint32 = 200

	client, server := net.Pipe()
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- serveHello(server, localKey, connectNonce, helloSeq, ackNonce)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := connect(ctx, client, localKey, connectNonce, helloSeq, helloNonce)
	if err != nil {
		t.Fatalf("connect() error = %v", err)
	}
	defer conn.Close()

	if conn.codec.ackNonce == nil || *conn.codec.ackNonce != ackNonce {
		t.Errorf("ack nonce = %v, want %v", conn.codec.ackNonce, ackNonce)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("serveHello() error = %v", err)
	}
}

func TestConnection_SendRpcRoundtrip(t *testing.T) {
	localKey := "0123456789abcdef"
	var connectNonce uint32 = 12345
	var ackNonce uint32 = 33333
	var helloSeq uint32 = 1
	var helloNonce uint32 = 2
	var requestID uint32 = 999

	client, server := net.Pipe()
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- serveHelloThenRpc(server, localKey, connectNonce, helloSeq, ackNonce, requestID)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := connect(ctx, client, localKey, connectNonce, helloSeq, helloNonce)
	if err != nil {
		t.Fatalf("connect() error = %v", err)
	}
	defer conn.Close()

	result, err := conn.SendRpc(ctx, requestID, 10, 20, "get_status", []any{})
	if err != nil {
		t.Fatalf("SendRpc() error = %v", err)
	}
	if string(result) != `{"ok":true}` {
		t.Errorf("SendRpc() result = %s, want {\"ok\":true}", result)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("serveHelloThenRpc() error = %v", err)
	}
}

func serveHello(server net.Conn, localKey string, connectNonce, helloSeq, ackNonce uint32) error {
	codec := NewCodec(localKey, connectNonce)
	buffer := make([]byte, 0, 256)

	request, err := readOneFrame(server, codec, &buffer)
	if err != nil {
		return err
	}
	_ = request

	response := NewMessage(MessageProtocolHelloResponse, helloSeq, ackNonce, nil)
	frame, err := codec.BuildMessage(response)
	if err != nil {
		return err
	}
	_, err = server.Write(frame)
	return err
}

func serveHelloThenRpc(server net.Conn, localKey string, connectNonce, helloSeq, ackNonce, requestID uint32) error {
	codec := NewCodec(localKey, connectNonce)
	buffer := make([]byte, 0, 256)

	if _, err := readOneFrame(server, codec, &buffer); err != nil {
		return err
	}
	helloResponse := NewMessage(MessageProtocolHelloResponse, helloSeq, ackNonce, nil)
	frame, err := codec.BuildMessage(helloResponse)
	if err != nil {
		return err
	}
	if _, err := server.Write(frame); err != nil {
		return err
	}
	codec = codec.WithAckNonce(ackNonce)

	request, err := readOneFrame(server, codec, &buffer)
	if err != nil {
		return err
	}

	responsePayload := []byte(`{"dps":{"102":"{\"id\":` + itoa(requestID) + `,\"result\":{\"ok\":true}}"}}`)
	response := NewMessage(MessageProtocolGeneralResponse, request.Seq, ackNonce, responsePayload)
	frame, err = codec.BuildMessage(response)
	if err != nil {
		return err
	}
	_, err = server.Write(frame)
	return err
}

func readOneFrame(server net.Conn, codec *Codec, buffer *[]byte) (Message, error) {
	for {
		chunk := make([]byte, 1024)
		n, err := server.Read(chunk)
		if err != nil {
			return Message{}, err
		}
		*buffer = append(*buffer, chunk[:n]...)
		messages, err := codec.DecodeMessages(buffer)
		if err != nil {
			return Message{}, err
		}
		if len(messages) > 0 {
			return messages[0], nil
		}
	}
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}
