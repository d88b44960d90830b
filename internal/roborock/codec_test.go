package roborock

import "testing"

func TestCodec_L01Roundtrip(t *testing.T) {
	codec := NewCodec("0123456789abcdef", 12345).WithAckNonce(22222)
	message := Message{
		Seq:       42,
		Nonce:     4242,
		Timestamp: 1_700_000_000,
		Protocol:  MessageProtocolGeneralRequest,
		Payload:   []byte(`{"hello":1}`),
	}

	frame, err := codec.BuildMessage(message)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	buffer := append([]byte(nil), frame...)
	decoded, err := codec.DecodeMessages(&buffer)
	if err != nil {
		t.Fatalf("DecodeMessages() error = %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("DecodeMessages() returned %d messages, want 1", len(decoded))
	}

	got := decoded[0]
	if got.Seq != message.Seq || got.Nonce != message.Nonce || got.Timestamp != message.Timestamp || got.Protocol != message.Protocol {
		t.Errorf("decoded envelope = %+v, want %+v", got, message)
	}
	if string(got.Payload) != string(message.Payload) {
		t.Errorf("decoded payload = %q, want %q", got.Payload, message.Payload)
	}
}

func TestCodec_NoPayloadRoundtrip(t *testing.T) {
	codec := NewCodec("0123456789abcdef", 54321)
	message := Message{
		Seq:       1,
		Nonce:     54321,
		Timestamp: 1_700_000_100,
		Protocol:  MessageProtocolHelloRequest,
		Payload:   nil,
	}

	frame, err := codec.BuildMessage(message)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	buffer := append([]byte(nil), frame...)
	decoded, err := codec.DecodeMessages(&buffer)
	if err != nil {
		t.Fatalf("DecodeMessages() error = %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("DecodeMessages() returned %d messages, want 1", len(decoded))
	}
	if decoded[0].Payload != nil {
		t.Errorf("decoded payload = %v, want nil", decoded[0].Payload)
	}
}

func TestCodec_EmptyPayloadRoundtrip(t *testing.T) {
	ackNonce := uint32(11111)
	codec := NewCodec("0123456789abcdef", 54321).WithAckNonce(ackNonce)
	message := Message{
		Seq:       2,
		Nonce:     12345,
		Timestamp: 1_700_000_200,
		Protocol:  MessageProtocolPingRequest,
		Payload:   []byte{},
	}

	frame, err := codec.BuildMessage(message)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	buffer := append([]byte(nil), frame...)
	decoded, err := codec.DecodeMessages(&buffer)
	if err != nil {
		t.Fatalf("DecodeMessages() error = %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("DecodeMessages() returned %d messages, want 1", len(decoded))
	}
	if len(decoded[0].Payload) != 0 {
		t.Errorf("decoded payload = %v, want empty", decoded[0].Payload)
	}
}

func TestCodec_ResyncOnGarbagePrefix(t *testing.T) {
	codec := NewCodec("0123456789abcdef", 54321)
	message := Message{
		Seq:       3,
		Nonce:     22222,
		Timestamp: 1_700_000_300,
		Protocol:  MessageProtocolHelloRequest,
		Payload:   nil,
	}

	frame, err := codec.BuildMessage(message)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	buffer := append([]byte("junk"), frame...)
	decoded, err := codec.DecodeMessages(&buffer)
	if err != nil {
		t.Fatalf("DecodeMessages() error = %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("DecodeMessages() returned %d messages, want 1", len(decoded))
	}
	if decoded[0].Protocol != message.Protocol {
		t.Errorf("decoded protocol = %v, want %v", decoded[0].Protocol, message.Protocol)
	}
}

func TestCodec_DecodeMessages_WaitsForMoreData(t *testing.T) {
	codec := NewCodec("0123456789abcdef", 1)
	message := Message{Seq: 1, Nonce: 1, Timestamp: 1, Protocol: MessageProtocolPingRequest}
	frame, err := codec.BuildMessage(message)
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	buffer := append([]byte(nil), frame[:len(frame)-3]...)
	decoded, err := codec.DecodeMessages(&buffer)
	if err != nil {
		t.Fatalf("DecodeMessages() error = %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("DecodeMessages() returned %d messages for a partial frame, want 0", len(decoded))
	}
	if len(buffer) != len(frame)-3 {
		t.Errorf("buffer was consumed on a partial frame: len=%d, want %d", len(buffer), len(frame)-3)
	}
}
