package roborock

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// MessageProtocol identifies the kind of payload carried by a frame.
type MessageProtocol uint16

const (
	MessageProtocolHelloRequest   MessageProtocol = 0
	MessageProtocolHelloResponse  MessageProtocol = 1
	MessageProtocolPingRequest    MessageProtocol = 2
	MessageProtocolPingResponse   MessageProtocol = 3
	MessageProtocolGeneralRequest MessageProtocol = 4
	MessageProtocolGeneralResponse MessageProtocol = 5
	MessageProtocolRpcRequest     MessageProtocol = 101
	MessageProtocolRpcResponse    MessageProtocol = 102
)

func (p MessageProtocol) String() string {
	switch p {
	case MessageProtocolHelloRequest:
		return "hello_request"
	case MessageProtocolHelloResponse:
		return "hello_response"
	case MessageProtocolPingRequest:
		return "ping_request"
	case MessageProtocolPingResponse:
		return "ping_response"
	case MessageProtocolGeneralRequest:
		return "general_request"
	case MessageProtocolGeneralResponse:
		return "general_response"
	case MessageProtocolRpcRequest:
		return "rpc_request"
	case MessageProtocolRpcResponse:
		return "rpc_response"
	default:
		return "unknown"
	}
}

func parseMessageProtocol(v uint16) (MessageProtocol, error) {
	switch MessageProtocol(v) {
	case MessageProtocolHelloRequest, MessageProtocolHelloResponse,
		MessageProtocolPingRequest, MessageProtocolPingResponse,
		MessageProtocolGeneralRequest, MessageProtocolGeneralResponse,
		MessageProtocolRpcRequest, MessageProtocolRpcResponse:
		return MessageProtocol(v), nil
	default:
		return 0, ErrUnknownProtocol
	}
}

// protocolVersion is the only local protocol version this codec speaks.
const protocolVersion = "L01"

// Message is a single decoded Roborock local-protocol frame.
type Message struct {
	Seq       uint32
	Nonce     uint32
	Timestamp uint32
	Protocol  MessageProtocol
	Payload   []byte // nil when the frame carried no payload
}

// NewMessage builds a Message stamped with the current unix time.
func NewMessage(protocol MessageProtocol, seq, nonce uint32, payload []byte) Message {
	return Message{
		Seq:       seq,
		Nonce:     nonce,
		Timestamp: unixTimestamp(),
		Protocol:  protocol,
		Payload:   payload,
	}
}

// Codec encodes and decodes L01 frames for one device connection.
// It is not safe for concurrent use.
type Codec struct {
	localKey     string
	connectNonce uint32
	ackNonce     *uint32
}

// NewCodec returns a Codec for a device identified by localKey, seeded with
// the connect nonce chosen for this connection attempt. ackNonce is nil
// until the hello handshake completes.
func NewCodec(localKey string, connectNonce uint32) *Codec {
	return &Codec{localKey: localKey, connectNonce: connectNonce}
}

// WithAckNonce returns a copy of the codec bound to the ack nonce returned
// by the device's hello response. Frames beyond the hello exchange cannot
// be decrypted without it.
func (c *Codec) WithAckNonce(ackNonce uint32) *Codec {
	return &Codec{localKey: c.localKey, connectNonce: c.connectNonce, ackNonce: &ackNonce}
}

// BuildMessage frames and, if it carries a payload, encrypts message for
// transmission.
func (c *Codec) BuildMessage(message Message) ([]byte, error) {
	var encrypted []byte
	if message.Payload != nil {
		ct, err := encryptGCML01(c.localKey, message.Seq, c.connectNonce, c.ackNonce, message.Nonce, message.Timestamp, message.Payload)
		if err != nil {
			return nil, err
		}
		encrypted = ct
	}

	body := make([]byte, 0, 17+len(encrypted)+2+4)
	body = append(body, protocolVersion...)
	body = append(body, be32(message.Seq)...)
	body = append(body, be32(message.Nonce)...)
	body = append(body, be32(message.Timestamp)...)
	body = append(body, be16(uint16(message.Protocol))...)
	if message.Payload != nil {
		body = append(body, be16(uint16(len(encrypted)))...)
		body = append(body, encrypted...)
	}
	crc := crc32.ChecksumIEEE(body)
	body = append(body, be32(crc)...)

	framed := make([]byte, 0, 4+len(body))
	framed = append(framed, be32(uint32(len(body)))...)
	framed = append(framed, body...)
	return framed, nil
}

// DecodeMessages extracts every complete frame currently sitting in buffer,
// consuming the bytes it uses (including any garbage it skips to resync) and
// leaving any trailing partial frame behind for the next call.
func (c *Codec) DecodeMessages(buffer *[]byte) ([]Message, error) {
	var messages []Message

	for {
		buf := *buffer
		if len(buf) < 4 {
			break
		}

		if len(buf) >= 7 && !bytes.Equal(buf[4:7], []byte(protocolVersion)) {
			prefixIndex, dataIndex, found := findL01Prefix(buf)
			if found {
				if prefixIndex > 0 {
					*buffer = buf[prefixIndex:]
				} else if dataIndex > 0 {
					*buffer = buf[dataIndex:]
				}
				continue
			}
			if len(buf) > 2 {
				*buffer = buf[len(buf)-2:]
			}
			break
		}

		frameLen := binary.BigEndian.Uint32(buf[0:4])
		if frameLen == 0 {
			*buffer = buf[4:]
			continue
		}

		if uint64(len(buf)) < 4+uint64(frameLen) {
			break
		}

		frame := buf[4 : 4+frameLen]
		*buffer = buf[4+frameLen:]

		message, err := c.decodeFrame(frame)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (c *Codec) decodeFrame(frame []byte) (Message, error) {
	if len(frame) < 17 {
		return Message{}, ErrFrameTooShort
	}
	if string(frame[0:3]) != protocolVersion {
		return Message{}, ErrUnknownVersion
	}

	seq := binary.BigEndian.Uint32(frame[3:7])
	nonce := binary.BigEndian.Uint32(frame[7:11])
	timestamp := binary.BigEndian.Uint32(frame[11:15])
	protoValue := binary.BigEndian.Uint16(frame[15:17])

	var payload []byte
	switch {
	case len(frame) == 17:
		// no payload, no crc
	case len(frame) == 21:
		// no payload, crc present
	case len(frame) >= 19:
		payloadLen := int(binary.BigEndian.Uint16(frame[17:19]))
		messageLen := 17 + 2 + payloadLen
		if len(frame) < messageLen {
			return Message{}, ErrPayloadLenMismatch
		}

		crcPresent := len(frame) >= messageLen+4
		if payloadLen > 0 {
			if !crcPresent {
				return Message{}, ErrPayloadCRCMissing
			}
			expectedBE := binary.BigEndian.Uint32(frame[messageLen : messageLen+4])
			expectedLE := binary.LittleEndian.Uint32(frame[messageLen : messageLen+4])
			computed := crc32.ChecksumIEEE(frame[:messageLen])
			if expectedBE != computed && expectedLE != computed {
				return Message{}, ErrCRCMismatch
			}

			payloadBytes := frame[19 : 19+payloadLen]
			plaintext, err := decryptGCML01(c.localKey, seq, c.connectNonce, c.ackNonce, nonce, timestamp, payloadBytes)
			if err != nil {
				return Message{}, err
			}
			payload = plaintext
		}
	default:
		return Message{}, ErrPayloadLenMissing
	}

	protocol, err := parseMessageProtocol(protoValue)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Seq:       seq,
		Nonce:     nonce,
		Timestamp: timestamp,
		Protocol:  protocol,
		Payload:   payload,
	}, nil
}

// findL01Prefix searches buffer for the "L01" magic past the frame header
// (at index 4 or later) and reports how many leading bytes DecodeMessages
// should drop to resynchronize: index-4, keeping the would-be length prefix
// immediately preceding the magic. A magic closer to the front than index 4
// is not matched.
func findL01Prefix(buffer []byte) (prefixIndex, dataIndex int, found bool) {
	for i := 4; i+3 <= len(buffer); i++ {
		if bytes.Equal(buffer[i:i+3], []byte(protocolVersion)) {
			return i - 4, i, true
		}
	}
	return 0, 0, false
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}
