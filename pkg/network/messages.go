package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

type MessageType string

const (
	MessageTypeClientSubscribe MessageType = "clientSubscribe"
	MessageTypeServerSnapshot  MessageType = "serverSnapshot"
	MessageTypeServerEvent     MessageType = "serverEvent"
	MessageTypeServerError     MessageType = "serverError"
)

// Message is one frame on a gateway connection.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientSubscribe starts a game's event stream for the connection.
type ClientSubscribe struct {
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
}

// ServerSnapshot carries the full game state the stream resumes from.
type ServerSnapshot struct {
	Game json.RawMessage `json:"game"`
	Seq  uint64          `json:"seq"`
}

// ServerEvent wraps one sequenced game event.
type ServerEvent struct {
	Event json.RawMessage `json:"event"`
}

type ServerError struct {
	Reason string `json:"reason"`
}

// SerializeMessage encodes a frame for the wire: JSON inside zstd.
func SerializeMessage(msg *Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress message: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

// DeserializeMessage decodes a frame from its wire form.
func DeserializeMessage(data []byte) (*Message, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()

	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed message: %v", err)
	}

	msg := &Message{}
	if err := json.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %v", err)
	}

	return msg, nil
}

// NewMessage marshals a payload into a frame.
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", msgType, err)
	}
	return &Message{Type: msgType, Payload: b}, nil
}
