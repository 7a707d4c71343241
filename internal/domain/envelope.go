package domain

import (
	"bytes"
	"encoding/json"
)

type MessageType string

const (
	MessageSuccess MessageType = "success"
	MessageError   MessageType = "error"
	MessageInfo    MessageType = "info"
	MessageWarning MessageType = "warning"
)

type Message struct {
	Type MessageType `json:"message_type"`
	Body string      `json:"body"`
}

func (m *Message) IsError() bool {
	return m != nil && m.Type == MessageError
}

func ErrorMessage(body string) *Message {
	return &Message{Type: MessageError, Body: body}
}

func InfoMessage(body string) *Message {
	return &Message{Type: MessageInfo, Body: body}
}

// Envelope is the backend response: next state, per-state data and an optional message.
type Envelope struct {
	NextState string                     `json:"next_state,omitempty"`
	Data      map[string]json.RawMessage `json:"data,omitempty"`
	Message   *Message                   `json:"message,omitempty"`
}

// Unwrap flattens payloads shaped as {"data": {"<next_state>": {...}}}.
func (e Envelope) Unwrap() Envelope {
	if e.NextState == "" || len(e.Data) != 1 {
		return e
	}
	raw, ok := e.Data[e.NextState]
	if !ok {
		return e
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return e
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inner); err != nil {
		return e
	}
	e.Data = inner
	return e
}

func (e Envelope) Rejected() bool {
	return e.Message.IsError()
}
