package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type MessageType string

const (
	TypeNew       MessageType = "new"
	TypeBye       MessageType = "bye"
	TypeOffer     MessageType = "offer"
	TypeAnswer    MessageType = "answer"
	TypeCandidate MessageType = "candidate"
	TypeKeepalive MessageType = "keepalive"

	// outbound only
	TypePeers MessageType = "peers"
	TypeError MessageType = "error"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Inbound is a decoded client frame. Clients send the payload fields flat,
// next to "type".
type Inbound struct {
	Type        MessageType
	ID          Optional[PeerID]
	Name        Optional[string]
	UserAgent   Optional[string]
	From        Optional[PeerID]
	To          Optional[PeerID]
	SessionID   Optional[SessionID]
	Description json.RawMessage
	Candidate   json.RawMessage
}

// ParseInbound decodes one frame. Any error wraps ErrMalformedFrame.
func ParseInbound(data []byte) (Inbound, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Inbound{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedFrame)
	}

	var raw struct {
		Type        json.RawMessage `json:"type"`
		ID          json.RawMessage `json:"id"`
		Name        json.RawMessage `json:"name"`
		UserAgent   json.RawMessage `json:"user_agent"`
		From        json.RawMessage `json:"from"`
		To          json.RawMessage `json:"to"`
		SessionID   json.RawMessage `json:"session_id"`
		Description json.RawMessage `json:"description"`
		Candidate   json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	msg := Inbound{
		ID:          coerceString(raw.ID),
		Name:        coerceString(raw.Name),
		UserAgent:   coerceString(raw.UserAgent),
		From:        coerceString(raw.From),
		To:          coerceString(raw.To),
		SessionID:   coerceString(raw.SessionID),
		Description: present(raw.Description),
		Candidate:   present(raw.Candidate),
	}
	// type is matched strictly: a non-string type matches no handler
	if len(raw.Type) > 0 && raw.Type[0] == '"' {
		var t string
		if err := json.Unmarshal(raw.Type, &t); err == nil {
			msg.Type = MessageType(t)
		}
	}
	return msg, nil
}

func present(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return raw
}

// coerceString turns an id-like JSON value into its string form so that
// 42 and "42" address the same peer.
func coerceString(raw json.RawMessage) Optional[string] {
	raw = present(raw)
	if raw == nil {
		return None[string]()
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return None[string]()
		}
		return Some(s)
	case 't', 'f':
		return Some(string(raw))
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return Some(string(raw))
		}
		return Some(buf.String())
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return Some(string(raw))
		}
		return Some(strconv.FormatFloat(f, 'f', -1, 64))
	}
}

// Envelope is the uniform outbound frame: {"type": ..., "data": {...}}.
type Envelope struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

func NewEnvelope(t MessageType, data any) Envelope {
	return Envelope{Type: t, Data: data}
}

// Encode renders the envelope without HTML escaping so relayed SDP stays as sent.
func (e Envelope) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type OfferPayload struct {
	To          PeerID              `json:"to"`
	From        Optional[PeerID]    `json:"from,omitzero"`
	SessionID   Optional[SessionID] `json:"session_id,omitzero"`
	Description json.RawMessage     `json:"description,omitempty"`
}

type AnswerPayload struct {
	To          Optional[PeerID] `json:"to,omitzero"`
	From        Optional[PeerID] `json:"from,omitzero"`
	Description json.RawMessage  `json:"description,omitempty"`
}

type CandidatePayload struct {
	From      Optional[PeerID] `json:"from,omitzero"`
	To        Optional[PeerID] `json:"to,omitzero"`
	Candidate json.RawMessage  `json:"candidate,omitempty"`
}

type ByePayload struct {
	SessionID Optional[SessionID] `json:"session_id,omitzero"`
	From      Optional[PeerID]    `json:"from,omitzero"`
	To        Optional[PeerID]    `json:"to,omitzero"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// InvalidSession builds the error returned for a bye naming an unknown session.
func InvalidSession(id Optional[SessionID]) ErrorPayload {
	return ErrorPayload{Error: "Invalid session" + id.Or("")}
}

type KeepalivePayload struct{}
