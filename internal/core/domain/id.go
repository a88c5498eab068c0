package domain

import (
	"github.com/google/uuid"
)

// ConnID is the opaque handle of one open transport connection.
type ConnID uuid.UUID

func NewConnID() ConnID {
	return ConnID(uuid.New())
}

func (id ConnID) String() string {
	return uuid.UUID(id).String()
}

// PeerID is the client-chosen identity announced with a "new" message.
// Nothing enforces uniqueness.
type PeerID = string

// SessionID is the caller-chosen call identifier carried by offer/answer/candidate/bye.
type SessionID = string
