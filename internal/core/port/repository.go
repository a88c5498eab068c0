package port

import "github.com/Wyydra/ya-signal/internal/core/domain"

// PeerRegistry tracks every open connection and the identity announced on it.
// Iteration order is connection order.
type PeerRegistry interface {
	Add(conn domain.ConnID)
	Remove(conn domain.ConnID)
	SetIdentity(conn domain.ConnID, id domain.Optional[domain.PeerID], name, userAgent domain.Optional[string])
	SetSession(conn domain.ConnID, sessionID domain.Optional[domain.SessionID])
	Get(conn domain.ConnID) (domain.Peer, bool)
	FindByPeerID(id domain.PeerID) (domain.ConnID, bool)
	Peers() []domain.Peer
	Snapshot() []domain.PeerInfo
}

// SessionRepository is the append-only table of calls started by an offer.
type SessionRepository interface {
	Create(session domain.Session)
	FindByID(id domain.Optional[domain.SessionID]) (domain.Session, bool)
	Count() int
}
