package domain

// Session pairs the peer that sent an offer with the peer it was routed to.
// ID and From are absent when the offer carried no session_id or came from a
// connection that never registered.
type Session struct {
	ID   Optional[SessionID]
	From Optional[PeerID]
	To   PeerID
}

func NewSession(id Optional[SessionID], from Optional[PeerID], to PeerID) Session {
	return Session{
		ID:   id,
		From: from,
		To:   to,
	}
}

// Other returns the party on the far side of the call from self.
func (s Session) Other(self Optional[PeerID]) Optional[PeerID] {
	if self.Equal(s.From) {
		return Some(s.To)
	}
	return s.From
}
