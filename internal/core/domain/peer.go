package domain

// Peer is the registry view of one open connection and the identity
// attributes the client announced for it.
type Peer struct {
	Conn      ConnID
	ID        Optional[PeerID]
	Name      Optional[string]
	UserAgent Optional[string]
	SessionID Optional[SessionID]
}

// Registered reports whether the connection has announced a peer id.
func (p Peer) Registered() bool {
	return p.ID.Present()
}

// PeerInfo is one entry of the "peers" broadcast. Only attributes that are
// set on the connection appear in the JSON.
type PeerInfo struct {
	ID        Optional[PeerID]    `json:"id,omitzero"`
	Name      Optional[string]    `json:"name,omitzero"`
	SessionID Optional[SessionID] `json:"session_id,omitzero"`
}

func (p Peer) Info() PeerInfo {
	return PeerInfo{
		ID:        p.ID,
		Name:      p.Name,
		SessionID: p.SessionID,
	}
}
