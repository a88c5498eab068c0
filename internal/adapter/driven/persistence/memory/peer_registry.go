package memory

import (
	"slices"
	"sync"

	"github.com/Wyydra/ya-signal/internal/core/domain"
)

// PeerRegistry keeps connections in the order they were added so that
// lookups return the earliest match and broadcasts are stable.
type PeerRegistry struct {
	mu    sync.Mutex
	order []domain.ConnID
	peers map[domain.ConnID]*domain.Peer
}

func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{
		order: make([]domain.ConnID, 0),
		peers: make(map[domain.ConnID]*domain.Peer),
	}
}

func (r *PeerRegistry) Add(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[conn]; ok {
		return
	}
	r.peers[conn] = &domain.Peer{Conn: conn}
	r.order = append(r.order, conn)
}

func (r *PeerRegistry) Remove(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[conn]; !ok {
		return
	}
	delete(r.peers, conn)
	if i := slices.Index(r.order, conn); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

func (r *PeerRegistry) SetIdentity(conn domain.ConnID, id domain.Optional[domain.PeerID], name, userAgent domain.Optional[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[conn]
	if !ok {
		return
	}
	p.ID = id
	p.Name = name
	p.UserAgent = userAgent
}

func (r *PeerRegistry) SetSession(conn domain.ConnID, sessionID domain.Optional[domain.SessionID]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[conn]; ok {
		p.SessionID = sessionID
	}
}

func (r *PeerRegistry) Get(conn domain.ConnID) (domain.Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[conn]
	if !ok {
		return domain.Peer{}, false
	}
	return *p, true
}

// FindByPeerID is a linear scan; the first registered match wins.
func (r *PeerRegistry) FindByPeerID(id domain.PeerID) (domain.ConnID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := domain.Some(id)
	for _, conn := range r.order {
		if r.peers[conn].ID.Equal(want) {
			return conn, true
		}
	}
	return domain.ConnID{}, false
}

func (r *PeerRegistry) Peers() []domain.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Peer, 0, len(r.order))
	for _, conn := range r.order {
		out = append(out, *r.peers[conn])
	}
	return out
}

func (r *PeerRegistry) Snapshot() []domain.PeerInfo {
	peers := r.Peers()
	out := make([]domain.PeerInfo, 0, len(peers))
	for _, p := range peers {
		out = append(out, p.Info())
	}
	return out
}

func (r *PeerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
