package service

import (
	"github.com/Wyydra/ya-signal/internal/core/domain"
	"github.com/Wyydra/ya-signal/internal/core/port"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SignalingService routes signaling frames between connected peers. It
// implements port.SignalHandler; the transport must call it from a single
// goroutine.
type SignalingService struct {
	peers    port.PeerRegistry
	sessions port.SessionRepository
	gateway  port.Gateway
	log      zerolog.Logger
}

func NewSignalingService(peers port.PeerRegistry, sessions port.SessionRepository, gateway port.Gateway) *SignalingService {
	return &SignalingService{
		peers:    peers,
		sessions: sessions,
		gateway:  gateway,
		log:      log.With().Str("module", "service.signaling").Logger(),
	}
}

func (s *SignalingService) Connected(conn domain.ConnID) {
	s.peers.Add(conn)
	s.log.Debug().Str("conn_id", conn.String()).Msg("Peer connected")
}

// Disconnected drops the registry entry only. Sessions the peer took part in
// stay in the table and other peers keep their session id.
func (s *SignalingService) Disconnected(conn domain.ConnID) {
	s.peers.Remove(conn)
	s.log.Debug().Str("conn_id", conn.String()).Msg("Peer disconnected")
}

func (s *SignalingService) HandleFrame(conn domain.ConnID, data []byte) {
	l := s.log.With().Str("conn_id", conn.String()).Logger()

	msg, err := domain.ParseInbound(data)
	if err != nil {
		l.Error().Err(err).Msg("Dropping frame")
		return
	}
	l.Debug().Str("type", string(msg.Type)).RawJSON("body", data).Msg("Frame received")

	switch msg.Type {
	case domain.TypeNew:
		s.handleNew(conn, msg)
	case domain.TypeBye:
		s.handleBye(conn, msg)
	case domain.TypeOffer:
		s.handleOffer(conn, msg)
	case domain.TypeAnswer:
		s.handleAnswer(conn, msg)
	case domain.TypeCandidate:
		s.handleCandidate(conn, msg)
	case domain.TypeKeepalive:
		s.send(conn, domain.NewEnvelope(domain.TypeKeepalive, domain.KeepalivePayload{}))
	default:
		l.Warn().Str("type", string(msg.Type)).Msg("Unknown message type")
	}
}

func (s *SignalingService) handleNew(conn domain.ConnID, msg domain.Inbound) {
	s.peers.SetIdentity(conn, msg.ID, msg.Name, msg.UserAgent)
	s.log.Info().
		Str("conn_id", conn.String()).
		Str("peer_id", msg.ID.Or("")).
		Str("name", msg.Name.Or("")).
		Msg("Peer registered")
	s.broadcastPeers()
}

func (s *SignalingService) broadcastPeers() {
	env := domain.NewEnvelope(domain.TypePeers, s.peers.Snapshot())
	frame, err := env.Encode()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode peers")
		return
	}
	for _, p := range s.peers.Peers() {
		s.deliver(p.Conn, frame)
	}
}

func (s *SignalingService) handleBye(conn domain.ConnID, msg domain.Inbound) {
	session, ok := s.sessions.FindByID(msg.SessionID)
	if !ok {
		s.send(conn, domain.NewEnvelope(domain.TypeError, domain.InvalidSession(msg.SessionID)))
		return
	}

	for _, p := range s.peers.Peers() {
		if !p.SessionID.Equal(msg.SessionID) {
			continue
		}
		s.send(p.Conn, domain.NewEnvelope(domain.TypeBye, domain.ByePayload{
			SessionID: msg.SessionID,
			From:      msg.From,
			To:        session.Other(p.ID),
		}))
	}
}

// handleOffer is the only place a session is started: both ends get the
// session id and a record is appended. Unknown targets are dropped silently.
func (s *SignalingService) handleOffer(conn domain.ConnID, msg domain.Inbound) {
	to, ok := msg.To.Get()
	if !ok {
		return
	}
	dest, ok := s.peers.FindByPeerID(to)
	if !ok {
		return
	}
	sender, _ := s.peers.Get(conn)

	s.send(dest, domain.NewEnvelope(domain.TypeOffer, domain.OfferPayload{
		To:          to,
		From:        sender.ID,
		SessionID:   msg.SessionID,
		Description: msg.Description,
	}))

	s.peers.SetSession(dest, msg.SessionID)
	s.peers.SetSession(conn, msg.SessionID)
	s.sessions.Create(domain.NewSession(msg.SessionID, sender.ID, to))
}

func (s *SignalingService) handleAnswer(conn domain.ConnID, msg domain.Inbound) {
	sender, _ := s.peers.Get(conn)
	s.sendInSession(msg, domain.NewEnvelope(domain.TypeAnswer, domain.AnswerPayload{
		To:          msg.To,
		From:        sender.ID,
		Description: msg.Description,
	}))
}

func (s *SignalingService) handleCandidate(conn domain.ConnID, msg domain.Inbound) {
	sender, _ := s.peers.Get(conn)
	s.sendInSession(msg, domain.NewEnvelope(domain.TypeCandidate, domain.CandidatePayload{
		From:      sender.ID,
		To:        msg.To,
		Candidate: msg.Candidate,
	}))
}

// sendInSession delivers env to every connection registered as msg.To whose
// current session is msg.SessionID. The session table is not consulted.
func (s *SignalingService) sendInSession(msg domain.Inbound, env domain.Envelope) {
	if !msg.To.Present() {
		return
	}
	var frame []byte
	for _, p := range s.peers.Peers() {
		if !p.ID.Equal(msg.To) || !p.SessionID.Equal(msg.SessionID) {
			continue
		}
		if frame == nil {
			var err error
			if frame, err = env.Encode(); err != nil {
				s.log.Error().Err(err).Str("type", string(env.Type)).Msg("Failed to encode frame")
				return
			}
		}
		s.deliver(p.Conn, frame)
	}
}

func (s *SignalingService) send(conn domain.ConnID, env domain.Envelope) {
	frame, err := env.Encode()
	if err != nil {
		s.log.Error().Err(err).Str("type", string(env.Type)).Msg("Failed to encode frame")
		return
	}
	s.deliver(conn, frame)
}

// deliver is fire and forget: failures are logged and never retried.
func (s *SignalingService) deliver(conn domain.ConnID, frame []byte) {
	if err := s.gateway.Send(conn, frame); err != nil {
		s.log.Error().Err(err).Str("conn_id", conn.String()).Msg("Send failure")
	}
}
