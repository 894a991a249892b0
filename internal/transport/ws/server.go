package ws

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"galax.network/internal/protocol"
	"galax.network/internal/sim/world"
	"galax.network/internal/sim/world/feature/auth"
	"galax.network/internal/sim/world/kernel/model"
)

type Config struct {
	// Per-session TX admission rate; zero disables limiting.
	TxPerSecond float64
	TxBurst     int

	Catalogs protocol.CatalogDigests

	// OutQueue bounds messages buffered per session.
	OutQueue int
}

type Server struct {
	world *world.World
	cfg   Config
	log   zerolog.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, cfg Config, logger zerolog.Logger) *Server {
	if cfg.OutQueue <= 0 {
		cfg.OutQueue = 64
	}
	return &Server{
		world: w,
		cfg:   cfg,
		log:   logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type session struct {
	id        string
	principal model.Address
	out       chan []byte
	limiter   *rate.Limiter
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, subscribe := s.handshake(conn)
		if sess == nil {
			return
		}
		log := s.log.With().Str("session", sess.id).Str("principal", sess.principal.Hex()).Logger()
		log.Info().Bool("subscribe", subscribe).Msg("session opened")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		var wg sync.WaitGroup

		// Writer goroutine.
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		if subscribe {
			notices, unsub := s.world.Subscribe(16)
			defer unsub()
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case n, ok := <-notices:
						if !ok {
							return
						}
						s.send(ctx, sess, n.Msg(s.world.ID()))
					}
				}
			}()
		}

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleMessage(ctx, sess, msg)
		}
		cancel()
		wg.Wait()
		log.Info().Msg("session closed")
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return nil, false
	}
	if base.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return nil, false
	}
	if err := protocol.ValidateHello(msg); err != nil {
		closePolicy(conn, "invalid HELLO")
		return nil, false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closePolicy(conn, "invalid HELLO")
		return nil, false
	}
	principal, err := model.ParseAddress(hello.Principal)
	if err != nil {
		closePolicy(conn, "invalid principal")
		return nil, false
	}
	if s.world.View().IsEntityAddress(principal) {
		closePolicy(conn, "principal is a ledger entity")
		return nil, false
	}
	if err := s.prove(conn, principal); err != nil {
		s.log.Info().Err(err).Str("principal", principal.Hex()).Msg("session proof rejected")
		closePolicy(conn, "principal not proven")
		return nil, false
	}

	sess := &session{
		id:        uuid.NewString(),
		principal: principal,
		out:       make(chan []byte, s.cfg.OutQueue),
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	if s.cfg.TxPerSecond > 0 {
		burst := s.cfg.TxBurst
		if burst <= 0 {
			burst = 1
		}
		sess.limiter = rate.NewLimiter(rate.Limit(s.cfg.TxPerSecond), burst)
	}

	cfg := s.world.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		WorldID:         cfg.ID,
		Height:          s.world.Height(),
		DomainAddress:   cfg.DomainAddress.Hex(),
		ChainID:         cfg.ChainID.String(),
		PersonalSign:    cfg.PersonalSign,
		Catalogs:        s.cfg.Catalogs,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil, false
	}
	return sess, hello.Subscribe
}

// prove issues a random challenge bound to this ledger instance and requires a
// signature over it from the principal's key.
func (s *Server) prove(conn *websocket.Conn, principal model.Address) error {
	challenge, err := auth.NewChallenge()
	if err != nil {
		return err
	}
	cfg := s.world.Config()
	if err := writeJSON(conn, protocol.ChallengeMsg{
		Type:            protocol.TypeChallenge,
		ProtocolVersion: protocol.Version,
		Challenge:       "0x" + hex.EncodeToString(challenge[:]),
		WorldID:         cfg.ID,
		DomainAddress:   cfg.DomainAddress.Hex(),
		ChainID:         cfg.ChainID.String(),
		PersonalSign:    cfg.PersonalSign,
	}); err != nil {
		return err
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeProve {
		return errors.New("expected PROVE")
	}
	if err := protocol.ValidateProve(msg); err != nil {
		return err
	}
	var pm protocol.ProveMsg
	if err := json.Unmarshal(msg, &pm); err != nil {
		return err
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(pm.Signature, "0x"), "0X"))
	if err != nil {
		return err
	}
	v := auth.Verifier{Domain: cfg.DomainAddress, ChainID: cfg.ChainID, PersonalSign: cfg.PersonalSign}
	return v.VerifySession(principal, challenge, sig)
}

// handleMessage admits one TX. Rejections before the ledger are answered with
// ERROR; everything else is answered with the RECEIPT of its block.
func (s *Server) handleMessage(ctx context.Context, sess *session, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeTx {
		s.sendError(ctx, sess, protocol.ErrProtoBadRequest, "expected TX", "")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.sendError(ctx, sess, protocol.ErrProtoBadRequest, "bad protocol_version", "")
		return
	}
	if err := protocol.ValidateTx(msg); err != nil {
		s.sendError(ctx, sess, protocol.ErrProtoBadRequest, err.Error(), "")
		return
	}
	var m protocol.TxMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		s.sendError(ctx, sess, protocol.ErrProtoBadRequest, err.Error(), "")
		return
	}
	if !sess.limiter.Allow() {
		s.sendError(ctx, sess, protocol.ErrRateLimit, "too many transactions", m.TxID)
		return
	}
	if m.TxID == "" {
		m.TxID = uuid.NewString()
	}
	// The proven session principal is the sender; a client cannot act as another address.
	m.Sender = sess.principal.Hex()

	tx, err := world.TxFromMsg(m)
	if err != nil {
		s.sendError(ctx, sess, world.CodeOf(err), err.Error(), m.TxID)
		return
	}
	resp := make(chan world.Receipt, 1)
	if err := s.world.Enqueue(tx, resp); err != nil {
		code := protocol.ErrWorldBusy
		if !errors.Is(err, world.ErrInboxFull) {
			code = protocol.ErrInternal
		}
		s.sendError(ctx, sess, code, err.Error(), m.TxID)
		return
	}
	go func() {
		select {
		case r := <-resp:
			s.send(ctx, sess, r.Msg())
		case <-ctx.Done():
		}
	}()
}

func (s *Server) sendError(ctx context.Context, sess *session, code, message, txID string) {
	s.send(ctx, sess, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
		TxID:            txID,
	})
}

func (s *Server) send(ctx context.Context, sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("encode outbound message")
		return
	}
	select {
	case sess.out <- b:
	case <-ctx.Done():
	}
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
