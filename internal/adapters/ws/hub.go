// Package ws serves the interactive play transport: one websocket per
// player, JSON command frames in, msgpack snapshot frames and JSON event
// frames out.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/coder/websocket"

	service "github.com/tolgaeren/swish/internal/app"
	"github.com/tolgaeren/swish/internal/domain/court"
	"github.com/tolgaeren/swish/pkg/logger"
	"github.com/tolgaeren/swish/pkg/metrics"
)

const (
	defaultSendBuffer = 64
	defaultReadLimit  = 1024

	minPlayerIDLen = 2
	maxPlayerIDLen = 32
)

// Dependencies required by the play transport. The session returned by
// StartSession is driven by its own frame loop; the hub only feeds it
// commands and closes it when the client leaves.
type Dependencies interface {
	StartSession(ctx context.Context, playerID string, opts ...service.SessionOption) (*service.Session, error)
	CloseSession(ctx context.Context, id string) error
}

// Hub accepts play connections and binds each one to a live session.
type Hub struct {
	deps           Dependencies
	sendBuffer     int
	readLimit      int64
	originPatterns []string

	nextID atomic.Uint64
	active atomic.Int64

	mu    sync.Mutex
	conns map[*Conn]struct{}

	log logger.Logger
}

// NewHub creates a play hub over the given session dependencies, then
// applies options.
func NewHub(deps Dependencies, opts ...Option) *Hub {
	h := &Hub{
		deps:       deps,
		sendBuffer: defaultSendBuffer,
		readLimit:  defaultReadLimit,
		conns:      make(map[*Conn]struct{}),
		log:        logger.Get().Named("ws"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and runs the connection until the
// client leaves. The handler goroutine owns the read side; writes run on
// a separate goroutine behind the connection's send queue. Blocking here
// keeps the underlying TCP connection open for the websocket.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := sanitizePlayerID(r.URL.Query().Get("player"))
	if !ok {
		http.Error(w, "missing or invalid player query parameter", http.StatusBadRequest)
		return
	}

	acceptOpts := &websocket.AcceptOptions{}
	if len(h.originPatterns) > 0 {
		acceptOpts.OriginPatterns = h.originPatterns
	}
	sock, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		h.log.Warn(ctx, "websocket accept failed", logger.Err(err))
		return
	}
	sock.SetReadLimit(h.readLimit)

	conn := newConn(sock, fmt.Sprintf("conn-%d", h.nextID.Add(1)), h.sendBuffer)
	h.track(conn)
	defer h.untrack(conn)

	metrics.UpdateWSConnections(int(h.active.Add(1)))
	defer func() { metrics.UpdateWSConnections(int(h.active.Add(-1))) }()

	sess, err := h.deps.StartSession(ctx, playerID,
		service.WithSnapshotSink(conn),
		service.WithEventSink(conn),
	)
	if err != nil {
		h.log.Warn(ctx, "session start failed",
			logger.String("player_id", playerID),
			logger.Err(err),
		)
		_ = sock.Close(websocket.StatusInternalError, "session unavailable")
		return
	}
	// CloseSession only uses the context for logging, so the canceled
	// request context is fine here.
	defer func() {
		if err := h.deps.CloseSession(ctx, sess.ID()); err != nil {
			h.log.Warn(ctx, "session close failed",
				logger.String("session_id", sess.ID()),
				logger.Err(err),
			)
		}
	}()

	go conn.WriteLoop(ctx)
	h.log.Info(ctx, "player connected",
		logger.String("conn_id", conn.id),
		logger.String("player_id", playerID),
		logger.String("session_id", sess.ID()),
	)

	h.readLoop(ctx, conn, sess)
	conn.Close()
	h.log.Info(ctx, "player disconnected",
		logger.String("conn_id", conn.id),
		logger.String("player_id", playerID),
	)
}

func (h *Hub) readLoop(ctx context.Context, conn *Conn, sess *service.Session) {
	for {
		select {
		case <-conn.Done():
			return
		default:
		}
		_, data, err := conn.sock.Read(ctx)
		if err != nil {
			return
		}
		metrics.RecordWSCommand()
		cmd, err := decodeCommand(data)
		if err != nil {
			h.log.Debug(ctx, "bad command frame", logger.Err(err))
			continue
		}
		h.dispatch(conn, sess, cmd)
	}
}

func (h *Hub) dispatch(conn *Conn, sess *service.Session, cmd Command) {
	switch cmd.Kind {
	case KindMove:
		sess.Submit(service.Command{Kind: service.CmdMove, Dir: court.Vec3{X: cmd.DX, Z: cmd.DZ}})
	case KindCharge:
		sess.Submit(service.Command{Kind: service.CmdCharge})
	case KindRelease:
		sess.Submit(service.Command{Kind: service.CmdRelease})
	case KindReset:
		sess.Submit(service.Command{Kind: service.CmdReset})
	case KindPing:
		conn.sendPong()
	default:
		// Unknown kinds are ignored.
	}
}

// Shutdown closes every live connection. Stop routing new requests to
// the hub before calling it.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (h *Hub) track(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) untrack(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

// sanitizePlayerID strips anything outside [A-Za-z0-9_-] and enforces
// the length bounds. The player ID keys the leaderboard, so unlike a
// display name there is no default fallback; too-short input is
// rejected.
func sanitizePlayerID(raw string) (string, bool) {
	if !utf8.ValidString(raw) {
		return "", false
	}
	cleaned := make([]rune, 0, len(raw))
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-' {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) < minPlayerIDLen {
		return "", false
	}
	if len(cleaned) > maxPlayerIDLen {
		cleaned = cleaned[:maxPlayerIDLen]
	}
	return string(cleaned), true
}
