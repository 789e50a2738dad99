package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/vmihailenco/msgpack/v5"

	service "github.com/tolgaeren/swish/internal/app"
	"github.com/tolgaeren/swish/pkg/logger"
	"github.com/tolgaeren/swish/pkg/metrics"
)

const writeTimeout = 5 * time.Second

// frame is one queued outbound message.
type frame struct {
	typ  websocket.MessageType
	data []byte
}

// Conn wraps one websocket client. Snapshots leave as binary msgpack
// frames and events as JSON text frames, both through a bounded queue
// that drops instead of blocking the session frame loop.
type Conn struct {
	id     string
	sock   *websocket.Conn
	sendCh chan frame
	done   chan struct{}
	once   sync.Once
	log    logger.Logger
}

func newConn(sock *websocket.Conn, id string, buffer int) *Conn {
	return &Conn{
		id:     id,
		sock:   sock,
		sendCh: make(chan frame, buffer),
		done:   make(chan struct{}),
		log:    logger.Get().Named("ws").With(logger.String("conn_id", id)),
	}
}

// SessionSnapshot implements service.SnapshotSink. It is called on the
// session's frame goroutine and must not block.
func (c *Conn) SessionSnapshot(snap service.Snapshot) {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		c.log.Warn(context.Background(), "snapshot encode failed", logger.Err(err))
		return
	}
	if c.enqueue(frame{typ: websocket.MessageBinary, data: data}) {
		metrics.RecordWSSnapshot()
	}
}

// SessionEvent implements service.EventSink under the same non-blocking
// rule as SessionSnapshot.
func (c *Conn) SessionEvent(ev service.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Warn(context.Background(), "event encode failed", logger.Err(err))
		return
	}
	c.enqueue(frame{typ: websocket.MessageText, data: data})
}

func (c *Conn) sendPong() {
	c.enqueue(frame{typ: websocket.MessageText, data: []byte(`{"kind":"pong"}`)})
}

// enqueue queues an outbound frame without blocking. A full buffer means
// the client is not keeping up; the frame is dropped and counted, and
// the next snapshot supersedes the lost one.
func (c *Conn) enqueue(f frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- f:
		return true
	default:
		metrics.RecordWSSendDrop()
		return false
	}
}

// WriteLoop drains the send queue onto the socket until the connection
// closes. Run it on its own goroutine.
func (c *Conn) WriteLoop(ctx context.Context) {
	for {
		select {
		case f := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.sock.Write(wctx, f.typ, f.data)
			cancel()
			if err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			c.Close()
			return
		}
	}
}

// Close tears the connection down. Safe to call from any goroutine, any
// number of times.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.sock.Close(websocket.StatusNormalClosure, "")
	})
}

// Done closes when the connection is torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }
