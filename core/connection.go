package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/harborwave/maritime-relay/internal/logging"
	"github.com/harborwave/maritime-relay/internal/observability"
)

// CloseCode describes why a connection closed.
type CloseCode struct {
	Code   int
	Reason string
}

// Close codes mirrored from the websocket range used by the transport.
var (
	CloseNormal       = CloseCode{Code: 1000, Reason: "normal closure"}
	CloseGoingAway    = CloseCode{Code: 1001, Reason: "going away"}
	CloseDuplicate    = CloseCode{Code: 4012, Reason: "duplicate connect"}
	CloseWrongMessage = CloseCode{Code: 4100, Reason: "invalid message"}
)

func (c CloseCode) String() string { return fmt.Sprintf("%d (%s)", c.Code, c.Reason) }

// ConnectionListener observes the lifecycle and message traffic of a
// single connection. Implementations are supplied externally and must
// tolerate being called from whichever goroutine delivers the event.
type ConnectionListener interface {
	Connecting(remote string)
	Connected(remote string, resumed bool)
	Disconnected(code CloseCode)
	BinaryMessageReceived(message []byte)
	BinaryMessageSent(message []byte)
	TextMessageReceived(message string)
	TextMessageSent(message string)
}

// Connection fans a connection's lifecycle events out to a fixed set of
// listeners, synchronously and in construction order, and maintains the
// cached connectivity state of its target.
//
// Every listener invocation runs inside its own failure boundary: a
// panicking listener is logged and counted but never prevents delivery
// to its siblings, and never propagates to the event source.
type Connection struct {
	session uuid.UUID
	target  *Target
	tracker *TargetTracker

	connected atomic.Bool

	// listeners is fixed at construction; the slice is never mutated, so
	// events may be delivered from multiple goroutines without
	// coordination.
	listeners []ConnectionListener

	log     logging.Logger
	metrics *observability.RelayCollector
}

// NewConnection attaches a connection for the given target. The listener
// set is snapshotted; later changes to the caller's slice have no
// effect. Both log and metrics may be nil.
func NewConnection(tracker *TargetTracker, target *Target, log logging.Logger, metrics *observability.RelayCollector, listeners ...ConnectionListener) *Connection {
	if log == nil {
		log = logging.Noop()
	}
	return &Connection{
		session:   uuid.New(),
		target:    target,
		tracker:   tracker,
		listeners: append([]ConnectionListener(nil), listeners...),
		log:       log.With(logging.String("target", target.ID().String())),
		metrics:   metrics,
	}
}

// SessionID identifies this connection for session resumption.
func (c *Connection) SessionID() uuid.UUID { return c.session }

// Target returns the target this connection belongs to.
func (c *Connection) Target() *Target { return c.target }

// IsConnected returns the cached connectivity flag. It is updated before
// listeners run, so a listener calling back in sees the new state.
func (c *Connection) IsConnected() bool { return c.connected.Load() }

// Connecting reports that a connection attempt to remote has started.
func (c *Connection) Connecting(remote string) {
	c.each("connecting", func(l ConnectionListener) { l.Connecting(remote) })
}

// Connected reports an established connection. The connectivity flag and
// the target's liveness are flipped exactly once, before fan-out.
func (c *Connection) Connected(remote string, resumed bool) {
	if c.connected.CompareAndSwap(false, true) {
		c.target.setConnected(true)
		if c.tracker != nil {
			c.tracker.noteConnectivity(true)
		}
	}
	c.each("connected", func(l ConnectionListener) { l.Connected(remote, resumed) })
}

// Disconnected reports connection loss with the given close code.
func (c *Connection) Disconnected(code CloseCode) {
	if c.connected.CompareAndSwap(true, false) {
		c.target.setConnected(false)
		if c.tracker != nil {
			c.tracker.noteConnectivity(false)
		}
	}
	c.each("disconnected", func(l ConnectionListener) { l.Disconnected(code) })
}

// BinaryMessageReceived reports an inbound binary frame.
func (c *Connection) BinaryMessageReceived(message []byte) {
	c.each("binaryMessageReceived", func(l ConnectionListener) { l.BinaryMessageReceived(message) })
}

// BinaryMessageSent reports an outbound binary frame.
func (c *Connection) BinaryMessageSent(message []byte) {
	c.each("binaryMessageSent", func(l ConnectionListener) { l.BinaryMessageSent(message) })
}

// TextMessageReceived reports an inbound text frame.
func (c *Connection) TextMessageReceived(message string) {
	c.each("textMessageReceived", func(l ConnectionListener) { l.TextMessageReceived(message) })
}

// TextMessageSent reports an outbound text frame.
func (c *Connection) TextMessageSent(message string) {
	c.each("textMessageSent", func(l ConnectionListener) { l.TextMessageSent(message) })
}

// each delivers one event to every listener, isolating failures.
func (c *Connection) each(event string, deliver func(ConnectionListener)) {
	for _, l := range c.listeners {
		c.deliverIsolated(event, l, deliver)
	}
}

func (c *Connection) deliverIsolated(event string, l ConnectionListener, deliver func(ConnectionListener)) {
	defer func() {
		if r := recover(); r != nil {
			if c.metrics != nil {
				c.metrics.ListenerPanics.Inc()
			}
			c.log.Error(context.Background(), "connection listener panicked",
				logging.String("event", event),
				logging.Any("panic", r),
			)
		}
	}()
	deliver(l)
}
