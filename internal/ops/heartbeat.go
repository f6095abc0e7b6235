// Package ops publishes broker lifecycle events to peripheral messaging
// systems. Neither publisher is consulted for order-routing correctness;
// both are fire-and-forget, off the request-drain hot path.
package ops

import (
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"
	logger "github.com/sirupsen/logrus"
)

// Heartbeat publishes ephemeral connect/login/disconnect notices over
// NATS. A lost connection to the NATS server only produces log noise; it
// never affects broker operation.
type Heartbeat struct {
	nc      *nats.Conn
	subject string
}

// NewHeartbeat dials url (e.g. "nats://127.0.0.1:4222") and returns a
// Heartbeat publishing under subject. Dial failures are returned, not
// fatal: callers may choose to run without a heartbeat publisher.
func NewHeartbeat(url, subject string) (*Heartbeat, error) {
	nc, err := nats.Connect(url, nats.Name("counterbridge"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("ops: nats connect: %w", err)
	}
	return &Heartbeat{nc: nc, subject: subject}, nil
}

func (h *Heartbeat) publish(broker, event string) {
	if h == nil || h.nc == nil {
		return
	}
	msg := fmt.Sprintf(`{"broker":%q,"event":%q,"ts":%d}`, broker, event, time.Now().UnixNano())
	if err := h.nc.Publish(h.subject, []byte(msg)); err != nil {
		logger.WithFields(logger.Fields{"broker": broker, "event": event}).WithError(err).Debug("ops: heartbeat publish failed")
	}
}

// Connected, LoggedIn and Disconnected report the corresponding broker
// lifecycle transitions. Disconnected here is the ephemeral heartbeat
// signal; the durable reconnect-backoff alert is Alerts.ReconnectBackoff.
func (h *Heartbeat) Connected(broker string)    { h.publish(broker, "connected") }
func (h *Heartbeat) LoggedIn(broker string)     { h.publish(broker, "logged_in") }
func (h *Heartbeat) Disconnected(broker string) { h.publish(broker, "disconnected") }

// Close flushes and closes the NATS connection.
func (h *Heartbeat) Close() {
	if h == nil || h.nc == nil {
		return
	}
	h.nc.Close()
}
