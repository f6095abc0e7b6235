package ops

import "time"

// Sink adapts Heartbeat and Alerts to the bridge's OpsSink interface.
// Either field may be nil; a nil Heartbeat/Alerts is a documented no-op.
type Sink struct {
	Heartbeat *Heartbeat
	Alerts    *Alerts
}

// OrderRejected is a minor event; it is not alerted on its own, only
// logged by the bridge itself. It exists to satisfy bridge.OpsSink
// without over-notifying on routine risk rejects.
func (s *Sink) OrderRejected(symbol string, reason string) {}

// BrokerDisconnected fires both the ephemeral heartbeat and, since a
// disconnect is what eventually drives a plugin into backoff, a first
// reconnect alert at attempt 1.
func (s *Sink) BrokerDisconnected(name string) {
	if s.Heartbeat != nil {
		s.Heartbeat.Disconnected(name)
	}
	if s.Alerts != nil {
		s.Alerts.ReconnectBackoff(name, 1, 0*time.Second)
	}
}
