package ops

import "testing"

func TestSinkNilFieldsDoNotPanic(t *testing.T) {
	var s Sink
	s.OrderRejected("ag2506", "risk reject")
	s.BrokerDisconnected("simulator")
}

func TestHeartbeatNilReceiverDoesNotPanic(t *testing.T) {
	var h *Heartbeat
	h.Connected("simulator")
	h.LoggedIn("simulator")
	h.Disconnected("simulator")
	h.Close()
}
