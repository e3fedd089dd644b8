package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters maintained by a Server and its
// connections. A nil *Metrics records nothing, so instrumentation is
// strictly opt-in.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	HandshakesFailed    prometheus.Counter
	MessagesRead        prometheus.Counter
	MessagesSent        prometheus.Counter
	DecodeFailures      prometheus.Counter
}

// NewMetrics registers the server counters with reg under the given
// namespace. A nil registerer falls back to the default one.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_accepted_total",
			Help:      "Raw TCP connections accepted by the listener.",
		}),
		HandshakesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "handshakes_failed_total",
			Help:      "Upgrade requests rejected during validation.",
		}),
		MessagesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_read_total",
			Help:      "Application messages decoded from clients.",
		}),
		MessagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Application messages sent to clients.",
		}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "decode_failures_total",
			Help:      "Inbound payloads that failed to decode.",
		}),
	}
}

func (m *Metrics) connAccepted() {
	if m != nil {
		m.ConnectionsAccepted.Inc()
	}
}

func (m *Metrics) handshakeFailed() {
	if m != nil {
		m.HandshakesFailed.Inc()
	}
}

func (m *Metrics) messageRead() {
	if m != nil {
		m.MessagesRead.Inc()
	}
}

func (m *Metrics) messageSent() {
	if m != nil {
		m.MessagesSent.Inc()
	}
}

func (m *Metrics) decodeFailed() {
	if m != nil {
		m.DecodeFailures.Inc()
	}
}
