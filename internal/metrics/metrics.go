package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records lobby engine activity as Prometheus series.
type Collector struct {
	lobbiesOpened prometheus.Counter
	lobbiesClosed *prometheus.CounterVec
	activeLobbies prometheus.Gauge
	answers       prometheus.Counter
	reveals       *prometheus.CounterVec
	handlerErrors *prometheus.CounterVec
	connections   *prometheus.GaugeVec
	droppedFrames prometheus.Counter
}

func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		lobbiesOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "trivia_lobbies_opened_total",
			Help: "Total number of lobbies created",
		}),
		lobbiesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_lobbies_closed_total",
			Help: "Total number of lobbies closed",
		}, []string{"reason"}), // reason: ended/host_disconnected
		activeLobbies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trivia_lobbies_active",
			Help: "Current number of live lobbies",
		}),
		answers: factory.NewCounter(prometheus.CounterOpts{
			Name: "trivia_answers_submitted_total",
			Help: "Total number of accepted answer submissions",
		}),
		reveals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_answer_reveals_total",
			Help: "Total number of answer reveals",
		}, []string{"trigger"}), // trigger: manual/timer
		handlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trivia_handler_errors_total",
			Help: "Total number of inbound messages that failed",
		}, []string{"op"}),
		connections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trivia_connections_current",
			Help: "Current number of websocket connections",
		}, []string{"role"}),
		droppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "trivia_dropped_frames_total",
			Help: "Frames dropped because a connection's send buffer was full",
		}),
	}
}

func (c *Collector) LobbyOpened() {
	c.lobbiesOpened.Inc()
	c.activeLobbies.Inc()
}

func (c *Collector) LobbyClosed(reason string) {
	c.lobbiesClosed.WithLabelValues(reason).Inc()
	c.activeLobbies.Dec()
}

func (c *Collector) AnswerSubmitted() { c.answers.Inc() }

func (c *Collector) AnswerRevealed(trigger string) { c.reveals.WithLabelValues(trigger).Inc() }

func (c *Collector) HandlerFailed(op string) { c.handlerErrors.WithLabelValues(op).Inc() }

func (c *Collector) ConnectionOpened(role string) { c.connections.WithLabelValues(role).Inc() }

func (c *Collector) ConnectionClosed(role string) { c.connections.WithLabelValues(role).Dec() }

func (c *Collector) FrameDropped() { c.droppedFrames.Inc() }
