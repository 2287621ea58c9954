package metrics

import "github.com/prometheus/client_golang/prometheus"

// LLMLatencyMetricName is the fully qualified name of the completion latency
// histogram. The admin dashboard reads it back from the gatherer.
const LLMLatencyMetricName = "docconnect_conversation_llm_latency_seconds"

// ChatTurnsMetricName is the fully qualified name of the chat turn counter.
const ChatTurnsMetricName = "docconnect_chat_turns_total"

// ChatMetrics exposes counters/histograms for the chat orchestrator.
type ChatMetrics struct {
	turnsTotal     *prometheus.CounterVec
	toolCallsTotal *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	llmTokensTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docconnect",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome",
		}, []string{"outcome"}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docconnect",
			Subsystem: "chat",
			Name:      "tool_calls_total",
			Help:      "Total tool calls dispatched by the orchestrator",
		}, []string{"tool", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docconnect",
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of completion calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
		}, []string{"model", "status"}),
		llmTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docconnect",
			Subsystem: "conversation",
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by completion calls",
		}, []string{"model", "type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.toolCallsTotal, m.llmLatency, m.llmTokensTotal)
	return m
}

// ObserveTurn records a finished turn. Outcome is "ok", "tool", "invalid" or "error".
func (m *ChatMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
}

func (m *ChatMetrics) ObserveLLM(model, status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(model, status).Observe(seconds)
}

func (m *ChatMetrics) ObserveTokens(model string, input, output int) {
	if m == nil {
		return
	}
	if input > 0 {
		m.llmTokensTotal.WithLabelValues(model, "input").Add(float64(input))
	}
	if output > 0 {
		m.llmTokensTotal.WithLabelValues(model, "output").Add(float64(output))
	}
}

// BookingMetrics counts booking attempts by outcome.
type BookingMetrics struct {
	bookingsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docconnect",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal)
	return m
}

// ObserveBooking records one attempt. Outcome is "booked", "slot_taken",
// "invalid" or "error".
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
