package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the dialogue engine.
type EngineMetrics struct {
	turnsTotal     *prometheus.CounterVec
	intentsTotal   *prometheus.CounterVec
	serviceMatches *prometheus.CounterVec
	leadsTotal     *prometheus.CounterVec
	fallbackTotal  *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Processed chat turns by outcome",
		}, []string{"outcome"}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "dialogue",
			Name:      "intents_total",
			Help:      "Classified intents per user turn",
		}, []string{"intent"}),
		serviceMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "dialogue",
			Name:      "service_matches_total",
			Help:      "Service detections by winning tier",
		}, []string{"tier"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "leads",
			Name:      "capture_total",
			Help:      "Lead capture attempts by result",
		}, []string{"result"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadchat",
			Subsystem: "assistant",
			Name:      "fallback_total",
			Help:      "AI fallback generations by status",
		}, []string{"status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadchat",
			Subsystem: "dialogue",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a full chat turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.intentsTotal, m.serviceMatches, m.leadsTotal, m.fallbackTotal, m.turnLatency)
	return m
}

func (m *EngineMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *EngineMetrics) ObserveServiceMatch(tier string) {
	if m == nil {
		return
	}
	m.serviceMatches.WithLabelValues(tier).Inc()
}

func (m *EngineMetrics) ObserveLead(result string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(result).Inc()
}

func (m *EngineMetrics) ObserveFallback(status string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveTurnLatency(transport string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(transport).Observe(seconds)
}
