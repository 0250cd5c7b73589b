package internal

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventMetrics tracks dispatch-related metrics
var EventMetrics = struct {
	EventsTotal    *prometheus.CounterVec
	EventsInflight prometheus.Gauge
}{
	EventsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagehand_events_total",
			Help: "Total number of dispatch events processed, split by event type",
		},
		[]string{"event_type"},
	),
	EventsInflight: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagehand_events_inflight",
			Help: "Number of dispatch events currently being processed",
		},
	),
}

// StateMetrics tracks state-related metrics
var StateMetrics = struct {
	Users           prometheus.Gauge
	Channels        prometheus.Gauge
	ScheduledEvents prometheus.Gauge
}{
	Users: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagehand_state_users",
			Help: "Number of users in state",
		},
	),
	Channels: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagehand_state_channels",
			Help: "Number of channels in state",
		},
	),
	ScheduledEvents: promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagehand_state_scheduled_events",
			Help: "Number of scheduled events in state",
		},
	),
}

func RecordEvent(eventType string) {
	EventMetrics.EventsTotal.WithLabelValues(eventType).Inc()
}

// prometheusGatherer periodically samples the gauges that mirror live
// state.
func (sg *Stagehand) prometheusGatherer(ctx context.Context) {
	ticker := time.NewTicker(prometheusGatherInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		EventMetrics.EventsInflight.Set(float64(sg.EventsInflight.Load()))

		StateMetrics.Users.Set(float64(sg.State.Users.Count()))
		StateMetrics.Channels.Set(float64(sg.State.GuildChannels.Count()))
		StateMetrics.ScheduledEvents.Set(float64(sg.State.GuildEvents.Count()))
	}
}
