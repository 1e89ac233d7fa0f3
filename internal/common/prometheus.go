package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	EventsIngestedTotal        = "reputation_events_ingested_total"
	EventsRejectedTotal        = "reputation_events_rejected_total"
	LevelUpsTotal              = "reputation_level_ups_total"
	AchievementsUnlockedTotal  = "reputation_achievements_unlocked_total"
	IngestDurationSeconds      = "reputation_ingest_duration_seconds"
	ProgressionConflictsTotal  = "reputation_progression_conflicts_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "code"}),
		EventsIngestedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventsIngestedTotal,
			Help: "Count of activity events recorded, duplicates excluded",
		}, []string{"type"}),
		EventsRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: EventsRejectedTotal,
			Help: "Count of activity events whose counters were discarded",
		}, []string{"reason"}),
		LevelUpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: LevelUpsTotal,
			Help: "Count of level ups",
		}, []string{}),
		AchievementsUnlockedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: AchievementsUnlockedTotal,
			Help: "Count of unlocked achievements",
		}, []string{"key"}),
		ProgressionConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ProgressionConflictsTotal,
			Help: "Count of events retried because of a concurrent progression update",
		}, []string{}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "code"}),
		IngestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: IngestDurationSeconds,
			Help: "Duration of the ingestion of one activity event",
		}, []string{"type"}),
	}
)

// PromCollectors returns every metric of the service, sorted by name.
func PromCollectors() []prometheus.Collector {
	names := append(maps.Keys(PromCounters), maps.Keys(PromHistograms)...)
	slices.Sort(names)

	result := make([]prometheus.Collector, 0, len(names))
	for _, name := range names {
		if counter, ok := PromCounters[name]; ok {
			result = append(result, counter)
		} else {
			result = append(result, PromHistograms[name])
		}
	}

	return result
}
