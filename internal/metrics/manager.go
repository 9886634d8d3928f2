package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cascade levels reported by CounterCascadeDeletes.
const (
	LevelSet      = "set"
	LevelExercise = "exercise"
	LevelWorkout  = "workout"
)

type Manager struct {
	// counters
	CounterRequests       *prometheus.CounterVec
	CounterSetsAdded      prometheus.Counter
	CounterCascadeDeletes *prometheus.CounterVec
	CounterVisionImports  *prometheus.CounterVec
	CounterLibraryCache   *prometheus.CounterVec

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistVisionDuration  prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("peakpt", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("peakpt", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "route", "status"})
	counterSetsAdded := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_added",
		Help:      "The total number of sets logged",
	})
	counterCascadeDeletes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cascade_deletes",
		Help:      "Entities removed, by level (set, exercise, workout)",
	}, []string{"level"})
	counterVisionImports := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "vision_imports",
		Help:      "Photo imports by outcome",
	}, []string{"outcome"})
	counterLibraryCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "library_cache",
		Help:      "Exercise library list cache lookups by result (hit, miss)",
	}, []string{"result"})

	histReqDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		},
		[]string{"route"},
	)
	histVisionDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			Name:      "vision_duration_seconds",
			Help:      "Duration of a single photo extraction in seconds",
		},
	)

	return &Manager{
		CounterRequests:       counterRequests,
		CounterSetsAdded:      counterSetsAdded,
		CounterCascadeDeletes: counterCascadeDeletes,
		CounterVisionImports:  counterVisionImports,
		CounterLibraryCache:   counterLibraryCache,
		HistRequestDuration:   histReqDuration,
		HistVisionDuration:    histVisionDuration,
	}
}

// CascadeDeleted records n removed entities of the given level. Zero is a no-op.
func (m *Manager) CascadeDeleted(level string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CounterCascadeDeletes.WithLabelValues(level).Add(float64(n))
}

// SetsAdded records n newly logged sets.
func (m *Manager) SetsAdded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CounterSetsAdded.Add(float64(n))
}

// VisionImport records the outcome of a photo import and how long extraction took.
func (m *Manager) VisionImport(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CounterVisionImports.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		m.HistVisionDuration.Observe(seconds)
	}
}

// LibraryCacheLookup records a hit or miss of the exercise library cache.
func (m *Manager) LibraryCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CounterLibraryCache.WithLabelValues(result).Inc()
}
