package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks performance and success metrics for services
type ServiceMetrics struct {
	serviceName         string
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	totalProcessingTime time.Duration
	lastUpdated         time.Time
	customCounters      map[string]int64
	performance         *PerformanceMetrics
	mutex               sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of ServiceMetrics
type MetricsSnapshot struct {
	ServiceName           string           `json:"service_name"`
	TotalRequests         int64            `json:"total_requests"`
	SuccessfulRequests    int64            `json:"successful_requests"`
	FailedRequests        int64            `json:"failed_requests"`
	SuccessRate           float64          `json:"success_rate"`
	AverageProcessingTime time.Duration    `json:"average_processing_time"`
	MinProcessingTime     time.Duration    `json:"min_processing_time"`
	MaxProcessingTime     time.Duration    `json:"max_processing_time"`
	P95ProcessingTime     time.Duration    `json:"p95_processing_time"`
	LastUpdated           time.Time        `json:"last_updated"`
	CustomCounters        map[string]int64 `json:"custom_counters"`
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName:    serviceName,
		lastUpdated:    time.Now(),
		customCounters: make(map[string]int64),
		performance:    NewPerformanceMetrics(),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalRequests++
	m.totalProcessingTime += processingTime

	if success {
		m.successfulRequests++
	} else {
		m.failedRequests++
	}

	m.lastUpdated = time.Now()
	m.performance.RecordProcessingTime(processingTime)
}

// IncrementCustomCounter increments a custom counter metric
func (m *ServiceMetrics) IncrementCustomCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.customCounters[key]++
	m.lastUpdated = time.Now()
}

func (m *ServiceMetrics) successRateLocked() float64 {
	if m.totalRequests == 0 {
		return 0.0
	}
	return float64(m.successfulRequests) / float64(m.totalRequests) * 100.0
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.customCounters))
	for k, v := range m.customCounters {
		counters[k] = v
	}

	var avg time.Duration
	if m.totalRequests > 0 {
		avg = time.Duration(int64(m.totalProcessingTime) / m.totalRequests)
	}

	perf := m.performance.GetPerformanceSnapshot()

	return MetricsSnapshot{
		ServiceName:           m.serviceName,
		TotalRequests:         m.totalRequests,
		SuccessfulRequests:    m.successfulRequests,
		FailedRequests:        m.failedRequests,
		SuccessRate:           m.successRateLocked(),
		AverageProcessingTime: avg,
		MinProcessingTime:     perf.MinProcessingTime,
		MaxProcessingTime:     perf.MaxProcessingTime,
		P95ProcessingTime:     perf.P95ProcessingTime,
		LastUpdated:           m.lastUpdated,
		CustomCounters:        counters,
	}
}

// LogSummary logs a comprehensive metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"p95_processing_time":     snapshot.P95ProcessingTime,
		"custom_counters":         snapshot.CustomCounters,
	}).Info("Service metrics summary")
}

// PerformanceMetrics tracks detailed performance measurements
type PerformanceMetrics struct {
	MinProcessingTime time.Duration `json:"min_processing_time"`
	MaxProcessingTime time.Duration `json:"max_processing_time"`
	P95ProcessingTime time.Duration `json:"p95_processing_time"`
	P99ProcessingTime time.Duration `json:"p99_processing_time"`
	mutex             sync.RWMutex
	processingTimes   []time.Duration
}

// NewPerformanceMetrics creates a new performance metrics tracker
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		processingTimes: make([]time.Duration, 0, 1000), // Pre-allocate for 1000 samples
	}
}

// RecordProcessingTime records a processing time and updates performance metrics
func (pm *PerformanceMetrics) RecordProcessingTime(duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pm.MinProcessingTime == 0 || duration < pm.MinProcessingTime {
		pm.MinProcessingTime = duration
	}
	if duration > pm.MaxProcessingTime {
		pm.MaxProcessingTime = duration
	}

	// keep the last 1000 samples
	if len(pm.processingTimes) >= 1000 {
		pm.processingTimes = pm.processingTimes[1:]
	}
	pm.processingTimes = append(pm.processingTimes, duration)

	pm.calculatePercentiles()
}

func (pm *PerformanceMetrics) calculatePercentiles() {
	if len(pm.processingTimes) == 0 {
		return
	}

	times := make([]time.Duration, len(pm.processingTimes))
	copy(times, pm.processingTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	p95Index := int(float64(len(times)) * 0.95)
	p99Index := int(float64(len(times)) * 0.99)

	if p95Index < len(times) {
		pm.P95ProcessingTime = times[p95Index]
	}
	if p99Index < len(times) {
		pm.P99ProcessingTime = times[p99Index]
	}
}

// GetPerformanceSnapshot returns a copy of the performance metrics without the sample buffer
func (pm *PerformanceMetrics) GetPerformanceSnapshot() PerformanceSnapshot {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	return PerformanceSnapshot{
		MinProcessingTime: pm.MinProcessingTime,
		MaxProcessingTime: pm.MaxProcessingTime,
		P95ProcessingTime: pm.P95ProcessingTime,
		P99ProcessingTime: pm.P99ProcessingTime,
	}
}

// PerformanceSnapshot is a point-in-time copy of PerformanceMetrics
type PerformanceSnapshot struct {
	MinProcessingTime time.Duration `json:"min_processing_time"`
	MaxProcessingTime time.Duration `json:"max_processing_time"`
	P95ProcessingTime time.Duration `json:"p95_processing_time"`
	P99ProcessingTime time.Duration `json:"p99_processing_time"`
}

// AnalyticsCollectors are the Prometheus collectors exported at /metrics
type AnalyticsCollectors struct {
	Registry         *prometheus.Registry
	Predictions      *prometheus.CounterVec
	PredictionErrors prometheus.Counter
	QueryDuration    *prometheus.HistogramVec
	RecordsLoaded    prometheus.Gauge
	TrainingRows     prometheus.Gauge
	ModelReady       prometheus.Gauge
}

// NewAnalyticsCollectors registers the collectors on a fresh registry
func NewAnalyticsCollectors() *AnalyticsCollectors {
	c := &AnalyticsCollectors{
		Registry: prometheus.NewRegistry(),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ipo_analytics",
			Name:      "predictions_total",
			Help:      "Successful predictions by predicted class.",
		}, []string{"class"}),
		PredictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipo_analytics",
			Name:      "prediction_errors_total",
			Help:      "Prediction requests that returned an error envelope.",
		}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ipo_analytics",
			Name:      "query_duration_seconds",
			Help:      "Engine query latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ipo_analytics",
			Name:      "records_loaded",
			Help:      "Historical IPO records held by the engine.",
		}),
		TrainingRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ipo_analytics",
			Name:      "training_rows",
			Help:      "Labeled rows the classifier was trained on.",
		}),
		ModelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ipo_analytics",
			Name:      "model_ready",
			Help:      "1 when a classifier was trained at startup.",
		}),
	}

	c.Registry.MustRegister(
		c.Predictions,
		c.PredictionErrors,
		c.QueryDuration,
		c.RecordsLoaded,
		c.TrainingRows,
		c.ModelReady,
	)

	return c
}
