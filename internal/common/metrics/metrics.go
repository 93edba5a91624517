package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	PatternRuleHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghostjob_pattern_rule_hits_total",
			Help: "Suspicion rules that fired during posting analysis",
		},
		[]string{"rule"},
	)

	PatternConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghostjob_pattern_confidence_score",
			Help:    "Confidence scores produced by posting analysis",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghostjob_store_operation_duration_seconds",
			Help:    "Latency of posting history store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghostjob_cache_lookups_total",
			Help: "Redis cache lookups by result (hit, miss, error)",
		},
		[]string{"cache", "result"},
	)

	JudgeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghostjob_judge_requests_total",
			Help: "Authenticity judge calls by outcome",
		},
		[]string{"outcome"},
	)

	SuspiciousCompanies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ghostjob_suspicious_companies",
			Help: "Companies in the most recent fleet report",
		},
	)
)

// StatusLabel maps an error to the status label used by the histograms.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
