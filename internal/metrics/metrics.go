package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "studylog"

var (
	UploadFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_files_total",
			Help:      "Total number of files accepted, labeled by task id.",
		},
		[]string{"task"},
	)

	UploadRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejected_total",
			Help:      "Total number of rejected upload requests, labeled by error kind.",
		},
		[]string{"kind"},
	)

	DeleteFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delete_files_total",
			Help:      "Total number of files deleted, labeled by task id.",
		},
		[]string{"task"},
	)

	ThumbnailGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_generated_total",
			Help:      "Thumbnail backfill outcomes (ok, placeholder, skipped, error).",
		},
		[]string{"outcome"},
	)

	ThumbnailQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "thumbnail_queue_depth",
			Help:      "Number of thumbnail requests waiting in the backfill queue.",
		},
	)

	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		UploadFilesTotal,
		UploadRejectedTotal,
		DeleteFilesTotal,
		ThumbnailGeneratedTotal,
		ThumbnailQueueDepth,
		LoginAttemptsTotal,
	)
}
