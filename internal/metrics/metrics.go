// Package metrics holds the Prometheus metrics of the application.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results used as label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	imageUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_image_uploads_total",
			Help: "Total number of image uploads to the object store",
		},
		[]string{"result"},
	)

	imageUploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contacts_image_upload_bytes_total",
			Help: "Total number of bytes uploaded to the object store",
		},
	)

	documentWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_document_writes_total",
			Help: "Total number of contact writes to the document store",
		},
		[]string{"operation", "result"},
	)

	listFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_list_fetches_total",
			Help: "Total number of full contact list fetches",
		},
		[]string{"result"},
	)
)

// Gin records count and duration of every request. The route pattern is used as path label, so
// that ids in the URL do not create new series.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordUpload counts a finished upload and, if it succeeded, its size.
func RecordUpload(size int64, err error) {
	if err != nil {
		imageUploads.WithLabelValues(ResultError).Inc()
		return
	}
	imageUploads.WithLabelValues(ResultOK).Inc()
	imageUploadBytes.Add(float64(size))
}

// RecordWrite counts a document write. Operation is "insert" or "update".
func RecordWrite(operation string, err error) {
	documentWrites.WithLabelValues(operation, result(err)).Inc()
}

// RecordFetch counts a list fetch.
func RecordFetch(err error) {
	listFetches.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
