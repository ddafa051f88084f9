package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/inforum/diagnostico/pkg/metrics"
)

// Route labels used for the HTTP metrics.
const (
	routeHealth    = "healthz"
	routeSubmit    = "submit"
	routeQuestions = "questions"
)

// instrument records request count, latency and failure class for one route.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(time.Since(start).Milliseconds()))

		if class, severity, failed := classifyFailure(route, rec.status); failed {
			metrics.RecordErrorByEndpoint(route, r.Method, class)
			metrics.RecordErrorByType(class, severity)
		}
	}
}

// classifyFailure maps an answer status to a failure class. On /submit a
// 400 is a rejected body or identity and a 500 means no deal was created.
func classifyFailure(route string, status int) (class, severity string, failed bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", "", false
	case status == http.StatusNotFound:
		return "not_found", "low", true
	case status == http.StatusRequestEntityTooLarge:
		return "body_too_large", "medium", true
	case route == routeSubmit && status == http.StatusBadRequest:
		return "submission_rejected", "medium", true
	case route == routeSubmit && status >= http.StatusInternalServerError:
		return "deal_failed", "high", true
	case status >= http.StatusInternalServerError:
		return "server_error", "high", true
	default:
		return "client_error", "medium", true
	}
}

// statusRecorder remembers the first status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status, rec.wroteHeader = code, true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	return rec.ResponseWriter.Write(b) //nolint:wrapcheck // pass-through writer
}
