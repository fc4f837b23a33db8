package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/nbai/pkg/metrics"
)

// errorClass labels error responses in metrics. The type matches the code
// field of the JSON error body.
type errorClass struct {
	kind     string
	severity string
}

var errorClasses = map[int]errorClass{
	http.StatusBadRequest:          {"bad_request", "low"},
	http.StatusNotFound:            {"not_found", "low"},
	http.StatusUnprocessableEntity: {"insufficient_data", "low"},
	http.StatusServiceUnavailable:  {"unavailable", "medium"},
	http.StatusInternalServerError: {"internal_error", "high"},
}

func classifyStatus(code int) errorClass {
	if c, ok := errorClasses[code]; ok {
		return c
	}
	if code >= http.StatusInternalServerError {
		return errorClass{"server_error", "high"}
	}
	return errorClass{"client_error", "medium"}
}

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		ms := float64(time.Since(start).Milliseconds())
		code := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, ms)

		if sw.status < http.StatusBadRequest {
			return
		}
		c := classifyStatus(sw.status)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, c.kind)
		metrics.RecordErrorByType(c.kind, c.severity)
		metrics.RecordErrorLatency("http", c.kind, ms)
	}
}

// statusWriter remembers the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
