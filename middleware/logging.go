package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type ctxKey int

const (
	traceKey ctxKey = iota
	loggerKey
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// Trace identifies one API request.
type Trace struct {
	RequestID string
	Started   time.Time
}

// statusRecorder remembers what the handler sent so it can be logged.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.WriteHeader(http.StatusOK)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware tags the request with an id, taken from the caller when
// present, and logs one line per request once the handler returns.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace := &Trace{RequestID: r.Header.Get(RequestIDHeader), Started: time.Now()}
		if trace.RequestID == "" {
			trace.RequestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, trace.RequestID)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": trace.RequestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote_ip":  r.RemoteAddr,
		})
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				entry = entry.WithField("route", tmpl)
			}
		}
		if id := mux.Vars(r)["id"]; id != "" {
			entry = entry.WithField("job_id", id)
		}

		ctx := context.WithValue(r.Context(), traceKey, trace)
		ctx = context.WithValue(ctx, loggerKey, entry)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(trace.Started),
			"size":     rec.written,
		}).Log(levelFor(rec.status), "Request completed")
	})
}

func levelFor(status int) logrus.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case status >= http.StatusBadRequest:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

func GetTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(traceKey).(*Trace)
	return trace
}

// GetLogger returns the request logger, or the standard logger outside a
// request.
func GetLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
