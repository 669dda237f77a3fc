package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/xelth-com/eckposgo/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// AccessLog tags every request with an ID and logs it once it completes.
// Websocket upgrades need the raw writer, so they are logged on entry only.
func AccessLog(baseLog *logger.Logger) func(http.Handler) http.Handler {
	log := baseLog.With("component", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			if r.Header.Get("Upgrade") != "" {
				log.Info("upgrade", "request_id", id, "path", r.URL.Path, "remote", r.RemoteAddr)
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			kv := []interface{}{
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration", time.Since(start),
			}
			if rec.status >= http.StatusInternalServerError {
				log.Error("request", kv...)
			} else {
				log.Debug("request", kv...)
			}
		})
	}
}
