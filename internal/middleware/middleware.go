// Package middleware holds the judge's HTTP middleware chain: request
// logging, CORS, JSON content-type enforcement, body-size limiting and
// panic recovery. Shaped after the teacher's chi middleware wrappers.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Logger returns a middleware that logs HTTP requests through logrus,
// tagging each entry with the chi request ID.
func Logger(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&logFormatter{logger: logger})
}

type logFormatter struct {
	logger *logrus.Logger
}

func (l *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	entry := &logEntry{
		logger: l.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote_ip":  r.RemoteAddr,
		}),
	}

	entry.logger.Info("request started")
	return entry
}

type logEntry struct {
	logger *logrus.Entry
}

func (l *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	l.logger.WithFields(logrus.Fields{
		"status":  status,
		"bytes":   bytes,
		"elapsed": elapsed,
	}).Info("request completed")
}

func (l *logEntry) Panic(v interface{}, stack []byte) {
	l.logger.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("request panicked")
}

// CORS allows cross-origin access to the submission/language API; the
// judge has no session cookies so credentials are not required.
func CORS() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Forwarded-For")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// JSON rejects non-JSON bodies on verbs that carry one. DELETE and GET
// carry no body in this API so they're exempt.
func JSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = w.Write([]byte(`{"message":"Content-Type must be application/json"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// BodyLimit caps request bodies on POST — submissions carry base64
// source/stdin/additional_files and are the only endpoints that accept
// attacker-controlled payload size.
func BodyLimit(limit int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Method == http.MethodPost {
				if cl := r.Header.Get("Content-Length"); cl != "" {
					if val, err := strconv.ParseInt(cl, 10, 64); err == nil && val > limit {
						w.Header().Set("Content-Type", "application/json")
						w.WriteHeader(http.StatusRequestEntityTooLarge)
						_, _ = w.Write([]byte(`{"message":"request body too large"}`))
						return
					}
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recovery recovers from panics in handlers, logging via chi's Recoverer.
func Recovery(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return middleware.Recoverer
}
