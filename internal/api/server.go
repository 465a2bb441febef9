package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kestrel-data/crossing.report/internal/db"
	"github.com/kestrel-data/crossing.report/internal/httputil"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db *db.DB
}

func NewServer(db *db.DB) *Server {
	return &Server{db: db}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/streams", s.listStreams)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/charts/day", s.showDayChart)
	return mux
}

// listStreams returns one summary per known stream for the dashboard index.
func (s *Server) listStreams(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	summaries, err := s.db.StreamSummaries(r.Context())
	if err != nil {
		httputil.InternalServerError(w,
			fmt.Sprintf("Failed to retrieve streams: %v", err))
		return
	}
	if summaries == nil {
		summaries = []db.StreamSummary{}
	}

	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		httputil.InternalServerError(w, "Failed to write streams")
		return
	}
}

// listSessions returns stored counting sessions. Optional query params:
//   - stream: restrict to one stream URL
//   - date:   restrict to one calendar day, formatted 2006-01-02
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var (
		records []db.SessionRecord
		err     error
	)
	switch {
	case r.URL.Query().Get("date") != "":
		day, perr := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.UTC)
		if perr != nil {
			httputil.BadRequest(w, "Invalid 'date' parameter, want YYYY-MM-DD")
			return
		}
		records, err = s.db.SessionsForDay(r.Context(), day)
	case r.URL.Query().Get("stream") != "":
		records, err = s.db.SessionsByStream(r.Context(), r.URL.Query().Get("stream"))
	default:
		records, err = s.db.Sessions(r.Context())
	}
	if err != nil {
		httputil.InternalServerError(w,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}
	if records == nil {
		records = []db.SessionRecord{}
	}

	if err := json.NewEncoder(w).Encode(records); err != nil {
		httputil.InternalServerError(w, "Failed to write sessions")
		return
	}
}
