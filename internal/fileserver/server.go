package fileserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hlsbot/internal/logging"
	"hlsbot/internal/metrics"
	"hlsbot/internal/workflow"
)

// Banner is the body served at the root path.
const Banner = "Transcoder Bot is Running"

// StreamPrefix is the URL prefix for output packages.
const StreamPrefix = "/stream/"

func init() {
	_ = mime.AddExtensionType(".m3u8", "application/vnd.apple.mpegurl")
	_ = mime.AddExtensionType(".ts", "video/mp2t")
}

// StatusSource reports workflow health.
type StatusSource interface {
	Status() workflow.StatusSummary
}

// JobLookup returns tracked fields for a job.
type JobLookup interface {
	Lookup(ctx context.Context, jobID string) (map[string]string, bool, error)
}

// Options configures the server.
type Options struct {
	OutputDir   string
	CORSOrigin  string
	MetricsPath string
	Status      StatusSource
	Jobs        JobLookup
}

// Server is the HTTP front for output packages.
type Server struct {
	opts    Options
	logger  *slog.Logger
	handler http.Handler
}

// New builds the router.
func New(opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{opts: opts, logger: logging.NewComponentLogger(logger, "fileserver")}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleBanner).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", s.handleJob).Methods(http.MethodGet)
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	files := http.StripPrefix(strings.TrimSuffix(StreamPrefix, "/"), noListing(http.FileServer(http.Dir(s.opts.OutputDir))))
	r.PathPrefix(StreamPrefix).Handler(cors(s.opts.CORSOrigin, files)).Methods(http.MethodGet, http.MethodHead, http.MethodOptions)

	var skip []string
	if s.opts.MetricsPath != "" {
		skip = append(skip, s.opts.MetricsPath)
	}
	return metrics.Middleware(skip...)(r)
}

// Run serves on addr until ctx is cancelled, then drains for up to five
// seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stream server listening", logging.String("addr", addr), logging.String("output_dir", s.opts.OutputDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	summary := s.opts.Status.Status()
	code := http.StatusOK
	if !summary.Running {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, summary)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.opts.Jobs == nil {
		http.Error(w, "job tracking disabled", http.StatusNotFound)
		return
	}
	id := mux.Vars(r)["id"]
	fields, ok, err := s.opts.Jobs.Lookup(r.Context(), id)
	if err != nil {
		logging.WarnWithContext(s.logger, "job lookup failed", "job_lookup_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
		)
		http.Error(w, "job lookup failed", http.StatusBadGateway)
		return
	}
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// noListing refuses directory paths so job folders cannot be enumerated.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") || path.Ext(r.URL.Path) == "" {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
