// Package server exposes the importer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mapaction/mapimporter/internal/services"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// UploadFormField carries the package in a multipart import request.
	UploadFormField = "upload"
	// OwnerOrgFormField optionally names the owning organization.
	OwnerOrgFormField = "owner_org"

	// DefaultMaxUploadSize bounds the request body of an import.
	DefaultMaxUploadSize int64 = 100 << 20

	multipartMemory = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// Importer imports one uploaded package.
type Importer interface {
	Import(ctx context.Context, upload mapimporter.Upload, opts services.ImportOptions) (*mapimporter.Dataset, error)
}

// Server routes import requests and dataset lookups.
type Server struct {
	importer      Importer
	catalog       mapimporter.Catalog
	logger        mapimporter.Logger
	gatherer      prometheus.Gatherer
	maxUploadSize int64
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadSize overrides DefaultMaxUploadSize.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) { s.maxUploadSize = n }
}

// WithGatherer serves metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a Server. Panics on nil dependencies.
func New(importer Importer, catalog mapimporter.Catalog, logger mapimporter.Logger, opts ...Option) *Server {
	if importer == nil {
		panic("importer cannot be nil")
	}
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	s := &Server{
		importer:      importer,
		catalog:       catalog,
		logger:        logger,
		gatherer:      prometheus.DefaultGatherer,
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/import_mapactionzip", s.handleImport)
	r.Get("/dataset/{name}", s.handleDataset)
	r.Get("/dataset/edit/{name}", s.handleDataset)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Verbose("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeValidation(w, mapimporter.NewUploadError(mapimporter.ErrUploadTooLarge))
			return
		}
		s.writeValidation(w, mapimporter.NewUploadError(mapimporter.ErrNoUpload))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(UploadFormField)
	if err != nil {
		s.writeValidation(w, mapimporter.NewUploadError(mapimporter.ErrNoUpload))
		return
	}
	defer file.Close()

	upload := mapimporter.NewReaderUpload(header.Filename, file, header.Size)
	ds, err := s.importer.Import(r.Context(), upload, services.ImportOptions{
		OwnerOrg: r.FormValue(OwnerOrgFormField),
	})
	if err != nil {
		var validationErr *mapimporter.ValidationError
		if errors.As(err, &validationErr) {
			s.writeValidation(w, validationErr)
			return
		}
		s.logger.Error("Import of %s failed: %v", header.Filename, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	http.Redirect(w, r, "/dataset/edit/"+url.PathEscape(ds.Name), http.StatusFound)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ds, err := s.catalog.FindDataset(r.Context(), name)
	if errors.Is(err, mapimporter.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dataset not found"})
		return
	}
	if err != nil {
		s.logger.Error("Lookup of %s failed: %v", name, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) writeValidation(w http.ResponseWriter, err *mapimporter.ValidationError) {
	s.logger.Warn("Rejected upload: %s", err.Message)
	writeJSON(w, http.StatusBadRequest, err.ErrorSummary())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
