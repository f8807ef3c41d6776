// Package api serves rewind reports over HTTP: upload an export, get back its stats, and fetch
// the stats or the markdown story later by id.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
)

const (
	defaultMaxUploadBytes = 512 << 20
	uploadField           = "file"
)

// Config controls a Server.
type Config struct {
	Port int

	// MaxUploadBytes caps an upload body. Zero means 512 MiB.
	MaxUploadBytes int64

	// MaxReports bounds the in-memory store. Zero or less means unbounded.
	MaxReports int

	// Year is the default report year; a "year" query parameter overrides it per upload.
	Year int
}

type Server struct {
	router *chi.Mux
	cfg    Config
	store  *Store
	log    *slog.Logger
}

// NewServer wires the routes. A nil logger uses slog.Default().
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Year == 0 {
		cfg.Year = rewind.DefaultYear
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		cfg:    cfg,
		store:  NewStore(cfg.MaxReports),
		log:    logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/rewind", func(r chi.Router) {
		r.Post("/", s.upload)
		r.Get("/{id}", s.getReport)
		r.Get("/{id}/story", s.getStory)
		r.Delete("/{id}", s.deleteReport)
	})

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("Start: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("Start: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("Start: listen: %w", err)
	}
	return nil
}

type uploadResponse struct {
	ID    string       `json:"id"`
	Stats rewind.Stats `json:"stats"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "reports": s.store.Len()})
}

// upload handles POST /api/v1/rewind. The export is either the raw request body or the multipart
// field "file"; both are streamed into the aggregator.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	year := s.cfg.Year
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	defer body.Close()

	src, err := uploadSource(r, body)
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}

	stats, res, err := rewind.AggregateArchive(r.Context(), src, rewind.ArchiveOptions{
		Options: rewind.Options{Year: year},
		Logger:  s.log,
	})
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}

	rep := s.store.Put(year, stats)
	s.log.Info("rewind report created",
		"id", rep.ID,
		"year", year,
		"conversations", res.Conversations,
		"bytes", res.Bytes,
		"prompts", stats.TotalPrompts,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusCreated, uploadResponse{ID: rep.ID, Stats: rep.Stats})
}

// uploadSource returns the reader holding the export for either upload form.
func uploadSource(r *http.Request, body io.Reader) (io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return body, nil
	}

	r.Body = io.NopCloser(body)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("uploadSource: %w: %w", rewind.ErrInvalidArchive, err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("uploadSource: no %q field: %w", uploadField, rewind.ErrInvalidArchive)
		}
		if err != nil {
			return nil, fmt.Errorf("uploadSource: %w: %w", rewind.ErrInvalidArchive, err)
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		_ = part.Close()
	}
}

func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, rewind.ErrInvalidArchive):
		s.log.Warn("rejected upload", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusBadRequest, rewind.ErrInvalidArchive.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		s.log.Error("upload failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, rep.Stats)
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	charts := r.URL.Query().Get("charts") == "true"
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rewind.RenderStory(rep.Stats, rewind.StoryOptions{Year: rep.Year, IncludeCharts: charts}))
}

func (s *Server) deleteReport(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
