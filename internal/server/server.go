// Package server exposes document generation and template management over
// HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"

	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/store"
	"github.com/r0ks0n/pdfflow/pkg/api"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, defaulting to ":8080".
	Addr string
	// StoreDir is the template store directory, defaulting to "templates".
	StoreDir string
	// MaxConns caps concurrently open client connections. Zero means no cap.
	MaxConns int
	// FontDirs are directories of TTF files registered at startup.
	FontDirs []string
	// FlowField overrides the default flow field name.
	FlowField string
	// Debug enables verbose logging
	Debug bool
}

// Server serves the render and template APIs.
type Server struct {
	cfg       Config
	generator *api.Generator
	store     *store.Store
	mux       *http.ServeMux
}

// New builds a Server from cfg.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = "templates"
	}

	st, err := store.NewStore(cfg.StoreDir)
	if err != nil {
		return nil, err
	}

	opts := api.DefaultOptions()
	if cfg.FlowField != "" {
		opts.FlowField = cfg.FlowField
	}
	opts.Debug = cfg.Debug
	opts.FontDirectories = append(opts.FontDirectories, cfg.FontDirs...)

	s := &Server{
		cfg:       cfg,
		generator: api.NewWithOptions(opts),
		store:     st,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/render", s.handleRender)
	s.mux.HandleFunc("POST /v1/templates", s.handleCreateTemplate)
	s.mux.HandleFunc("GET /v1/templates", s.handleListTemplates)
	s.mux.HandleFunc("GET /v1/templates/{id}", s.handleGetTemplate)
	s.mux.HandleFunc("PUT /v1/templates/{id}", s.handleUpdateTemplate)
	s.mux.HandleFunc("DELETE /v1/templates/{id}", s.handleDeleteTemplate)
}

// ServeHTTP tags every request with an ID and logs its outcome.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.mux.ServeHTTP(rec, r)
	logging.Logger().Info("request",
		slog.String("id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("duration", time.Since(start)))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	logging.Logger().Info("listening", slog.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type renderRequest struct {
	TemplateID string          `json:"templateId"`
	Template   json.RawMessage `json:"template"`
	Data       json.RawMessage `json:"data"`
	FlowField  string          `json:"flowField"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
			"invalid request body", err.Error(), err))
		return
	}

	tmpl := req.Template
	if len(bytes.TrimSpace(tmpl)) == 0 {
		if req.TemplateID == "" {
			writeError(w, apperr.New(apperr.ErrTemplateInvalid,
				"request needs template or templateId", nil))
			return
		}
		rec, err := s.store.Get(req.TemplateID)
		if err != nil {
			writeError(w, err)
			return
		}
		tmpl = rec.Template
	}

	inputs, err := decodeInputs(req.Data)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := s.generator.GenerateField(r.Context(), tmpl, inputs, req.FlowField)
	if err != nil {
		writeError(w, err)
		return
	}

	if pages, err := api.PageCount(doc); err == nil {
		w.Header().Set("X-Page-Count", strconv.Itoa(pages))
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// decodeInputs decodes the request data object. One document per request:
// a batch array is rejected rather than silently taking its first element.
func decodeInputs(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	if trimmed[0] == '[' {
		return nil, apperr.New(apperr.ErrTemplateInvalid,
			"data must be a single object, batch arrays are not supported", nil)
	}
	var inputs map[string]any
	if err := json.Unmarshal(trimmed, &inputs); err != nil {
		return nil, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
			"invalid data object", err.Error(), err)
	}
	return inputs, nil
}

type templateRequest struct {
	Name     string          `json:"name"`
	Template json.RawMessage `json:"template"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
			"invalid request body", err.Error(), err))
		return
	}
	if len(bytes.TrimSpace(req.Template)) == 0 {
		writeError(w, apperr.New(apperr.ErrTemplateInvalid, "request needs a template", nil))
		return
	}

	rec, err := s.store.Create(req.Name, req.Template)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	records, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.NewWithDetails(apperr.ErrTemplateInvalid,
			"invalid request body", err.Error(), err))
		return
	}
	if len(bytes.TrimSpace(req.Template)) == 0 {
		writeError(w, apperr.New(apperr.ErrTemplateInvalid, "request needs a template", nil))
		return
	}

	rec, err := s.store.Update(r.PathValue("id"), req.Name, req.Template)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.ErrTemplateNotFound:
		return http.StatusNotFound
	case apperr.ErrTemplateInvalid:
		return http.StatusBadRequest
	case apperr.ErrMissingFlowField, apperr.ErrInvalidFieldType:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.New(apperr.ErrInternal, "internal error", err)
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Logger().Error("request failed", slog.Any("error", err))
	}
	writeJSON(w, status, map[string]any{"error": appErr})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Error("failed to encode response", slog.Any("error", err))
	}
}
