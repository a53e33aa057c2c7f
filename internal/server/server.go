// Package server exposes a running program over HTTP.
//
// Routes:
//
//	GET  /healthz          liveness
//	GET  /metrics          Prometheus metrics
//	GET  /api/funcs        function catalog (?flat=1 for the flat layout)
//	GET  /api/nodes        nodetree export
//	POST /api/nodes        nodetree import (JSON, or YAML by Content-Type)
//	GET  /api/profile      active profile and storage root
//	POST /api/profile      switch profile
//	GET  /api/graph.svg    rendered node-link diagram
//	GET  /api/version      build information
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/visiongraph/internal/program"
	"github.com/matzehuels/visiongraph/pkg/buildinfo"
	"github.com/matzehuels/visiongraph/pkg/catalog"
	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/nodetree"
	"github.com/matzehuels/visiongraph/pkg/render/nodelink"
)

// maxDocumentSize bounds request bodies.
const maxDocumentSize = 8 << 20

// Server routes HTTP requests to a program.
type Server struct {
	prog   *program.Program
	logger *log.Logger
	router chi.Router
}

// New returns a server for prog.
func New(prog *program.Program, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{prog: prog, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/funcs", s.getFuncs)
		r.Get("/nodes", s.getNodes)
		r.Post("/nodes", s.postNodes)
		r.Get("/profile", s.getProfile)
		r.Post("/profile", s.postProfile)
		r.Get("/graph.svg", s.getGraph)
		r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, buildinfo.Get())
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) getFuncs(w http.ResponseWriter, r *http.Request) {
	var (
		schema *catalog.Schema
		err    error
	)
	if flat, ok := boolParam(r, "flat"); ok {
		schema, err = catalog.Export(s.prog.Registry, s.prog.Catalog, catalog.Options{Flat: flat})
	} else {
		schema, err = s.prog.Schema()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) getNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.prog.Export(r.Context()))
}

type importResponse struct {
	ImportID string `json:"import_id"`
	Created  int    `json:"created"`
	Deleted  int    `json:"deleted"`
	Fallback int    `json:"fallbacks"`
}

func (s *Server) postNodes(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "read request body"))
		return
	}

	var doc *nodetree.NodeTree
	if isYAML(r.Header.Get("Content-Type")) {
		doc, err = nodetree.DecodeYAML(data)
	} else {
		doc, err = nodetree.Decode(bytes.NewReader(data))
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	id := uuid.NewString()
	stats, err := s.prog.Import(r.Context(), doc)
	if err != nil {
		s.logger.Warn("import failed", "import_id", id, "err", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("imported nodetree", "import_id", id, "nodes", len(doc.Nodes), "created", stats.Created, "deleted", stats.Deleted)
	writeJSON(w, http.StatusOK, importResponse{
		ImportID: id,
		Created:  stats.Created,
		Deleted:  stats.Deleted,
		Fallback: stats.Fallbacks,
	})
}

type profileBody struct {
	Profile     int    `json:"profile"`
	Persistence bool   `json:"persistence"`
	Root        string `json:"root,omitempty"`
}

func (s *Server) profile() profileBody {
	st := s.prog.Store
	return profileBody{Profile: st.Profile(), Persistence: st.Enabled(), Root: st.Root()}
}

func (s *Server) getProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.profile())
}

func (s *Server) postProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profile *int `json:"profile"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentSize)).Decode(&req); err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "decode profile request"))
		return
	}
	if req.Profile == nil {
		s.writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "profile is required"))
		return
	}
	if err := s.prog.SwitchProfile(r.Context(), *req.Profile); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.profile())
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	detailed, _ := boolParam(r, "detailed")
	dot := nodelink.ToDOT(s.prog.Export(r.Context()), nodelink.Options{Detailed: detailed})
	svg, err := nodelink.RenderSVG(dot)
	if err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInternal, err, "render graph"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Helpers
// =============================================================================

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code,omitempty"`
	Node  string      `json:"node,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperr.GetCode(err)
	body := errorBody{Error: err.Error(), Code: code}
	var ie *nodetree.ImportError
	if errors.As(err, &ie) {
		body.Node = ie.NodeID
	}

	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, body)
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.ErrCodeInvalidInput, apperr.ErrCodeInvalidDocument, apperr.ErrCodeInvalidProfile,
		apperr.ErrCodeInvalidNodeID, apperr.ErrCodeUnknownType, apperr.ErrCodeUnknownFunction,
		apperr.ErrCodeImport:
		return http.StatusBadRequest
	case apperr.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case apperr.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func boolParam(r *http.Request, name string) (value, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	return v && err == nil, true
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}
