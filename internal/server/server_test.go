package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/visiongraph/internal/config"
	"github.com/matzehuels/visiongraph/internal/program"
	"github.com/matzehuels/visiongraph/pkg/buildinfo"
	apperr "github.com/matzehuels/visiongraph/pkg/errors"
	"github.com/matzehuels/visiongraph/pkg/observability"
	"github.com/matzehuels/visiongraph/pkg/persist"
)

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	store := persist.NewStore(nil, logger)
	if dir != "" {
		store = persist.Open(persist.Options{Candidates: []string{dir}, Logger: logger})
	}
	prog, err := program.New(program.Options{Config: config.Default(), Logger: logger, Store: store})
	if err != nil {
		t.Fatalf("program.New() error: %v", err)
	}
	return New(prog, logger)
}

func do(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

const doc = `{"nodes": [
  {"type": "math/Constant", "id": "k", "settings": {"value": 2}, "pos": [1, 2], "inputs": {}},
  {"type": "math/Scale", "id": "s", "settings": {"factor": 3}, "pos": [],
   "inputs": {"x": {"link": {"id": "k", "name": "value"}, "value": null}}}
]}`

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t, ""), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestVersion(t *testing.T) {
	var got buildinfo.Info
	decodeBody(t, do(t, newTestServer(t, ""), http.MethodGet, "/api/version", "", ""), &got)
	if diff := cmp.Diff(buildinfo.Get(), got); diff != "" {
		t.Errorf("version mismatch (-want +got):\n%s", diff)
	}
}

func TestFuncs(t *testing.T) {
	s := newTestServer(t, "")

	var nested struct {
		Modules []struct {
			Package string `json:"package"`
		} `json:"modules"`
		Funcs []json.RawMessage `json:"funcs"`
	}
	rec := do(t, s, http.MethodGet, "/api/funcs", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	decodeBody(t, rec, &nested)
	var pkgs []string
	for _, m := range nested.Modules {
		pkgs = append(pkgs, m.Package)
	}
	if diff := cmp.Diff([]string{"math", "util"}, pkgs); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
	if len(nested.Funcs) != 0 {
		t.Errorf("nested layout has %d top-level funcs", len(nested.Funcs))
	}

	var flat struct {
		Funcs []struct {
			Type string `json:"type"`
		} `json:"funcs"`
	}
	decodeBody(t, do(t, s, http.MethodGet, "/api/funcs?flat=1", "", ""), &flat)
	if len(flat.Funcs) == 0 || flat.Funcs[0].Type != "math/Constant" {
		t.Errorf("flat funcs = %+v, want math/Constant first", flat.Funcs)
	}
}

func TestImportExport(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	rec := do(t, s, http.MethodPost, "/api/nodes", "application/json", doc)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body)
	}
	var resp importResponse
	decodeBody(t, rec, &resp)
	if resp.ImportID == "" || resp.Created != 2 {
		t.Errorf("response = %+v, want an id and 2 created", resp)
	}

	var got, want any
	decodeBody(t, do(t, s, http.MethodGet, "/api/nodes", "", ""), &got)
	if err := json.Unmarshal([]byte(doc), &want); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}

	// The import was persisted to the active profile.
	s.prog.Store.Invalidate()
	tree, ok := s.prog.Store.NodeTree()
	if !ok || len(tree.Nodes) != 2 {
		t.Errorf("stored tree = %v, %v; want 2 nodes", tree, ok)
	}
}

func TestImportYAML(t *testing.T) {
	s := newTestServer(t, "")
	body := `
nodes:
  - type: math/Constant
    id: k
    settings: {value: 5}
    pos: []
    inputs: {}
`
	rec := do(t, s, http.MethodPost, "/api/nodes", "application/yaml", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if n := s.prog.Pipeline.Len(); n != 1 {
		t.Errorf("pipeline has %d nodes, want 1", n)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode apperr.Code
		wantNode string
	}{
		{"malformed json", `{"nodes": [`, apperr.ErrCodeInvalidDocument, ""},
		{"missing nodes", `{}`, apperr.ErrCodeInvalidDocument, ""},
		{
			"unknown type",
			`{"nodes": [{"type": "math/Nope", "id": "x", "settings": {}, "pos": [], "inputs": {}}]}`,
			apperr.ErrCodeImport, "x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t, ""), http.MethodPost, "/api/nodes", "application/json", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var body errorBody
			decodeBody(t, rec, &body)
			if body.Code != tt.wantCode || body.Node != tt.wantNode {
				t.Errorf("error = %+v, want code %s node %q", body, tt.wantCode, tt.wantNode)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	if rec := do(t, s, http.MethodPost, "/api/nodes", "application/json", doc); rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}

	var p profileBody
	decodeBody(t, do(t, s, http.MethodGet, "/api/profile", "", ""), &p)
	if p.Profile != 0 || !p.Persistence || p.Root == "" {
		t.Errorf("GET profile = %+v", p)
	}

	rec := do(t, s, http.MethodPost, "/api/profile", "application/json", `{"profile": 4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("switch status = %d: %s", rec.Code, rec.Body)
	}
	decodeBody(t, rec, &p)
	if p.Profile != 4 {
		t.Errorf("profile = %d, want 4", p.Profile)
	}
	if n := s.prog.Pipeline.Len(); n != 0 {
		t.Errorf("profile 4 pipeline has %d nodes, want 0", n)
	}

	for _, body := range []string{`{"profile": 12}`, `{}`, `nope`} {
		rec := do(t, s, http.MethodPost, "/api/profile", "application/json", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want 400", body, rec.Code)
		}
	}
}

func TestGraph(t *testing.T) {
	s := newTestServer(t, "")
	if rec := do(t, s, http.MethodPost, "/api/nodes", "application/json", doc); rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}
	rec := do(t, s, http.MethodGet, "/api/graph.svg", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body is not an SVG document")
	}
}

func TestMetrics(t *testing.T) {
	InstallMetrics(0)
	t.Cleanup(observability.Reset)

	s := newTestServer(t, "")
	if rec := do(t, s, http.MethodPost, "/api/nodes", "application/json", doc); rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body)
	}

	rec := do(t, s, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{
		`visiongraph_nodetree_imports_total{result="ok"}`,
		"visiongraph_lock_wait_seconds",
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code apperr.Code
		want int
	}{
		{apperr.ErrCodeImport, http.StatusBadRequest},
		{apperr.ErrCodeInvalidProfile, http.StatusBadRequest},
		{apperr.ErrCodeUnavailable, http.StatusServiceUnavailable},
		{apperr.ErrCodeUnsupported, http.StatusNotImplemented},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
