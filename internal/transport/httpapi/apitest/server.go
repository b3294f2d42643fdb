// Package apitest runs an in-process fake of the remote search API for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Reply is a canned response.
type Reply struct {
	Status int
	Body   string
	Header http.Header
}

// ExportBody is the decoded payload of POST /export.
type ExportBody struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	Format  string         `json:"format"`
}

// SearchBody is the decoded payload of POST /search.
type SearchBody struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	Limit   int            `json:"limit"`
}

// Server is a fake upstream. Zero configuration answers every endpoint with
// an empty but well-formed body.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	schema   Reply
	onSearch func(SearchBody) Reply
	onExport func(ExportBody) Reply
	calls    map[string]int
	bodies   map[string][]byte
}

// New starts a fake server and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		schema: Reply{Body: `{"fields":[]}`},
		calls:  make(map[string]int),
		bodies: make(map[string][]byte),
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Get("/schema", s.handleSchema)
	r.Post("/search", s.handleSearch)
	r.Post("/export", s.handleExport)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetSchema sets the GET /schema reply.
func (s *Server) SetSchema(status int, body string) {
	s.mu.Lock()
	s.schema = Reply{Status: status, Body: body}
	s.mu.Unlock()
}

// OnSearch installs a POST /search handler.
func (s *Server) OnSearch(fn func(SearchBody) Reply) {
	s.mu.Lock()
	s.onSearch = fn
	s.mu.Unlock()
}

// OnExport installs a POST /export handler.
func (s *Server) OnExport(fn func(ExportBody) Reply) {
	s.mu.Lock()
	s.onExport = fn
	s.mu.Unlock()
}

// Calls returns how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastBody returns the last request body received on path.
func (s *Server) LastBody(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.bodies[path]...)
}

func (s *Server) record(r *http.Request) []byte {
	data, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.calls[r.URL.Path]++
	s.bodies[r.URL.Path] = data
	s.mu.Unlock()
	return data
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	s.mu.Lock()
	reply := s.schema
	s.mu.Unlock()
	write(w, "application/json", reply)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	data := s.record(r)
	var body SearchBody
	if err := json.Unmarshal(data, &body); err != nil {
		write(w, "text/plain", Reply{Status: http.StatusUnprocessableEntity, Body: err.Error()})
		return
	}

	s.mu.Lock()
	fn := s.onSearch
	s.mu.Unlock()

	reply := Reply{Body: `{"data":[],"total":0}`}
	if fn != nil {
		reply = fn(body)
	}
	write(w, "application/json", reply)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data := s.record(r)
	var body ExportBody
	if err := json.Unmarshal(data, &body); err != nil {
		write(w, "text/plain", Reply{Status: http.StatusUnprocessableEntity, Body: err.Error()})
		return
	}

	s.mu.Lock()
	fn := s.onExport
	s.mu.Unlock()

	reply := Reply{Body: "id\n"}
	if fn != nil {
		reply = fn(body)
	}
	ct := "text/csv"
	if body.Format == "xlsx" {
		ct = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if reply.Status >= 400 {
		ct = "text/plain"
	}
	write(w, ct, reply)
}

func write(w http.ResponseWriter, contentType string, reply Reply) {
	for k, vs := range reply.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentType)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}
