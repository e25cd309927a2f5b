// Package apitest provides an in-memory todo backend for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Makepad-fr/tada-board/internal/model"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server mimics the backend: POST /todos creates or, when the body carries a
// known id, replaces in place.
type Server struct {
	*httptest.Server

	// Legacy makes GET /todos report isCompleted instead of completed.
	Legacy bool

	mu        sync.Mutex
	todos     []model.Todo
	nextID    int64
	failNext  map[string][]int
	failAll   map[string]int
	requests  []Request
	omitTitle bool
}

// NewServer starts a backend seeded with todos. It is closed on test cleanup.
func NewServer(tb testing.TB, seed ...model.Todo) *Server {
	tb.Helper()
	s := &Server{
		failNext: map[string][]int{},
		failAll:  map[string]int{},
	}
	for _, t := range seed {
		s.todos = append(s.todos, t)
		if t.ID > s.nextID {
			s.nextID = t.ID
		}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	tb.Cleanup(s.Close)
	return s
}

// FailNext makes the next request with method answer status.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[method] = append(s.failNext[method], status)
}

// FailAlways makes every request with method answer status. Zero resets.
func (s *Server) FailAlways(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failAll, method)
		return
	}
	s.failAll[method] = status
}

// OmitTitleOnCreate drops the title from create responses.
func (s *Server) OmitTitleOnCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitTitle = true
}

// Requests returns the calls seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Todos returns the stored todos.
func (s *Server) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Todo(nil), s.todos...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})

	if q := s.failNext[r.Method]; len(q) > 0 {
		s.failNext[r.Method] = q[1:]
		http.Error(w, "injected failure", q[0])
		return
	}
	if status, ok := s.failAll[r.Method]; ok {
		http.Error(w, "injected failure", status)
		return
	}

	switch {
	case r.URL.Path == "/todos" && r.Method == http.MethodGet:
		s.list(w)
	case r.URL.Path == "/todos" && r.Method == http.MethodPost:
		s.save(w, body)
	case strings.HasPrefix(r.URL.Path, "/todos/") && r.Method == http.MethodDelete:
		s.remove(w, strings.TrimPrefix(r.URL.Path, "/todos/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) list(w http.ResponseWriter) {
	out := make([]map[string]any, 0, len(s.todos))
	for _, t := range s.todos {
		rec := map[string]any{"id": t.ID, "title": t.Title, "description": t.Description}
		if s.Legacy {
			rec["isCompleted"] = t.Completed
		} else {
			rec["completed"] = t.Completed
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) save(w http.ResponseWriter, body []byte) {
	var rec model.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if rec.HasID() {
		for i := range s.todos {
			if s.todos[i].ID == *rec.ID {
				s.todos[i] = rec.NormalizeWith(s.todos[i])
				writeJSON(w, http.StatusOK, s.todos[i])
				return
			}
		}
	}
	s.nextID++
	t := rec.Normalize()
	t.ID = s.nextID
	s.todos = append(s.todos, t)

	resp := map[string]any{"id": t.ID, "description": t.Description, "completed": t.Completed}
	if !s.omitTitle {
		resp["title"] = t.Title
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) remove(w http.ResponseWriter, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "todo not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
