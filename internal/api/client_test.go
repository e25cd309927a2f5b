package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Makepad-fr/tada-board/internal/api"
	"github.com/Makepad-fr/tada-board/internal/api/apitest"
	"github.com/Makepad-fr/tada-board/internal/model"
)

func TestNewStripsTrailingSlash(t *testing.T) {
	c := api.New("http://localhost:8080/")
	if got := c.BaseURL(); got != "http://localhost:8080" {
		t.Fatalf("BaseURL() = %q", got)
	}
}

func TestListNormalizesLegacyRecords(t *testing.T) {
	srv := apitest.NewServer(t, model.Todo{ID: 1, Title: "A", Completed: true})
	srv.Legacy = true

	todos, err := api.New(srv.URL).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []model.Todo{{ID: 1, Title: "A", Completed: true}}
	if len(todos) != 1 || todos[0] != want[0] {
		t.Fatalf("List() = %+v, want %+v", todos, want)
	}
}

func TestListStatusError(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.FailNext(http.MethodGet, http.StatusServiceUnavailable)

	_, err := api.New(srv.URL).List(context.Background())
	var se *api.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusServiceUnavailable || se.Method != http.MethodGet || se.Path != "/todos" {
		t.Fatalf("unexpected status error: %+v", se)
	}
	if api.StatusCode(err) != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode() = %d", api.StatusCode(err))
	}
}

func TestCreateSendsBodyAndHeaders(t *testing.T) {
	srv := apitest.NewServer(t)
	c := api.New(srv.URL+"/", api.WithToken("abc"))

	got, err := c.Create(context.Background(), "Buy milk", "2l")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == 0 || got.Title != "Buy milk" || got.Description != "2l" || got.Completed {
		t.Fatalf("Create() = %+v", got)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	r := reqs[0]
	if r.Method != http.MethodPost || r.Path != "/todos" {
		t.Fatalf("unexpected request %s %s", r.Method, r.Path)
	}
	if h := r.Header.Get("Authorization"); h != "Bearer abc" {
		t.Fatalf("Authorization = %q", h)
	}
	if h := r.Header.Get("Content-Type"); h != "application/json" {
		t.Fatalf("Content-Type = %q", h)
	}
	if r.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	var body map[string]any
	if err := json.Unmarshal(r.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if _, hasID := body["id"]; hasID {
		t.Fatalf("create must not send an id: %s", r.Body)
	}
	if body["title"] != "Buy milk" || body["description"] != "2l" || body["completed"] != false {
		t.Fatalf("unexpected body: %s", r.Body)
	}
}

func TestCreateFallsBackToSubmittedFields(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.OmitTitleOnCreate()

	got, err := api.New(srv.URL).Create(context.Background(), "Call mum", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Title != "Call mum" {
		t.Fatalf("expected submitted title fallback, got %q", got.Title)
	}
}

func TestCreateWithoutIDFails(t *testing.T) {
	srv := &http.ServeMux{}
	srv.HandleFunc("/todos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"x"}`))
	})
	ts := newServer(t, srv)

	_, err := api.New(ts).Create(context.Background(), "x", "")
	if !errors.Is(err, api.ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestUpdatePostsFullRecord(t *testing.T) {
	srv := apitest.NewServer(t, model.Todo{ID: 3, Title: "Report"})
	c := api.New(srv.URL)

	if err := c.Update(context.Background(), model.Todo{ID: 3, Title: "Report", Completed: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	r := srv.Requests()[0]
	if r.Method != http.MethodPost || r.Path != "/todos" {
		t.Fatalf("unexpected request %s %s", r.Method, r.Path)
	}
	var body map[string]any
	if err := json.Unmarshal(r.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["id"] != float64(3) || body["completed"] != true || body["title"] != "Report" {
		t.Fatalf("unexpected body: %s", r.Body)
	}
	if todos := srv.Todos(); len(todos) != 1 || !todos[0].Completed {
		t.Fatalf("backend not updated in place: %+v", todos)
	}
}

func TestDelete(t *testing.T) {
	srv := apitest.NewServer(t, model.Todo{ID: 5, Title: "Old"})
	c := api.New(srv.URL)

	if err := c.Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r := srv.Requests()[0]; r.Method != http.MethodDelete || r.Path != "/todos/5" {
		t.Fatalf("unexpected request %s %s", r.Method, r.Path)
	}

	err := c.Delete(context.Background(), 5)
	if !api.IsNotFound(err) {
		t.Fatalf("expected 404 on second delete, got %v", err)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := apitest.NewServer(t)
	url := srv.URL
	srv.Close()

	_, err := api.New(url).List(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if api.StatusCode(err) != 0 {
		t.Fatalf("transport error must not carry a status, got %d", api.StatusCode(err))
	}
}

func TestContextCancellation(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.New(srv.URL).List(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
