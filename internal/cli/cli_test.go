package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/tada-board/internal/api/apitest"
	"github.com/Makepad-fr/tada-board/internal/model"
)

type result struct {
	code int
	out  string
	err  string
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"TODO_API_BASE", "VITE_API_BASE", "TODO_API_TIMEOUT",
		"TADA_LOG_LEVEL", "TADA_LOG_FILE", "TADA_THEME", "TADA_TOKEN"} {
		t.Setenv(k, "")
	}
	t.Setenv("NO_COLOR", "1")
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, out: out.String(), err: errOut.String()}
}

func seeded() []model.Todo {
	return []model.Todo{
		{ID: 1, Title: "Buy milk", Description: "2 litres"},
		{ID: 2, Title: "Write report", Completed: true},
		{ID: 3, Title: "Call mum"},
	}
}

func TestList(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer(t, seeded()...)

	r := run(t, "", "--api", srv.URL, "ls")
	if r.code != 0 {
		t.Fatalf("exit %d, stderr %q", r.code, r.err)
	}
	for _, want := range []string{"Todos", "Buy milk", "Write report", "Call mum", "Total 3", "2 litres"} {
		if !strings.Contains(r.out, want) {
			t.Errorf("output missing %q:\n%s", want, r.out)
		}
	}

	r = run(t, "", "--api", srv.URL, "ls", "--group", "--search", "REPORT")
	if r.code != 0 {
		t.Fatalf("exit %d, stderr %q", r.code, r.err)
	}
	// The footer tip mentions "Buy milk", so match on id columns.
	if strings.Contains(r.out, "#1 ") || strings.Contains(r.out, "#3 ") || !strings.Contains(r.out, "#2 ") {
		t.Errorf("search not applied:\n%s", r.out)
	}
	if !strings.Contains(r.out, "Open") || !strings.Contains(r.out, "(none)") {
		t.Errorf("grouping not applied:\n%s", r.out)
	}
}

func TestListBackendDown(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer(t)
	srv.FailAlways(http.MethodGet, http.StatusInternalServerError)

	r := run(t, "", "--api", srv.URL, "ls")
	if r.code != 1 {
		t.Fatalf("exit %d, want 1", r.code)
	}
	if !strings.Contains(r.err, "status 500") {
		t.Fatalf("stderr %q", r.err)
	}
}

func TestAdd(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer(t)

	r := run(t, "", "--api", srv.URL, "add", " Buy", "milk ", "-d", "  2 litres ")
	if r.code != 0 {
		t.Fatalf("exit %d, stderr %q", r.code, r.err)
	}
	if !strings.Contains(r.out, "added #1 Buy milk") {
		t.Fatalf("stdout %q", r.out)
	}
	todos := srv.Todos()
	if len(todos) != 1 || todos[0].Title != "Buy milk" || todos[0].Description != "2 litres" {
		t.Fatalf("backend has %+v", todos)
	}

	r = run(t, "", "--api", srv.URL, "add", "   ")
	if r.code != 2 {
		t.Fatalf("blank title exit %d, want 2", r.code)
	}
	if !strings.Contains(r.err, "title required") {
		t.Fatalf("stderr %q", r.err)
	}
	if got := len(srv.Requests()); got != 1 {
		t.Fatalf("blank title sent a request (%d total)", got)
	}
}

func TestDoneAndRemove(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer(t, seeded()...)

	r := run(t, "", "--api", srv.URL, "done", "3")
	if r.code != 0 {
		t.Fatalf("done exit %d, stderr %q", r.code, r.err)
	}
	if !strings.Contains(r.out, "#3 Call mum is done") {
		t.Fatalf("stdout %q", r.out)
	}
	if todos := srv.Todos(); !todos[2].Completed {
		t.Fatalf("backend not updated: %+v", todos)
	}

	srv.FailNext(http.MethodPost, http.StatusInternalServerError)
	r = run(t, "", "--api", srv.URL, "done", "1")
	if r.code != 1 || !strings.Contains(r.err, "update of todo 1 failed (500)") {
		t.Fatalf("failed update: exit %d stderr %q", r.code, r.err)
	}

	r = run(t, "", "--api", srv.URL, "rm", "#2")
	if r.code != 0 {
		t.Fatalf("rm exit %d, stderr %q", r.code, r.err)
	}
	if len(srv.Todos()) != 2 {
		t.Fatalf("backend still has %d todos", len(srv.Todos()))
	}

	r = run(t, "", "--api", srv.URL, "rm", "42")
	if r.code != 1 || !strings.Contains(r.err, "todo ls") {
		t.Fatalf("unknown id: exit %d stderr %q", r.code, r.err)
	}
}

func TestUsageErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"done without id", []string{"done"}},
		{"done with bad id", []string{"done", "abc"}},
		{"rm with two ids", []string{"rm", "1", "2"}},
		{"unknown flag", []string{"ls", "--nope"}},
		{"add without title", []string{"add"}},
		{"bad api url", []string{"--api", "ftp://x", "ls"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, "", tt.args...)
			want := 2
			if tt.name == "bad api url" {
				want = 1
			}
			if r.code != want {
				t.Fatalf("exit %d, want %d (stderr %q)", r.code, want, r.err)
			}
		})
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	isolate(t)
	r := run(t, "", "frobnicate")
	if r.code != 2 || !strings.Contains(r.err, `unknown command "frobnicate" for "todo"`) {
		t.Fatalf("exit %d stderr %q", r.code, r.err)
	}
}

func TestLogoutReportsUnreadableCredentials(t *testing.T) {
	isolate(t)
	os.Unsetenv("TADA_TOKEN")
	dir := filepath.Join(os.Getenv("HOME"), ".tada")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := run(t, "", "auth", "logout")
	if r.code != 1 || !strings.Contains(r.err, "parse credentials") {
		t.Fatalf("exit %d out %q err %q", r.code, r.out, r.err)
	}
	if strings.Contains(r.out, "logged out") {
		t.Fatalf("logout must not claim success: %q", r.out)
	}
}

func TestTokenIsSentAsBearer(t *testing.T) {
	isolate(t)
	srv := apitest.NewServer(t)
	t.Setenv("TADA_TOKEN", "secret-token")

	if r := run(t, "", "--api", srv.URL, "ls"); r.code != 0 {
		t.Fatalf("exit %d, stderr %q", r.code, r.err)
	}
	if h := srv.Requests()[0].Header.Get("Authorization"); h != "Bearer secret-token" {
		t.Fatalf("Authorization = %q", h)
	}
}

func TestAuthCommands(t *testing.T) {
	isolate(t)
	os.Unsetenv("TADA_TOKEN")

	r := run(t, "", "auth", "status")
	if r.code != 0 || !strings.Contains(r.out, "not logged in") {
		t.Fatalf("status: exit %d out %q", r.code, r.out)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r = run(t, signed+"\n", "auth", "login")
	if r.code != 0 || !strings.Contains(r.out, "logged in (expires") {
		t.Fatalf("login: exit %d out %q err %q", r.code, r.out, r.err)
	}

	r = run(t, "", "auth", "whoami")
	if r.code != 0 || !strings.Contains(r.out, `"sub": "user-42"`) {
		t.Fatalf("whoami: exit %d out %q", r.code, r.out)
	}

	r = run(t, "", "auth", "status")
	if !strings.Contains(r.out, "source: file") {
		t.Fatalf("status out %q", r.out)
	}

	r = run(t, "", "auth", "logout")
	if r.code != 0 || !strings.Contains(r.out, "logged out") {
		t.Fatalf("logout: exit %d out %q", r.code, r.out)
	}

	r = run(t, "", "auth", "whoami")
	if r.code != 2 {
		t.Fatalf("whoami after logout: exit %d", r.code)
	}
}
