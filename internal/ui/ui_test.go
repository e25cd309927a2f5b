package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total, width int
		want               string
	}{
		{0, 0, 10, "░░░░░░░░░░   0%"},
		{1, 2, 10, "█████░░░░░  50%"},
		{3, 3, 4, "█████ 100%"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.done, tt.total, tt.width); got != tt.want {
			t.Errorf("ProgressBar(%d, %d, %d) = %q, want %q", tt.done, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestPanelMono(t *testing.T) {
	SetTheme("mono")
	t.Cleanup(func() { SetTheme("classic") })

	var buf bytes.Buffer
	Panel(&buf, []string{"Todos", "[ ] Buy milk"})
	want := strings.Join([]string{
		"+--------------+",
		"| Todos        |",
		"| [ ] Buy milk |",
		"+--------------+",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("Panel output:\n%s\nwant:\n%s", got, want)
	}
}

func TestColorSwitches(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	t.Cleanup(func() { SetColorDisabled(false) })

	if got := C(fgRed, "x"); got != fgRed+"x"+reset {
		t.Errorf("CLICOLOR_FORCE not honoured: %q", got)
	}
	SetColorDisabled(true)
	if got := C(fgRed, "x"); got != "x" {
		t.Errorf("disable should win: %q", got)
	}

	var buf bytes.Buffer
	OK(&buf, "added")
	if !strings.Contains(buf.String(), "✔ added") {
		t.Errorf("OK output = %q", buf.String())
	}
}
