package model

import (
	"encoding/json"
	"testing"
)

func TestRecordNormalize(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Todo
	}{
		{
			name: "legacy isCompleted",
			json: `{"id":1,"title":"A","isCompleted":true}`,
			want: Todo{ID: 1, Title: "A", Completed: true},
		},
		{
			name: "completed wins over isCompleted",
			json: `{"id":2,"title":"B","completed":false,"isCompleted":true}`,
			want: Todo{ID: 2, Title: "B", Completed: false},
		},
		{
			name: "missing flags default to open",
			json: `{"id":3,"title":"C","description":"ctx"}`,
			want: Todo{ID: 3, Title: "C", Description: "ctx"},
		},
		{
			name: "null description becomes empty",
			json: `{"id":4,"title":"D","description":null,"completed":true}`,
			want: Todo{ID: 4, Title: "D", Completed: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.json), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := r.Normalize(); got != tt.want {
				t.Fatalf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRecordNormalizeWithFallback(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"id":9}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !r.HasID() {
		t.Fatalf("expected id to be present")
	}
	got := r.NormalizeWith(Todo{Title: "Buy milk", Description: "2l"})
	want := Todo{ID: 9, Title: "Buy milk", Description: "2l"}
	if got != want {
		t.Fatalf("NormalizeWith() = %+v, want %+v", got, want)
	}
}

func TestPatchApply(t *testing.T) {
	orig := Todo{ID: 3, Title: "Write report", Description: "Q3", Completed: false}

	got := Patch{Completed: Ptr(true)}.Apply(orig)
	if !got.Completed || got.Title != orig.Title || got.Description != orig.Description {
		t.Fatalf("unexpected merge result: %+v", got)
	}
	if orig.Completed {
		t.Fatalf("Apply must not modify its input")
	}

	if !(Patch{}).IsZero() {
		t.Fatalf("empty patch should be zero")
	}
	if (Patch{Title: Ptr("x")}).IsZero() {
		t.Fatalf("title patch should not be zero")
	}
}
