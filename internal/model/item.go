package model

// Todo is the client-side shape of a task. IDs are assigned by the backend;
// the client never makes one up.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Record is a todo as the backend sends it. Every field may be missing, and
// older deployments report completion as isCompleted.
type Record struct {
	ID          *int64  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	IsCompleted *bool   `json:"isCompleted"`
}

// HasID reports whether the backend assigned an id.
func (r Record) HasID() bool { return r.ID != nil }

// Normalize maps the record onto a Todo. completed wins over isCompleted;
// missing values become zero values.
func (r Record) Normalize() Todo {
	return r.NormalizeWith(Todo{})
}

// NormalizeWith is Normalize, but fields the backend left out are taken
// from fallback instead of defaulting to zero values.
func (r Record) NormalizeWith(fallback Todo) Todo {
	t := fallback
	if r.ID != nil {
		t.ID = *r.ID
	}
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	switch {
	case r.Completed != nil:
		t.Completed = *r.Completed
	case r.IsCompleted != nil:
		t.Completed = *r.IsCompleted
	}
	return t
}

// Patch is a partial change set. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Apply returns t with the patch merged in. t itself is not modified.
func (p Patch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }
