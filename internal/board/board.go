// Package board holds the client-side todo collection and keeps it in step
// with the backend using optimistic updates.
//
// Mutations are applied locally first. If the backend rejects them the
// collection is restored from a snapshot taken before the change; nothing is
// recomputed. Only the most recent error is kept.
package board

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada-board/internal/model"
)

// API is the part of the backend the board talks to.
type API interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, title, description string) (model.Todo, error)
	Update(ctx context.Context, t model.Todo) error
	Delete(ctx context.Context, id int64) error
}

// Board is safe for concurrent use. Its lock is never held across a request.
type Board struct {
	api API
	log *log.Logger

	mu         sync.Mutex
	items      []model.Todo
	loading    bool
	submitting bool
	errMsg     string
	filter     string

	// turns orders commits per item id; see Pending.
	turns map[int64]chan struct{}
	// queued holds the unsettled mutations per id in stage order.
	queued map[int64][]*Pending
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

// New returns an empty board backed by client.
func New(client API, opts ...Option) *Board {
	b := &Board{
		api:   client,
		log:   log.New(io.Discard),
		turns:  map[int64]chan struct{}{},
		queued: map[int64][]*Pending{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the collection with the backend's list. On failure the
// current collection is kept and a *LoadError is returned.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	if b.loading {
		b.mu.Unlock()
		return ErrBusy
	}
	b.loading = true
	b.mu.Unlock()

	todos, err := b.api.List(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = false
	if err != nil {
		lerr := &LoadError{Status: statusOf(err), Err: err}
		b.errMsg = lerr.Error()
		b.log.Error("load failed", "err", err)
		return lerr
	}
	b.items = todos
	b.errMsg = ""
	b.log.Info("loaded todos", "count", len(todos))
	return nil
}

// Submit creates a todo from trimmed input. An empty title fails with
// ErrValidation before anything is sent. The created todo is appended once
// the backend has assigned its id.
func (b *Board) Submit(ctx context.Context, title, description string) (model.Todo, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	b.mu.Lock()
	if title == "" {
		b.errMsg = ErrValidation.Error()
		b.mu.Unlock()
		return model.Todo{}, ErrValidation
	}
	if b.submitting {
		b.mu.Unlock()
		return model.Todo{}, ErrBusy
	}
	b.submitting = true
	b.mu.Unlock()

	created, err := b.api.Create(ctx, title, description)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitting = false
	if err != nil {
		serr := &SaveError{Status: statusOf(err), Err: err}
		b.errMsg = serr.Error()
		b.log.Error("create failed", "title", title, "err", err)
		return model.Todo{}, serr
	}
	if i := b.indexOf(created.ID); i >= 0 {
		// A reload raced the create and already brought the item in.
		b.items[i] = created
	} else {
		b.items = append(b.items, created)
	}
	b.errMsg = ""
	b.log.Info("created todo", "id", created.ID)
	return created, nil
}

// Update merges changes into the todo with id and sends the merged record.
// On failure the exact previous version of the item is restored.
func (b *Board) Update(ctx context.Context, id int64, changes model.Patch) error {
	p, err := b.StageUpdate(id, changes)
	if err != nil {
		return err
	}
	return p.Commit(ctx)
}

// Toggle flips the completed flag of the todo with id.
func (b *Board) Toggle(ctx context.Context, id int64) error {
	t, ok := b.Find(id)
	if !ok {
		b.setErr(ErrNotFound)
		return ErrNotFound
	}
	return b.Update(ctx, id, model.Patch{Completed: model.Ptr(!t.Completed)})
}

// Remove deletes the todo with id. A 404 from the backend counts as success;
// any other failure restores the whole collection as it was before.
func (b *Board) Remove(ctx context.Context, id int64) error {
	p, err := b.StageRemove(id)
	if err != nil {
		return err
	}
	return p.Commit(ctx)
}

// StageUpdate applies changes locally and returns the pending mutation.
func (b *Board) StageUpdate(id int64, changes model.Patch) (*Pending, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		b.errMsg = ErrNotFound.Error()
		return nil, ErrNotFound
	}
	before := b.items[i]
	after := changes.Apply(before)
	b.items[i] = after

	p := &Pending{b: b, op: opUpdate, id: id, patch: changes, before: before, after: after}
	b.enqueue(p)
	return p, nil
}

// StageRemove removes the todo locally and returns the pending mutation.
func (b *Board) StageRemove(id int64) (*Pending, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		b.errMsg = ErrNotFound.Error()
		return nil, ErrNotFound
	}
	snapshot := slices.Clone(b.items)
	before := b.items[i]
	b.items = slices.Delete(b.items, i, i+1)

	p := &Pending{b: b, op: opRemove, id: id, before: before, snapshot: snapshot}
	b.enqueue(p)
	return p, nil
}

// Items returns a copy of the collection in order.
func (b *Board) Items() []model.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Find returns the todo with id.
func (b *Board) Find(id int64) (model.Todo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.items[i], true
	}
	return model.Todo{}, false
}

// Counts returns how many todos are open and how many are done.
func (b *Board) Counts() (open, done int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Counts(b.items)
}

// Counts splits todos into open and done.
func Counts(todos []model.Todo) (open, done int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	return open, done
}

// Visible returns the todos whose title or description contains filter,
// ignoring case. An empty filter returns everything in order.
func (b *Board) Visible(filter string) []model.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Filter(b.items, filter)
}

// Filter is the pure form of Visible.
func Filter(todos []model.Todo, filter string) []model.Todo {
	term := strings.ToLower(strings.TrimSpace(filter))
	if term == "" {
		return slices.Clone(todos)
	}
	var out []model.Todo
	for _, t := range todos {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t)
		}
	}
	return out
}

// SetFilter stores the current search term.
func (b *Board) SetFilter(filter string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = filter
}

// Filter returns the current search term.
func (b *Board) Filter() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Filtered is Visible with the stored search term.
func (b *Board) Filtered() []model.Todo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Filter(b.items, b.filter)
}

// Err returns the most recent error message, or "".
func (b *Board) Err() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errMsg
}

// ClearErr dismisses the error banner.
func (b *Board) ClearErr() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errMsg = ""
}

// Loading reports whether a Load is in flight.
func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Submitting reports whether a Submit is in flight.
func (b *Board) Submitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submitting
}

func (b *Board) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errMsg = err.Error()
}

// indexOf needs b.mu held.
func (b *Board) indexOf(id int64) int {
	return slices.IndexFunc(b.items, func(t model.Todo) bool { return t.ID == id })
}

// enqueue needs b.mu held. p waits for the previous mutation on its id
// (if any) and gets a turn that is closed once p is settled.
func (b *Board) enqueue(p *Pending) {
	p.wait = b.turns[p.id]
	p.turn = make(chan struct{})
	b.turns[p.id] = p.turn
	b.queued[p.id] = append(b.queued[p.id], p)
}

func (b *Board) release(p *Pending) {
	b.mu.Lock()
	if b.turns[p.id] == p.turn {
		delete(b.turns, p.id)
	}
	q := slices.DeleteFunc(b.queued[p.id], func(o *Pending) bool { return o == p })
	if len(q) == 0 {
		delete(b.queued, p.id)
	} else {
		b.queued[p.id] = q
	}
	b.mu.Unlock()
	close(p.turn)
}
