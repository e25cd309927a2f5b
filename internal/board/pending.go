package board

import (
	"context"
	"slices"

	"github.com/Makepad-fr/tada-board/internal/api"
	"github.com/Makepad-fr/tada-board/internal/model"
)

type op int

const (
	opUpdate op = iota
	opRemove
)

func (o op) String() string {
	if o == opRemove {
		return "delete"
	}
	return "update"
}

// Pending is a mutation that has been applied locally but not yet confirmed.
// Commit must be called exactly once. Commits for the same id reach the
// backend in the order they were staged; other ids do not wait. When one of
// them is rolled back, the ones staged after it are replayed on the restored
// item, so what they send never carries the rejected change.
type Pending struct {
	b     *Board
	op    op
	id    int64
	patch model.Patch // update only

	before   model.Todo   // item as it was
	after    model.Todo   // item as sent (update only)
	snapshot []model.Todo // whole collection (delete only)

	wait <-chan struct{}
	turn chan struct{}
	done bool
}

// ID returns the id of the mutated todo.
func (p *Pending) ID() int64 { return p.id }

// Item returns the optimistic version of the todo. For deletes it is the
// removed item.
func (p *Pending) Item() model.Todo {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	if p.op == opRemove {
		return p.before
	}
	return p.after
}

// Commit sends the mutation. On success the optimistic state stands. On
// failure the snapshot is restored and an *UpdateError or *DeleteError is
// returned.
func (p *Pending) Commit(ctx context.Context) error {
	if p.done {
		return ErrCommitted
	}
	p.done = true
	defer p.b.release(p)

	if p.wait != nil {
		select {
		case <-p.wait:
		case <-ctx.Done():
			return p.rollback(ctx.Err())
		}
	}

	// A rollback of an earlier mutation may have rebased this one.
	p.b.mu.Lock()
	sent := p.after
	p.b.mu.Unlock()

	var err error
	switch p.op {
	case opUpdate:
		err = p.b.api.Update(ctx, sent)
	case opRemove:
		err = p.b.api.Delete(ctx, p.id)
		if api.IsNotFound(err) {
			p.b.log.Debug("todo already gone", "id", p.id)
			err = nil
		}
	}
	if err != nil {
		return p.rollback(err)
	}
	p.b.log.Debug("committed", "op", p.op, "id", p.id)
	return nil
}

func (p *Pending) rollback(cause error) error {
	b := p.b
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	switch p.op {
	case opUpdate:
		var later []*Pending
		q := b.queued[p.id]
		if k := slices.Index(q, p); k >= 0 {
			later = q[k+1:]
		}
		current := p.after
		if n := len(later); n > 0 {
			current = later[n-1].after
		}
		restored := p.before
		for _, s := range later {
			restored = s.rebase(restored)
		}
		// The item may have been removed or reloaded in the meantime; only
		// the state this chain produced is replaced.
		if i := b.indexOf(p.id); i >= 0 && b.items[i] == current {
			b.items[i] = restored
		}
		err = &UpdateError{ID: p.id, Status: statusOf(cause), Err: cause}
	case opRemove:
		b.items = p.snapshot
		err = &DeleteError{ID: p.id, Status: statusOf(cause), Err: cause}
	}
	b.errMsg = err.Error()
	b.log.Error("rolled back", "op", p.op, "id", p.id, "err", cause)
	return err
}

// rebase replays p on top of base and returns the resulting item. It needs
// b.mu held.
func (p *Pending) rebase(base model.Todo) model.Todo {
	p.before = base
	if p.op == opRemove {
		if i := slices.IndexFunc(p.snapshot, func(t model.Todo) bool { return t.ID == p.id }); i >= 0 {
			p.snapshot[i] = base
		}
		return base
	}
	p.after = p.patch.Apply(base)
	return p.after
}
