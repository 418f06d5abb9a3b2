// Package feed keeps a screen's list of posts in step with the store and
// shows the viewer's own edits before the store confirms them.
package feed

import (
	"sync"

	"github.com/dmitrijs2005/chirper/internal/models"
)

// OpID names a pending optimistic operation.
type OpID uint64

type pendingOp struct {
	id      OpID
	postID  string
	body    string
	deleted bool
}

// Projection is the visible list: the last snapshot with the pending local
// operations applied on top. Every snapshot replaces the projection and
// drops all pending operations, confirmed or not.
type Projection struct {
	mu       sync.Mutex
	snapshot []models.Post
	pending  []pendingOp
	lastOp   OpID
}

func NewProjection() *Projection {
	return &Projection{}
}

func (p *Projection) ApplySnapshot(posts []models.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snapshot = append([]models.Post(nil), posts...)
	p.pending = nil
}

func (p *Projection) add(op pendingOp) OpID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastOp++
	op.id = p.lastOp
	p.pending = append(p.pending, op)
	return op.id
}

// ApplyOptimisticUpdate shows body as the text of postID until the next
// snapshot.
func (p *Projection) ApplyOptimisticUpdate(postID, body string) OpID {
	return p.add(pendingOp{postID: postID, body: body})
}

// ApplyOptimisticDelete hides postID until the next snapshot.
func (p *Projection) ApplyOptimisticDelete(postID string) OpID {
	return p.add(pendingOp{postID: postID, deleted: true})
}

// Revert withdraws a pending operation. It reports false when the
// operation is no longer pending, either because it was reverted already
// or because a snapshot replaced it.
func (p *Projection) Revert(id OpID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, op := range p.pending {
		if op.id == id {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending reports the number of unconfirmed local operations.
func (p *Projection) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// View returns a fresh copy of the visible list.
func (p *Projection) View() []models.Post {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.Post, 0, len(p.snapshot))
	for _, post := range p.snapshot {
		hidden := false
		for _, op := range p.pending {
			if op.postID != post.ID {
				continue
			}
			if op.deleted {
				hidden = true
				break
			}
			post.Body = op.body
		}
		if !hidden {
			out = append(out, post)
		}
	}
	return out
}
