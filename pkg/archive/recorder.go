package archive

import (
	"context"
	"fmt"

	"github.com/papercomputeco/chatmem/pkg/transcript"
)

// Recorder appends a live conversation to a Storer, tracking the head of
// the current chain.
type Recorder struct {
	storer Storer
	model  string
	head   *Node
}

// NewRecorder returns a Recorder with an empty chain.
func NewRecorder(storer Storer, model string) *Recorder {
	return &Recorder{storer: storer, model: model}
}

// Sync rebuilds the chain from turns, storing any node the archive lacks.
// It is used when a persisted transcript is loaded at startup.
func (r *Recorder) Sync(ctx context.Context, turns []transcript.Turn) error {
	r.head = nil
	return r.Record(ctx, turns...)
}

// Record appends turns to the current chain.
func (r *Recorder) Record(ctx context.Context, turns ...transcript.Turn) error {
	for _, turn := range turns {
		node := NewNode(Entry{Role: string(turn.Role), Content: turn.Content, Model: r.model}, r.head)
		if _, err := r.storer.Put(ctx, node); err != nil {
			return fmt.Errorf("archive %s turn: %w", turn.Role, err)
		}
		r.head = node
	}
	return nil
}

// Reset starts a new chain; the next recorded turn becomes a root.
func (r *Recorder) Reset() {
	r.head = nil
}

// Head returns the hash of the latest recorded node, or "" for an empty chain.
func (r *Recorder) Head() string {
	if r.head == nil {
		return ""
	}
	return r.head.Hash
}

// Storer returns the backing store.
func (r *Recorder) Storer() Storer {
	return r.storer
}
