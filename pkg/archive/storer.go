package archive

import "context"

// Storer persists archived nodes.
type Storer interface {
	// Put stores a node and reports whether it was new. Storing a node that
	// already exists is a no-op.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get returns the node for hash, or ErrNotFound.
	Get(ctx context.Context, hash string) (*Node, error)

	// List returns every node in insertion order.
	List(ctx context.Context) ([]*Node, error)

	// Roots returns nodes without a parent.
	Roots(ctx context.Context) ([]*Node, error)

	// Leaves returns nodes without children.
	Leaves(ctx context.Context) ([]*Node, error)

	// Close releases the backend.
	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "node not found"
	}
	return "node not found: " + e.Hash
}

// Ancestry returns the chain from hash back to its root (newest first).
func Ancestry(ctx context.Context, s Storer, hash string) ([]*Node, error) {
	var chain []*Node
	for {
		node, err := s.Get(ctx, hash)
		if err != nil {
			return nil, err
		}
		chain = append(chain, node)
		if node.ParentHash == nil {
			return chain, nil
		}
		hash = *node.ParentHash
	}
}

// History returns the chain from the root to hash (oldest first).
func History(ctx context.Context, s Storer, hash string) ([]*Node, error) {
	chain, err := Ancestry(ctx, s, hash)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
