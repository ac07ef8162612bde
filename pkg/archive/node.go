// Package archive keeps an append-only, content-addressed record of every
// completed conversation turn. Each message is a Node whose hash covers its
// entry and its parent's hash, so identical conversation prefixes share
// nodes and a cleared transcript starts a new root.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Entry is the archived content of one message.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Node is a single archived message linked to the message before it.
type Node struct {
	// Hash is the SHA-256 (hex) of the entry and the parent hash.
	Hash string `json:"hash"`

	// ParentHash is nil for the first message of a conversation.
	ParentHash *string `json:"parent_hash"`

	Entry Entry `json:"entry"`
}

type hashInput struct {
	Entry  Entry  `json:"entry"`
	Parent string `json:"parent,omitempty"`
}

// NewNode creates a node for entry following parent (nil for a root).
func NewNode(entry Entry, parent *Node) *Node {
	n := &Node{Entry: entry}
	if parent != nil {
		h := parent.Hash
		n.ParentHash = &h
	}
	n.Hash = n.computeHash()
	return n
}

func (n *Node) computeHash() string {
	in := hashInput{Entry: n.Entry}
	if n.ParentHash != nil {
		in.Parent = *n.ParentHash
	}

	// Entry only holds strings, so marshalling cannot fail.
	data, _ := json.Marshal(in)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
