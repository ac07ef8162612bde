package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Persisted record types.
const (
	TypeHuman = "human"
	TypeAI    = "ai"
)

// Record is the persisted form of a single turn.
type Record struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Transcript is the chronological list of turns for a session.
// It is not safe for concurrent use; the owning session serializes access.
type Transcript struct {
	turns []Turn
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Load parses the persisted form. Records with an unknown type are skipped.
func Load(data []byte) (*Transcript, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &StoreCorruptError{Err: err}
	}

	t := New()
	for _, r := range records {
		switch r.Type {
		case TypeHuman:
			t.Append(Human(r.Content))
		case TypeAI:
			t.Append(Assistant(r.Content))
		}
	}
	return t, nil
}

// LoadFile reads the transcript at path. A missing file yields an empty
// transcript and no error.
func LoadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read transcript %s: %w", path, err)
	}

	t, err := Load(data)
	if err != nil {
		var corrupt *StoreCorruptError
		if errors.As(err, &corrupt) {
			corrupt.Path = path
		}
		return nil, err
	}
	return t, nil
}

// Append adds turn to the end of the transcript.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Clear drops every turn. It does not persist anything.
func (t *Transcript) Clear() {
	t.turns = nil
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the turns, oldest first.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Records projects the transcript onto its persisted form.
func (t *Transcript) Records() []Record {
	records := make([]Record, 0, len(t.turns))
	for _, turn := range t.turns {
		typ := TypeHuman
		if turn.Role == RoleAssistant {
			typ = TypeAI
		}
		records = append(records, Record{Type: typ, Content: turn.Content})
	}
	return records
}

// Serialize renders the persisted form as indented JSON.
func (t *Transcript) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(t.Records(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	return data, nil
}

// Save overwrites path with the serialized transcript.
func (t *Transcript) Save(path string) error {
	data, err := t.Serialize()
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}
