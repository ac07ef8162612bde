package transcript

import "fmt"

// StoreCorruptError is returned when persisted data cannot be parsed as a
// transcript.
type StoreCorruptError struct {
	Path string
	Err  error
}

func (e *StoreCorruptError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("corrupt transcript: %v", e.Err)
	}
	return fmt.Sprintf("corrupt transcript %s: %v", e.Path, e.Err)
}

func (e *StoreCorruptError) Unwrap() error { return e.Err }

// PersistenceError is returned when the transcript cannot be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not save transcript to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
