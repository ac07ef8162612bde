package session

import "strings"

// Kind classifies one line of user input.
type Kind int

const (
	KindEmpty Kind = iota
	KindMessage
	KindClear
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindMessage:
		return "message"
	case KindClear:
		return "clear"
	case KindExit:
		return "exit"
	default:
		return "unknown"
	}
}

var exitKeywords = map[string]bool{
	"exit": true,
	"quit": true,
	"bye":  true,
	"bye!": true,
}

// Classify decides what input asks for. Keywords match case-insensitively
// after trimming surrounding whitespace.
func Classify(input string) Kind {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch {
	case normalized == "":
		return KindEmpty
	case exitKeywords[normalized]:
		return KindExit
	case normalized == "clear":
		return KindClear
	default:
		return KindMessage
	}
}
