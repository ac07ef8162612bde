// Package transcript holds the ordered record of a conversation and its
// on-disk JSON form.
package transcript

// Role identifies who produced a Turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in the conversation. Turns are values and are never
// modified after creation.
type Turn struct {
	Role    Role
	Content string
}

// Human returns a turn spoken by the user.
func Human(content string) Turn {
	return Turn{Role: RoleHuman, Content: content}
}

// Assistant returns a turn produced by the model.
func Assistant(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
