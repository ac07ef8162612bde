// Package prompt turns a transcript and a new user message into the ordered
// message list sent to the inference gateway.
package prompt

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig"

	"github.com/papercomputeco/chatmem/pkg/llm"
	"github.com/papercomputeco/chatmem/pkg/transcript"
)

// DefaultSystemInstruction is used when no instruction is configured.
const DefaultSystemInstruction = "You are an AI assistant, designed to reply to prompts by the user"

// TemplateData is available to the system instruction template.
type TemplateData struct {
	Model string
	Turns int
}

// Assembler builds prompts around a system instruction. The instruction may be
// a text/template using sprig functions; it can be replaced at runtime with
// SetInstruction, for example by a file watcher.
type Assembler struct {
	model string

	mu   sync.RWMutex
	raw  string
	tmpl *template.Template
}

// NewAssembler returns an Assembler for the given instruction. An invalid
// template is reported but the assembler is still usable with the raw text.
func NewAssembler(model, instruction string) (*Assembler, error) {
	a := &Assembler{model: model}
	return a, a.SetInstruction(instruction)
}

// SetInstruction replaces the system instruction.
func (a *Assembler) SetInstruction(instruction string) error {
	tmpl, err := template.New("system").Funcs(sprig.TxtFuncMap()).Parse(instruction)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.raw = instruction
	if err != nil {
		a.tmpl = nil
		return fmt.Errorf("parse system instruction template: %w", err)
	}
	a.tmpl = tmpl
	return nil
}

// Instruction renders the system instruction for a transcript of n turns.
// Rendering failures fall back to the raw instruction text.
func (a *Assembler) Instruction(n int) string {
	a.mu.RLock()
	raw, tmpl := a.raw, a.tmpl
	a.mu.RUnlock()

	if tmpl == nil {
		return raw
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, TemplateData{Model: a.model, Turns: n}); err != nil {
		return raw
	}
	return buf.String()
}

// Assemble returns [system] + history (oldest first) + [input as user].
// The transcript is read, never modified.
func (a *Assembler) Assemble(t *transcript.Transcript, input string) []llm.Message {
	turns := t.Turns()

	messages := make([]llm.Message, 0, len(turns)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.Instruction(len(turns))})
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: wireRole(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})

	return messages
}

func wireRole(r transcript.Role) string {
	if r == transcript.RoleAssistant {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}
