// Package console drives a session from a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/papercomputeco/chatmem/pkg/session"
)

const (
	banner       = "🧠 AI with memory (Ctrl+C to exit)"
	exitNotice   = "Saving conversation and exiting... 🐾"
	goodbye      = "Goodbye!"
	maxLineBytes = 1 << 20
)

// Options tunes terminal output.
type Options struct {
	// Markdown renders replies with glamour when out is a terminal.
	Markdown bool
}

// Console reads user lines from in and writes replies to out.
type Console struct {
	session *session.Session
	in      io.Reader
	out     io.Writer

	styled   bool
	you      lipgloss.Style
	ai       lipgloss.Style
	failure  lipgloss.Style
	markdown *glamour.TermRenderer
}

// New returns a Console. Styling and markdown are only enabled when out is
// a terminal; otherwise output is plain text.
func New(s *session.Session, in io.Reader, out io.Writer, opts Options) *Console {
	renderer := lipgloss.NewRenderer(out)

	width, tty := terminalWidth(out)
	if !tty {
		renderer.SetColorProfile(termenv.Ascii)
	}

	c := &Console{
		session: s,
		in:      in,
		out:     out,
		styled:  tty,
		you:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ai:      renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		failure: renderer.NewStyle().Foreground(lipgloss.Color("9")),
	}

	if tty && opts.Markdown {
		md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
		if err == nil {
			c.markdown = md
		}
	}

	return c
}

func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	return width, true
}

// Run loops until an exit command, end of input, or ctx is cancelled (the
// interrupt path). Both non-command endings perform a final save.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintf(c.out, "%s\n\n", banner)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go c.readLines(lines, done)

	for {
		fmt.Fprint(c.out, c.paint(c.you, "You:")+" ")

		var line string
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case l, ok := <-lines:
			if !ok {
				c.shutdown()
				return nil
			}
			line = l
		}

		outcome := c.session.Handle(ctx, line)
		if ctx.Err() != nil {
			c.shutdown()
			return nil
		}
		if stop := c.report(outcome); stop {
			return nil
		}
	}
}

func (c *Console) readLines(lines chan<- string, done <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			return
		}
	}
}

// report prints the outcome of one turn and says whether the loop is over.
func (c *Console) report(outcome session.Outcome) bool {
	switch outcome.Kind {
	case session.KindEmpty:
		return false

	case session.KindExit:
		fmt.Fprintln(c.out, exitNotice)
		c.reportSave(outcome.SaveErr)
		return true

	case session.KindClear:
		fmt.Fprintln(c.out, session.ClearedMessage)
		c.reportSave(outcome.SaveErr)
		return false
	}

	if outcome.Err != nil {
		fmt.Fprintf(c.out, "%s\n\n", c.paint(c.failure, "Error during conversation: "+outcome.Err.Error()))
		return false
	}

	fmt.Fprintf(c.out, "%s %s\n\n", c.paint(c.ai, "AI:"), c.render(outcome.Reply))
	c.reportSave(outcome.SaveErr)
	return false
}

func (c *Console) paint(style lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return style.Render(text)
}

func (c *Console) render(reply string) string {
	if c.markdown == nil {
		return reply
	}
	rendered, err := c.markdown.Render(reply)
	if err != nil {
		return reply
	}
	return strings.TrimSpace(rendered)
}

func (c *Console) reportSave(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "%s\n", c.paint(c.failure, "Error saving memory: "+err.Error()))
	}
}

func (c *Console) shutdown() {
	fmt.Fprintf(c.out, "\n%s\n", exitNotice)
	c.session.Stop()
	c.reportSave(c.session.Save())
	fmt.Fprintln(c.out, goodbye)
}
