package historycmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatmem/cmd/chatmem/bootstrap"
	"github.com/papercomputeco/chatmem/pkg/transcript"
)

const historyLongDesc string = `Print the persisted conversation.

Reads the transcript file without contacting the inference engine.

Examples:
  chatmem history
  chatmem history --json
  chatmem history --transcript ./other.json`

const historyShortDesc string = "Print the saved conversation"

type historyCommander struct {
	flags  *bootstrap.Flags
	asJSON bool
}

func NewHistoryCmd(flags *bootstrap.Flags) *cobra.Command {
	cmder := &historyCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the stored records as JSON")

	return cmd
}

func (c *historyCommander) run(_ context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Load(cmd)
	if err != nil {
		return err
	}

	t, err := transcript.LoadFile(cfg.TranscriptPath)
	if err != nil {
		return fmt.Errorf("could not read conversation: %w", err)
	}

	out := cmd.OutOrStdout()

	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Records())
	}

	if t.Len() == 0 {
		fmt.Fprintln(out, "No saved conversation.")
		return nil
	}

	for _, turn := range t.Turns() {
		label := "You"
		if turn.Role == transcript.RoleAssistant {
			label = "AI"
		}
		fmt.Fprintf(out, "%s: %s\n\n", label, turn.Content)
	}
	fmt.Fprintf(out, "%d turns in %s\n", t.Len(), cfg.TranscriptPath)
	return nil
}
