package chatcmder

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/cmd/chatmem/bootstrap"
	"github.com/papercomputeco/chatmem/pkg/console"
	"github.com/papercomputeco/chatmem/pkg/logger"
)

const chatLongDesc string = `Start an interactive conversation in the terminal.

The previous conversation is loaded from the transcript file and every
reply is saved back to it. Replies are rendered as markdown when stdout
is a terminal.

Examples:
  chatmem chat
  chatmem chat --model llama3 --transcript ~/notes/chat.json`

const chatShortDesc string = "Chat in the terminal"

type chatCommander struct {
	flags      *bootstrap.Flags
	noMarkdown bool
}

func NewChatCmd(flags *bootstrap.Flags) *cobra.Command {
	cmder := &chatCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.noMarkdown, "no-markdown", false, "Print replies as plain text")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Load(cmd)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Debug)
	defer func() { _ = log.Sync() }()

	app, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("could not close archive", zap.Error(err))
		}
	}()

	term := console.New(app.Session, cmd.InOrStdin(), cmd.OutOrStdout(), console.Options{
		Markdown: cfg.RenderMarkdown && !c.noMarkdown,
	})
	return term.Run(ctx)
}
