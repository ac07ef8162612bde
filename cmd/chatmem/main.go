package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatmem/cmd/chatmem/bootstrap"
	chatcmder "github.com/papercomputeco/chatmem/cmd/chatmem/chat"
	historycmder "github.com/papercomputeco/chatmem/cmd/chatmem/history"
	servecmder "github.com/papercomputeco/chatmem/cmd/chatmem/serve"
)

const rootLongDesc string = `chatmem is a chat front-end for a local language model that remembers.

Every exchange is saved to a JSON transcript and sent back to the model
with the next message, so a conversation survives restarts.

Type "clear" to forget the conversation and "exit", "quit" or "bye" to
save and leave.`

func newRootCmd() *cobra.Command {
	flags := &bootstrap.Flags{}

	cmd := &cobra.Command{
		Use:           "chatmem",
		Short:         "Chat with a local model that remembers the conversation",
		Long:          rootLongDesc,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags.Register(cmd)

	cmd.AddCommand(chatcmder.NewChatCmd(flags))
	cmd.AddCommand(servecmder.NewServeCmd(flags))
	cmd.AddCommand(historycmder.NewHistoryCmd(flags))

	return cmd
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		bootstrap.Report(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
