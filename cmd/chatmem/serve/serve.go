package servecmder

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatmem/cmd/chatmem/bootstrap"
	"github.com/papercomputeco/chatmem/pkg/logger"
	"github.com/papercomputeco/chatmem/server"
)

const serveLongDesc string = `Serve the conversation over HTTP.

POST a form field "message" to any path to run one turn; the reply is
JSON {"response": "..."}. GET requests serve files from the static
directory, with index.html at "/". Posting an exit command saves the
conversation and stops the server.

MCP clients can connect to /mcp and use the send_message and
clear_history tools.

Examples:
  chatmem serve
  chatmem serve --listen :8000 --static-dir ./web`

const serveShortDesc string = "Serve the conversation over HTTP"

type serveCommander struct {
	flags     *bootstrap.Flags
	listen    string
	staticDir string
}

func NewServeCmd(flags *bootstrap.Flags) *cobra.Command {
	cmder := &serveCommander{flags: flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default: localhost:8000)")
	cmd.Flags().StringVar(&cmder.staticDir, "static-dir", "", "Directory served for GET requests")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.flags.Load(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr = c.listen
	}
	if cmd.Flags().Changed("static-dir") {
		cfg.StaticDir = c.staticDir
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

	srv := server.New(server.Config{
		ListenAddr: cfg.ListenAddr,
		StaticDir:  cfg.StaticDir,
	}, app.Session, log)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			log.Info("interrupt received, shutting down")
			if err := srv.Shutdown(); err != nil {
				log.Error("shutdown failed", zap.Error(err))
			}
		case <-stopped:
		}
	}()

	return srv.Run()
}
