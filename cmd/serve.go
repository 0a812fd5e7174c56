package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-nfter-kit/internal/builder"
	"github.com/shouni/go-nfter-kit/internal/config"
	"github.com/shouni/go-nfter-kit/internal/server"

	"github.com/spf13/cobra"
)

// serveCmd はブラウザ向けの HTTP API サーバーを起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API サーバーを起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&opts.ListenAddr, "addr", config.DefaultListenAddr, "待ち受けアドレスなのだ。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	return server.NewServer(cfg, appCtx.Workflow, appCtx.HTTPClient()).Run(ctx)
}
