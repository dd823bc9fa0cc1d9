package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vedsharma/momentscli/internal/format"
	httpclient "github.com/vedsharma/momentscli/internal/http"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/server"
	"github.com/vedsharma/momentscli/internal/session"
	"github.com/vedsharma/momentscli/internal/storage"
	"go.uber.org/zap"
)

var (
	serveAddr      string
	serveAccessLog bool
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser portal",
		Long: `Start the API explorer and the Moments showcase as a local web portal.

The explorer is served at / and the showcase at /showcase.`,
		Args: cobra.NoArgs,
		Run:  runServe,
	}

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config server.host:server.port)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", false, "Log every request to stderr")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	var opts []session.Option
	if cfg.History.Enabled {
		store, err := storage.NewStorage(cfg.History.Limit)
		if err != nil {
			logger.Warn("history unavailable", zap.Error(err))
		} else {
			defer store.Close()
			opts = append(opts, session.WithRecorder(storage.NewRecorder(store)))
		}
	}
	state := session.New(endpoints, httpclient.NewClient(), opts...)

	sc := server.DefaultConfig()
	sc.Address = cfg.Addr()
	if serveAddr != "" {
		sc.Address = serveAddr
	}
	sc.AccessLog = serveAccessLog
	sc.SDK = cfg.SDKSettings()

	srv, err := server.NewServer(state, sc)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to start portal: %v", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format.PrintSuccess(fmt.Sprintf("Portal running at http://%s (Ctrl+C to stop)", sc.Address))
	if err := srv.StartWithContext(ctx); err != nil {
		format.PrintError(fmt.Sprintf("Portal stopped: %v", err))
		os.Exit(1)
	}
}
