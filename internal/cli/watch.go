package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zsprackett/claude-viz/internal/applog"
	"github.com/zsprackett/claude-viz/internal/viewer"
)

var watchURL string

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Feed WebSocket URL (default ws://localhost:<port>/ws)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live feed in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		url := watchURL
		if url == "" {
			url = fmt.Sprintf("ws://localhost:%d/ws", cfg.Server.Port)
		}

		logger, logCloser, err := applog.Init(applog.InitConfig{LogDir: cfg.LogDir, LogLevel: cfg.LogLevel})
		if err != nil {
			logger = applog.Discard()
		} else {
			defer logCloser.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return viewer.New(url, logger).Run(ctx)
	},
}
