package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zsprackett/claude-viz/internal/applog"
	"github.com/zsprackett/claude-viz/internal/hub"
	"github.com/zsprackett/claude-viz/internal/webserver"
)

var (
	servePort   int
	serveHost   string
	servePublic string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config and PORT)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().StringVar(&servePublic, "public", "", "Directory of static assets to serve instead of the built-in page")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the event feed server",
	Long:  "Accepts events on POST /event, keeps the most recent ones in memory, and streams them to WebSocket clients.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePublic != "" {
		cfg.Server.PublicDir = servePublic
	}

	logger, logCloser, err := applog.Init(applog.InitConfig{
		LogDir:   cfg.LogDir,
		LogLevel: cfg.LogLevel,
		Console:  true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not init log file: %v\n", err)
		logger, logCloser, _ = applog.Init(applog.InitConfig{LogLevel: cfg.LogLevel, Console: true})
	}
	defer logCloser.Close()

	h := hub.New(cfg.Server.HistorySize, hub.WithLogger(logger))
	srv := webserver.New(h, webserver.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		PublicDir: cfg.Server.PublicDir,
	}, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
