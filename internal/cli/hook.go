package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zsprackett/claude-viz/internal/applog"
	"github.com/zsprackett/claude-viz/internal/config"
	"github.com/zsprackett/claude-viz/internal/db"
	"github.com/zsprackett/claude-viz/internal/hook"
)

func init() {
	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle one Claude Code hook notification from stdin",
	Long: "Normalizes the hook notification on stdin, appends it to the local journal and " +
		"forwards it to the feed server. Always exits 0 so the agent is never disturbed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runHook(cmd.Context(), os.Stdin)
		return nil
	},
}

// runHook never reports failure: problems are written to the log file only.
func runHook(ctx context.Context, stdin *os.File) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Defaults()
	}

	logger, logCloser, err := applog.Init(applog.InitConfig{LogDir: cfg.LogDir, LogLevel: cfg.LogLevel})
	if err != nil {
		logger = applog.Discard()
	} else {
		defer logCloser.Close()
	}

	if term.IsTerminal(int(stdin.Fd())) {
		logger.Warn("hook invoked without piped input")
		return
	}

	var journal hook.Journal
	if store, err := openJournal(cfg.JournalPath()); err != nil {
		logger.Warn("open journal", "path", cfg.JournalPath(), "err", err)
	} else {
		defer store.Close()
		journal = store
	}

	sender := hook.NewSender(cfg.Hook.ServerURL, cfg.HookTimeout(), logger)
	e, err := hook.New(journal, sender, logger).Handle(ctx, stdin)
	if err != nil {
		logger.Warn("hook input", "err", err)
		return
	}
	logger.Debug("hook event", slog.String("id", e.ID), slog.String("type", string(e.Kind())))
}

func openJournal(path string) (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	store, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
