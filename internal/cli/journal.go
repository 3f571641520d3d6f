package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zsprackett/claude-viz/internal/db"
	"github.com/zsprackett/claude-viz/internal/viewer"
)

var (
	journalSession string
	journalLimit   int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().StringVar(&journalSession, "session", "", "Only show events from this session")
	journalCmd.Flags().IntVar(&journalLimit, "limit", 50, "Number of most recent events to show")
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print recent events from the local journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.JournalPath()
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("no journal at %s: %w", path, err)
		}
		store, err := db.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(); err != nil {
			return err
		}
		return printJournal(cmd.OutOrStdout(), store, journalSession, journalLimit, time.Now())
	},
}

func printJournal(out io.Writer, store *db.DB, session string, limit int, now time.Time) error {
	evs, err := store.RecentEvents(session, limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(evs) == 0 {
		fmt.Fprintln(out, "no events")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			humanize.RelTime(time.UnixMilli(e.Timestamp), now, "ago", "from now"),
			e.SessionID, e.Kind(), viewer.Describe(e))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if last := store.LastModified(); !last.IsZero() {
		fmt.Fprintf(out, "\n%s events shown, last write %s\n",
			humanize.Comma(int64(len(evs))), humanize.RelTime(last, now, "ago", "from now"))
	}
	return nil
}
