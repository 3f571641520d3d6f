package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsprackett/claude-viz/internal/db"
	"github.com/zsprackett/claude-viz/internal/events"
)

func memoryJournal(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

func TestPrintJournal(t *testing.T) {
	store := memoryJournal(t)
	now := time.UnixMilli(1_700_000_300_000)
	require.NoError(t, store.AppendEvent(events.Event{ID: "a", Timestamp: 1_700_000_000_000, SessionID: "sess-a",
		Payload: events.ToolStart{Tool: "Bash", ToolInput: map[string]string{"command": "make"}}}))
	require.NoError(t, store.AppendEvent(events.Event{ID: "b", Timestamp: 1_700_000_200_000, SessionID: "sess-b",
		Payload: events.Stop{IsSubagent: true}}))

	var out strings.Builder
	require.NoError(t, printJournal(&out, store, "", 10, now))
	got := out.String()
	for _, want := range []string{"5 minutes ago", "sess-a", "Bash make", "subagent stopped", "2 events shown"} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, strings.Index(got, "Bash make"), strings.Index(got, "subagent stopped"), "oldest event first")

	out.Reset()
	require.NoError(t, printJournal(&out, store, "sess-b", 10, now))
	assert.NotContains(t, out.String(), "sess-a")
	assert.Contains(t, out.String(), "1 events shown")
}

func TestPrintJournalEmpty(t *testing.T) {
	store := memoryJournal(t)
	var out strings.Builder
	require.NoError(t, printJournal(&out, store, "", 10, time.Now()))
	assert.Equal(t, "no events", strings.TrimSpace(out.String()))
}
