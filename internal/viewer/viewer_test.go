package viewer

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/zsprackett/claude-viz/internal/applog"
	"github.com/zsprackett/claude-viz/internal/events"
)

func TestDescribe(t *testing.T) {
	dur := 1500.0
	msg := "waiting for input"
	cases := []struct {
		payload events.Payload
		want    string
	}{
		{events.ToolStart{Tool: "Bash", ToolInput: map[string]string{"command": "go test ./..."}}, "Bash go test ./..."},
		{events.ToolStart{Tool: "Task", ToolInput: map[string]string{"subagent_type": "general-purpose"}}, "Task general-purpose"},
		{events.ToolStart{Tool: "TodoWrite"}, "TodoWrite"},
		{events.ToolEnd{Tool: "Bash", Success: true, Duration: &dur}, "Bash ok in 1.5s"},
		{events.ToolEnd{Tool: "Bash", Success: false}, "Bash failed"},
		{events.Prompt{Length: 12345, Preview: "refactor"}, `"refactor" (12,345 chars)`},
		{events.Stop{IsSubagent: true}, "subagent stopped"},
		{events.Notification{Message: &msg}, "waiting for input"},
		{events.Compact{Trigger: "auto"}, "compaction (auto)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Describe(events.Event{Payload: tc.payload}))
	}
	assert.Equal(t, "SessionStart", Describe(events.Event{HookType: "SessionStart", Payload: events.Other{}}))
}

func TestFormatLine(t *testing.T) {
	now := time.UnixMilli(1_700_000_060_000)
	e := events.Event{
		Timestamp: 1_700_000_000_000,
		SessionID: "0123456789abcdef",
		Payload:   events.ToolEnd{Tool: "Edit", Success: false},
	}
	line := FormatLine(e, now)
	assert.Contains(t, line, "1 minute ago")
	assert.Contains(t, line, "[red]")
	assert.Contains(t, line, "(01234567)")
	assert.NotContains(t, line, "89abcdef")
}

func TestFormatLineMultibyteSession(t *testing.T) {
	e := events.Event{SessionID: "セッション識別子とその後", Payload: events.Stop{}}
	line := FormatLine(e, time.Now())
	assert.True(t, utf8.ValidString(line))
	assert.Contains(t, line, "(セッション識別子)")
	assert.Equal(t, "abc", shortSession("abc"))
}

func TestApplyHistoryThenEvents(t *testing.T) {
	v := New("ws://localhost:4242/ws", applog.Discard())
	now := time.Now()

	hist := make([]events.Event, 3)
	for i := range hist {
		hist[i] = events.Event{Timestamp: now.UnixMilli(), HookType: fmt.Sprintf("H%d", i), Payload: events.Other{}}
	}
	v.apply(events.HistoryMessage(hist), now)
	assert.Len(t, v.lines, 3)

	v.apply(events.EventMessage(events.Event{Timestamp: now.UnixMilli(), Payload: events.Stop{}}), now)
	assert.Len(t, v.lines, 4)
	assert.Contains(t, v.lines[3], "stopped")

	// A new history frame (reconnect) replaces the scrollback.
	v.apply(events.HistoryMessage(nil), now)
	assert.Empty(t, v.lines)
}

func TestApplyBoundsScrollback(t *testing.T) {
	v := New("ws://localhost:4242/ws", applog.Discard())
	now := time.Now()
	for i := 0; i < maxLines+50; i++ {
		v.apply(events.EventMessage(events.Event{Timestamp: now.UnixMilli(), HookType: fmt.Sprintf("E%d", i), Payload: events.Other{}}), now)
	}
	assert.Len(t, v.lines, maxLines)
	assert.True(t, strings.Contains(v.lines[len(v.lines)-1], fmt.Sprintf("E%d", maxLines+49)))
}
