// Package viewer is a terminal client for the live feed. It renders the
// history frame, then appends each live event as it arrives.
package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"

	"github.com/zsprackett/claude-viz/internal/events"
)

// maxLines bounds the scrollback kept in the view.
const maxLines = 1000

var kindColors = map[events.Kind]string{
	events.KindToolStart:    "yellow",
	events.KindToolEnd:      "green",
	events.KindPrompt:       "blue",
	events.KindStop:         "purple",
	events.KindNotification: "orange",
	events.KindCompact:      "teal",
	events.KindOther:        "gray",
}

// FormatLine renders e as one tview-tagged line, with its age relative to now.
func FormatLine(e events.Event, now time.Time) string {
	age := humanize.RelTime(time.UnixMilli(e.Timestamp), now, "ago", "from now")
	color := kindColors[e.Kind()]
	if end, ok := e.Payload.(events.ToolEnd); ok && !end.Success {
		color = "red"
	}
	return fmt.Sprintf("[gray]%-16s[-] [%s]%-12s[-] %s [gray](%s)[-]",
		age, color, e.Kind(), tview.Escape(Describe(e)), tview.Escape(shortSession(e.SessionID)))
}

// shortSession keeps the first eight characters of a session id.
func shortSession(id string) string {
	if utf8.RuneCountInString(id) <= 8 {
		return id
	}
	return string([]rune(id)[:8])
}

// Describe is the plain-text summary of an event's payload.
func Describe(e events.Event) string {
	switch p := e.Payload.(type) {
	case events.ToolStart:
		return strings.TrimSpace(p.Tool + " " + inputDetail(p.ToolInput))
	case events.ToolEnd:
		status := "ok"
		if !p.Success {
			status = "failed"
		}
		if p.Duration != nil {
			return fmt.Sprintf("%s %s in %s", p.Tool, status, time.Duration(*p.Duration*float64(time.Millisecond)))
		}
		return p.Tool + " " + status
	case events.Prompt:
		return fmt.Sprintf("%q (%s chars)", p.Preview, humanize.Comma(int64(p.Length)))
	case events.Stop:
		if p.IsSubagent {
			return "subagent stopped"
		}
		return "stopped"
	case events.Notification:
		if p.Message != nil {
			return *p.Message
		}
		return ""
	case events.Compact:
		return "compaction (" + p.Trigger + ")"
	}
	return e.HookType
}

func inputDetail(input map[string]string) string {
	for _, k := range []string{"command", "file_path", "pattern", "query", "url", "description", "prompt"} {
		if v, ok := input[k]; ok {
			return v
		}
	}
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		return input[keys[0]]
	}
	return ""
}

type Viewer struct {
	url    string
	logger *slog.Logger
	app    *tview.Application
	view   *tview.TextView
	status *tview.TextView
	lines  []string
}

func New(url string, logger *slog.Logger) *Viewer {
	v := &Viewer{
		url:    url,
		logger: logger,
		app:    tview.NewApplication(),
	}
	v.view = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	v.view.SetBorder(true).SetTitle(" claude-viz ")
	v.status = tview.NewTextView().SetDynamicColors(true)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.view, 0, 1, true).
		AddItem(v.status, 1, 0, false)
	v.app.SetRoot(layout, true)
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			v.app.Stop()
			return nil
		}
		return event
	})
	return v
}

// Run connects to the feed and blocks until the user quits, ctx is
// cancelled, or the connection drops.
func (v *Viewer) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, v.url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", v.url, err)
	}
	defer conn.Close()

	v.setStatus("[green]live[-] " + v.url + "  [gray]q to quit[-]")
	go func() {
		<-ctx.Done()
		v.app.Stop()
	}()
	go v.readLoop(conn)

	return v.app.Run()
}

func (v *Viewer) readLoop(conn *websocket.Conn) {
	for {
		var msg events.Message
		if err := conn.ReadJSON(&msg); err != nil {
			v.logger.Debug("feed read", "err", err)
			v.setStatus("[red]disconnected[-] " + v.url + "  [gray]q to quit[-]")
			return
		}
		v.app.QueueUpdateDraw(func() {
			v.apply(msg, time.Now())
		})
	}
}

// apply updates the scrollback with one frame. Must run on the UI goroutine.
func (v *Viewer) apply(msg events.Message, now time.Time) {
	switch msg.Type {
	case events.MessageHistory:
		v.lines = v.lines[:0]
		for _, e := range msg.Events {
			v.lines = append(v.lines, FormatLine(e, now))
		}
	case events.MessageEvent:
		v.lines = append(v.lines, FormatLine(msg.Event, now))
	}
	if len(v.lines) > maxLines {
		v.lines = v.lines[len(v.lines)-maxLines:]
	}
	v.view.SetText(strings.Join(v.lines, "\n"))
	v.view.ScrollToEnd()
}

func (v *Viewer) setStatus(text string) {
	v.app.QueueUpdateDraw(func() {
		v.status.SetText(text)
	})
}
