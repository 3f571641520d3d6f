package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zsprackett/claude-viz/internal/events"
)

// maxInput bounds how much of stdin is read.
const maxInput = 4 << 20

// Journal is where normalized events are persisted locally.
type Journal interface {
	AppendEvent(e events.Event) error
}

// Hook handles one hook invocation.
type Hook struct {
	journal Journal // may be nil
	sender  *Sender
	logger  *slog.Logger
	now     func() time.Time
}

func New(journal Journal, sender *Sender, logger *slog.Logger) *Hook {
	return &Hook{journal: journal, sender: sender, logger: logger, now: time.Now}
}

// Handle reads one notification from r, journals the normalized event and
// forwards it. It returns an error only when the input cannot be decoded;
// journal and delivery failures are logged.
func (h *Hook) Handle(ctx context.Context, r io.Reader) (events.Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInput))
	if err != nil {
		return events.Event{}, fmt.Errorf("read notification: %w", err)
	}
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return events.Event{}, fmt.Errorf("decode notification: %w", err)
	}
	e := Normalize(n, h.now())

	if h.journal != nil {
		if err := h.journal.AppendEvent(e); err != nil {
			h.logger.Warn("journal event", "id", e.ID, "err", err)
		}
	}
	if h.sender != nil {
		h.sender.Send(ctx, e)
	}
	return e, nil
}
