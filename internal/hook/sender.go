package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zsprackett/claude-viz/internal/events"
)

// Sender posts events to the feed server on a best-effort basis.
type Sender struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewSender(url string, timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Send delivers e within the client timeout. Failures are logged and
// otherwise ignored; the caller's control flow never depends on them.
func (s *Sender) Send(ctx context.Context, e events.Event) {
	if err := s.post(ctx, e); err != nil {
		s.logger.Debug("send event", "id", e.ID, "url", s.url, "err", err)
	}
}

func (s *Sender) post(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server responded %s", resp.Status)
	}
	return nil
}
