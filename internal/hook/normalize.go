// Package hook turns a raw Claude Code hook notification into a normalized
// event, journals it, and forwards it to the feed server. Nothing here may
// ever fail the agent that invoked the hook.
package hook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zsprackett/claude-viz/internal/events"
)

const (
	maxPreview    = 100
	maxInputValue = 100
)

// Notification is the JSON object a hook receives on stdin.
type Notification struct {
	SessionID     string          `json:"session_id"`
	Cwd           string          `json:"cwd"`
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	ToolInput     json.RawMessage `json:"tool_input"`
	ToolResponse  json.RawMessage `json:"tool_response"`
	Prompt        string          `json:"prompt"`
	Message       *string         `json:"message"`
	Trigger       string          `json:"trigger"`
}

// summaryKeys lists the tool_input keys that survive summarization, with
// their length caps.
var summaryKeys = []struct {
	key   string
	limit int
}{
	{"file_path", maxInputValue},
	{"command", 50},
	{"pattern", maxInputValue},
	{"query", 50},
	{"url", maxInputValue},
	{"prompt", 50},
	{"subagent_type", maxInputValue},
	{"description", maxInputValue},
}

// Normalize maps n to exactly one event stamped with now.
func Normalize(n Notification, now time.Time) events.Event {
	ts := now.UnixMilli()
	sessionID := orDefault(n.SessionID, "unknown")
	e := events.Event{
		ID:        fmt.Sprintf("%s-%d-%s", sessionID, ts, randomSuffix()),
		Timestamp: ts,
		SessionID: sessionID,
		Cwd:       n.Cwd,
		HookType:  orDefault(n.HookEventName, "unknown"),
	}

	switch n.HookEventName {
	case "PreToolUse":
		e.Payload = events.ToolStart{
			Tool:      orDefault(n.ToolName, "unknown"),
			ToolInput: SummarizeInput(n.ToolInput),
		}
	case "PostToolUse":
		var resp struct {
			Success    *bool    `json:"success"`
			DurationMs *float64 `json:"duration_ms"`
		}
		// tool_response is not always an object; anything else reads as success.
		_ = json.Unmarshal(n.ToolResponse, &resp)
		e.Payload = events.ToolEnd{
			Tool:     orDefault(n.ToolName, "unknown"),
			Success:  resp.Success == nil || *resp.Success,
			Duration: resp.DurationMs,
		}
	case "UserPromptSubmit":
		e.Payload = events.Prompt{
			Length:  utf8.RuneCountInString(n.Prompt),
			Preview: truncate(n.Prompt, maxPreview),
		}
	case "Stop", "SubagentStop":
		e.Payload = events.Stop{IsSubagent: n.HookEventName == "SubagentStop"}
	case "Notification":
		e.Payload = events.Notification{Message: n.Message}
	case "PreCompact":
		e.Payload = events.Compact{Trigger: orDefault(n.Trigger, "unknown")}
	default:
		e.Payload = events.Other{}
	}
	return e
}

// SummarizeInput keeps only whitelisted string fields of a tool input,
// each truncated. It never returns nil.
func SummarizeInput(raw json.RawMessage) map[string]string {
	summary := map[string]string{}
	var input map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &input) != nil {
		return summary
	}
	for _, k := range summaryKeys {
		s, ok := input[k.key].(string)
		if !ok || s == "" {
			continue
		}
		summary[k.key] = truncate(s, k.limit)
	}
	return summary
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
