package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the normalized event category carried in the "type" field.
type Kind string

const (
	KindToolStart    Kind = "tool_start"
	KindToolEnd      Kind = "tool_end"
	KindPrompt       Kind = "prompt"
	KindStop         Kind = "stop"
	KindNotification Kind = "notification"
	KindCompact      Kind = "compact"
	KindOther        Kind = "other"
)

// ErrNotObject is returned by Parse when the payload is valid JSON but not an object.
var ErrNotObject = errors.New("event payload is not a JSON object")

// Payload is the variant part of an Event. Exactly one implementation is
// attached to every event; the set is closed to this package.
type Payload interface {
	Kind() Kind
	isPayload()
}

type ToolStart struct {
	Tool      string
	ToolInput map[string]string
}

type ToolEnd struct {
	Tool    string
	Success bool
	// Duration is the tool's reported run time in milliseconds, nil when unknown.
	Duration *float64
}

type Prompt struct {
	Length  int
	Preview string
}

type Stop struct {
	IsSubagent bool
}

type Notification struct {
	// Message is nil when the source notification carried none.
	Message *string
}

type Compact struct {
	Trigger string
}

type Other struct{}

func (ToolStart) Kind() Kind    { return KindToolStart }
func (ToolEnd) Kind() Kind      { return KindToolEnd }
func (Prompt) Kind() Kind       { return KindPrompt }
func (Stop) Kind() Kind         { return KindStop }
func (Notification) Kind() Kind { return KindNotification }
func (Compact) Kind() Kind      { return KindCompact }
func (Other) Kind() Kind        { return KindOther }

func (ToolStart) isPayload()    {}
func (ToolEnd) isPayload()      {}
func (Prompt) isPayload()       {}
func (Stop) isPayload()         {}
func (Notification) isPayload() {}
func (Compact) isPayload()      {}
func (Other) isPayload()        {}

// Event is a normalized record of one agent lifecycle notification.
// Events are immutable once built or parsed.
type Event struct {
	ID        string
	Timestamp int64 // ms since epoch, producer clock
	SessionID string
	Cwd       string
	HookType  string
	Payload   Payload

	// raw holds the bytes an ingested event arrived with, so that it is
	// re-emitted exactly as received.
	raw []byte
}

// Kind returns the event's discriminant. Events without a payload are KindOther.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return KindOther
	}
	return e.Payload.Kind()
}

// Label is a short human description: the tool name for tool events,
// otherwise the raw hook type.
func (e Event) Label() string {
	switch p := e.Payload.(type) {
	case ToolStart:
		return p.Tool
	case ToolEnd:
		return p.Tool
	}
	return e.HookType
}

// wireEvent is the flat JSON shape of an Event. Variant fields are pointers
// so that fields absent for a variant are omitted rather than zero-filled.
type wireEvent struct {
	ID            string             `json:"id"`
	Timestamp     int64              `json:"timestamp"`
	SessionID     string             `json:"sessionId"`
	Cwd           string             `json:"cwd"`
	HookType      string             `json:"hookType"`
	Type          Kind               `json:"type"`
	Tool          *string            `json:"tool,omitempty"`
	ToolInput     *map[string]string `json:"toolInput,omitempty"`
	Success       *bool              `json:"success,omitempty"`
	Duration      *float64           `json:"duration,omitempty"`
	PromptLength  *int               `json:"promptLength,omitempty"`
	PromptPreview *string            `json:"promptPreview,omitempty"`
	IsSubagent    *bool              `json:"isSubagent,omitempty"`
	Message       *string            `json:"message,omitempty"`
	Trigger       *string            `json:"trigger,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	w := wireEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		SessionID: e.SessionID,
		Cwd:       e.Cwd,
		HookType:  e.HookType,
		Type:      e.Kind(),
	}
	switch p := e.Payload.(type) {
	case ToolStart:
		input := p.ToolInput
		if input == nil {
			input = map[string]string{}
		}
		w.Tool = &p.Tool
		w.ToolInput = &input
	case ToolEnd:
		w.Tool = &p.Tool
		w.Success = &p.Success
		w.Duration = p.Duration
	case Prompt:
		w.PromptLength = &p.Length
		w.PromptPreview = &p.Preview
	case Stop:
		w.IsSubagent = &p.IsSubagent
	case Notification:
		w.Message = p.Message
	case Compact:
		w.Trigger = &p.Trigger
	}
	return json.Marshal(w)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Parse decodes an event record. The record must be a JSON object; any
// other input is an error. Fields are matched by exact name and a field
// holding an unexpected JSON type reads as absent, so an unrecognized,
// absent or mistyped "type" yields an Other payload. Invalid UTF-8 is
// replaced with U+FFFD. The returned event keeps a private copy of the
// cleaned bytes and marshals back to them verbatim.
func Parse(data []byte) (Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return Event{}, fmt.Errorf("parse event: invalid JSON")
		}
		return Event{}, ErrNotObject
	}
	clean := bytes.ToValidUTF8(trimmed, []byte("\uFFFD"))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(clean, &fields); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	e := Event{
		ID:        field[string](fields, "id"),
		Timestamp: field[int64](fields, "timestamp"),
		SessionID: field[string](fields, "sessionId"),
		Cwd:       field[string](fields, "cwd"),
		HookType:  field[string](fields, "hookType"),
		Payload:   payloadFromFields(fields),
		raw:       clean,
	}
	return e, nil
}

func payloadFromFields(fields map[string]json.RawMessage) Payload {
	switch Kind(field[string](fields, "type")) {
	case KindToolStart:
		return ToolStart{
			Tool:      field[string](fields, "tool"),
			ToolInput: stringEntries(fields["toolInput"]),
		}
	case KindToolEnd:
		success := optional[bool](fields, "success")
		return ToolEnd{
			Tool:     field[string](fields, "tool"),
			Success:  success == nil || *success,
			Duration: optional[float64](fields, "duration"),
		}
	case KindPrompt:
		return Prompt{
			Length:  field[int](fields, "promptLength"),
			Preview: field[string](fields, "promptPreview"),
		}
	case KindStop:
		return Stop{IsSubagent: field[bool](fields, "isSubagent")}
	case KindNotification:
		return Notification{Message: optional[string](fields, "message")}
	case KindCompact:
		return Compact{Trigger: field[string](fields, "trigger")}
	}
	return Other{}
}

// optional decodes fields[key] into a T, or returns nil when the key is
// missing, null, or holds another JSON type.
func optional[T any](fields map[string]json.RawMessage, key string) *T {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	v := new(T)
	if json.Unmarshal(raw, v) != nil {
		return nil
	}
	return v
}

func field[T any](fields map[string]json.RawMessage, key string) T {
	if v := optional[T](fields, key); v != nil {
		return *v
	}
	var zero T
	return zero
}

// stringEntries keeps the string-valued members of a JSON object.
// It returns nil when raw is not an object.
func stringEntries(raw json.RawMessage) map[string]string {
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj == nil {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
		}
	}
	return out
}
