package events

import (
	"encoding/json"
	"fmt"
)

// MessageType distinguishes the two frames pushed to live subscribers.
type MessageType string

const (
	MessageHistory MessageType = "history"
	MessageEvent   MessageType = "event"
)

// Message is a frame pushed to a subscriber: either the full history
// snapshot sent on join, or a single live event.
type Message struct {
	Type   MessageType
	Events []Event // history frames only
	Event  Event   // event frames only
}

// HistoryMessage builds the join-time snapshot frame.
func HistoryMessage(snapshot []Event) Message {
	return Message{Type: MessageHistory, Events: snapshot}
}

// EventMessage builds a live event frame.
func EventMessage(e Event) Message {
	return Message{Type: MessageEvent, Event: e}
}

type historyFrame struct {
	Type   MessageType `json:"type"`
	Events []Event     `json:"events"`
}

type eventFrame struct {
	Type  MessageType `json:"type"`
	Event Event       `json:"event"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageHistory:
		evs := m.Events
		if evs == nil {
			evs = []Event{}
		}
		return json.Marshal(historyFrame{Type: m.Type, Events: evs})
	case MessageEvent:
		return json.Marshal(eventFrame{Type: m.Type, Event: m.Event})
	}
	return nil, fmt.Errorf("unknown message type %q", m.Type)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var frame struct {
		Type   MessageType     `json:"type"`
		Events []Event         `json:"events"`
		Event  json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	switch frame.Type {
	case MessageHistory:
		*m = HistoryMessage(frame.Events)
	case MessageEvent:
		e, err := Parse(frame.Event)
		if err != nil {
			return fmt.Errorf("event frame: %w", err)
		}
		*m = EventMessage(e)
	default:
		return fmt.Errorf("unknown message type %q", frame.Type)
	}
	return nil
}
