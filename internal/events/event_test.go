package events_test

import (
	"encoding/json"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsprackett/claude-viz/internal/events"
)

func TestMarshalOmitsFieldsOfOtherVariants(t *testing.T) {
	e := events.Event{
		ID:        "s1-1700000000000-abc123",
		Timestamp: 1700000000000,
		SessionID: "s1",
		Cwd:       "/tmp/project",
		HookType:  "Stop",
		Payload:   events.Stop{IsSubagent: false},
	}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "stop", got["type"])
	assert.Equal(t, false, got["isSubagent"])
	for _, key := range []string{"tool", "toolInput", "success", "duration", "promptLength", "message", "trigger"} {
		assert.NotContains(t, got, key)
	}
}

func TestMarshalToolStartEmptyInput(t *testing.T) {
	e := events.Event{ID: "x", HookType: "PreToolUse", Payload: events.ToolStart{Tool: "Bash"}}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"toolInput":{}`)
	assert.Contains(t, string(data), `"tool":"Bash"`)
}

func TestMarshalToolEndUnknownDuration(t *testing.T) {
	e := events.Event{Payload: events.ToolEnd{Tool: "Read", Success: true}}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "duration")
	assert.Contains(t, string(data), `"success":true`)
}

func TestParseVariants(t *testing.T) {
	cases := []struct {
		body string
		want events.Payload
	}{
		{`{"type":"tool_start","tool":"Bash","toolInput":{"command":"ls"}}`,
			events.ToolStart{Tool: "Bash", ToolInput: map[string]string{"command": "ls"}}},
		{`{"type":"tool_end","tool":"Bash","success":false}`,
			events.ToolEnd{Tool: "Bash", Success: false}},
		{`{"type":"prompt","promptLength":5,"promptPreview":"hello"}`,
			events.Prompt{Length: 5, Preview: "hello"}},
		{`{"type":"stop","isSubagent":true}`, events.Stop{IsSubagent: true}},
		{`{"type":"compact","trigger":"auto"}`, events.Compact{Trigger: "auto"}},
		{`{"type":"other"}`, events.Other{}},
		{`{"type":"something_new"}`, events.Other{}},
		{`{"id":"no-type"}`, events.Other{}},
	}
	for _, tc := range cases {
		e, err := events.Parse([]byte(tc.body))
		require.NoError(t, err, tc.body)
		assert.Equal(t, tc.want, e.Payload, tc.body)
	}
}

func TestParseKeepsBytesVerbatim(t *testing.T) {
	body := `{"id":"a","timestamp":1,"sessionId":"s","cwd":"","hookType":"PreToolUse","type":"tool_start","tool":"Grep","toolInput":{"pattern":"foo"},"extra":42}`
	e, err := events.Parse([]byte(body))
	require.NoError(t, err)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
	assert.Equal(t, events.KindToolStart, e.Kind())
	assert.Equal(t, "Grep", e.Label())
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, body := range []string{``, `not json`, `{"type":`, `{"id":"a",}`} {
		_, err := events.Parse([]byte(body))
		assert.Error(t, err, body)
	}
	for _, body := range []string{`[]`, `"event"`, `42`, `null`} {
		_, err := events.Parse([]byte(body))
		assert.True(t, errors.Is(err, events.ErrNotObject), body)
	}
}

func TestParseToleratesMistypedFields(t *testing.T) {
	cases := []struct {
		body string
		want events.Payload
	}{
		{`{"type":"tool_start","tool":"Read","toolInput":{"file_path":"/a","limit":50}}`,
			events.ToolStart{Tool: "Read", ToolInput: map[string]string{"file_path": "/a"}}},
		{`{"type":"tool_start","tool":7,"toolInput":"ls"}`, events.ToolStart{}},
		{`{"type":"tool_end","tool":"Bash","success":"no","duration":"fast"}`,
			events.ToolEnd{Tool: "Bash", Success: true}},
		{`{"type":"prompt","promptLength":"long"}`, events.Prompt{}},
		{`{"type":"notification","message":{"text":"hi"}}`, events.Notification{}},
		{`{"type":42}`, events.Other{}},
		{`{"TYPE":"stop"}`, events.Other{}},
	}
	for _, tc := range cases {
		e, err := events.Parse([]byte(tc.body))
		require.NoError(t, err, tc.body)
		assert.Equal(t, tc.want, e.Payload, tc.body)

		out, err := json.Marshal(e)
		require.NoError(t, err)
		assert.JSONEq(t, tc.body, string(out))
	}

	e, err := events.Parse([]byte(`{"id":5,"timestamp":"noon","sessionId":"s"}`))
	require.NoError(t, err)
	assert.Equal(t, "", e.ID)
	assert.Equal(t, int64(0), e.Timestamp)
	assert.Equal(t, "s", e.SessionID)
}

func TestParseReplacesInvalidUTF8(t *testing.T) {
	body := []byte("{\"type\":\"notification\",\"message\":\"bad \xff\xfe byte\"}")
	e, err := events.Parse(body)
	require.NoError(t, err)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.True(t, utf8.Valid(out))
	assert.JSONEq(t, `{"type":"notification","message":"bad \ufffd byte"}`, string(out))

	n, ok := e.Payload.(events.Notification)
	require.True(t, ok)
	require.NotNil(t, n.Message)
	assert.Equal(t, "bad \ufffd byte", *n.Message)
}

func TestMessageFrames(t *testing.T) {
	data, err := json.Marshal(events.HistoryMessage(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"history","events":[]}`, string(data))

	e, err := events.Parse([]byte(`{"type":"notification","message":"waiting"}`))
	require.NoError(t, err)
	data, err = json.Marshal(events.EventMessage(e))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"event","event":{"type":"notification","message":"waiting"}}`, string(data))

	var m events.Message
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, events.MessageEvent, m.Type)
	assert.Equal(t, events.KindNotification, m.Event.Kind())
}
