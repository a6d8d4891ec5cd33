package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBareObject(t *testing.T) {
	raw := `{"id":"ev-1","timestamp":"2026-08-28T10:15:00Z","eventType":"USER_ACTION","action":"click","value":42,"location":"dashboard","userId":"user-7"}`

	ev, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, EventTypeUserAction, ev.Type)
	assert.Equal(t, "click", ev.Action)
	assert.Equal(t, 42.0, ev.Value)
	assert.Equal(t, "dashboard", ev.Location)
	assert.Equal(t, "user-7", ev.ActorID)
	assert.Equal(t, time.Date(2026, 8, 28, 10, 15, 0, 0, time.UTC), ev.Timestamp)
}

func TestDecodeStripsTransportPrefix(t *testing.T) {
	bare := `{"id":"x","eventType":"ERROR","action":"boom","value":1,"location":"api"}`

	plain, err := Decode(bare)
	require.NoError(t, err)

	prefixed, err := Decode("data: " + bare + "\n\n")
	require.NoError(t, err)

	assert.Equal(t, plain, prefixed, "prefixed frame must decode identically to bare JSON")
}

func TestDecodeDoubledDataPrefix(t *testing.T) {
	// Some proxies re-frame already-framed payloads.
	ev, err := Decode("data: data: {\"id\":\"y\",\"eventType\":\"WARNING\"}")
	require.NoError(t, err)
	assert.Equal(t, "y", ev.ID)
	assert.Equal(t, EventTypeWarning, ev.Type)
}

func TestDecodeUnparseable(t *testing.T) {
	for _, raw := range []string{
		"not json at all",
		"",
		"data: ",
		"data: {broken",
		"[1,2,3]",
	} {
		_, err := Decode(raw)
		require.Error(t, err, "raw=%q", raw)
		assert.True(t, IsDecodeError(err), "raw=%q should yield DecodeError", raw)
	}
}

func TestDecodeMissingFieldsDefault(t *testing.T) {
	ev, err := Decode(`{"id":"only-id"}`)
	require.NoError(t, err)

	assert.Equal(t, "only-id", ev.ID)
	assert.Empty(t, string(ev.Type))
	assert.Empty(t, ev.Action)
	assert.Zero(t, ev.Value)
	assert.Empty(t, ev.Location)
	assert.False(t, ev.HasActor())
	assert.True(t, ev.Timestamp.IsZero())
}

func TestDecodeWrongKindFieldsDefault(t *testing.T) {
	// Wrong-kind fields degrade instead of failing the frame.
	ev, err := Decode(`{"id":123,"value":"17.5","timestamp":42,"action":{"nested":true}}`)
	require.NoError(t, err)

	assert.Equal(t, "123", ev.ID, "numeric id coerced to string")
	assert.Equal(t, 17.5, ev.Value, "string value coerced to number")
	assert.True(t, ev.Timestamp.IsZero())
	assert.Empty(t, ev.Action)
}

func TestDecodeLegacyNestedData(t *testing.T) {
	raw := `{"id":"old","event_type":"system_event","user_id":"u1","data":{"action":"view","value":9,"location":"profile"}}`

	ev, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "old", ev.ID)
	assert.Equal(t, EventType("system_event"), ev.Type)
	assert.False(t, ev.Type.Known())
	assert.Equal(t, "u1", ev.ActorID)
	assert.Equal(t, "view", ev.Action)
	assert.Equal(t, 9.0, ev.Value)
	assert.Equal(t, "profile", ev.Location)
}

func TestDecodeUnknownTypePreserved(t *testing.T) {
	ev, err := Decode(`{"id":"z","eventType":"AUDIT"}`)
	require.NoError(t, err)

	assert.Equal(t, EventType("AUDIT"), ev.Type)
	assert.False(t, ev.Type.Known())
	assert.Equal(t, "unknown", ev.Type.Severity())
}

func TestDecodeTrailingControlCharacters(t *testing.T) {
	ev, err := Decode("data: {\"id\":\"ctl\"}\r\n\x00")
	require.NoError(t, err)
	assert.Equal(t, "ctl", ev.ID)
}
