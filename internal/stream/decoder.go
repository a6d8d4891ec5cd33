package stream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Decode turns one raw transport frame into an Event.
//
// Frames arrive as SSE payloads and may still carry framing noise: a
// "data:" prefix, trailing whitespace or control characters, or junk before
// the first '{'. The embedded JSON object is located and parsed; missing or
// wrong-kind fields degrade to zero values instead of failing the frame.
// Only a payload with no parseable object at all yields a DecodeError.
func Decode(raw string) (Event, error) {
	payload := extractPayload(raw)
	if payload == "" {
		return Event{}, &DecodeError{Raw: truncate(raw), Cause: errNoPayload}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Event{}, &DecodeError{Raw: truncate(raw), Cause: err}
	}

	ev := Event{
		ID:       stringField(fields, "id"),
		Type:     EventType(stringField(fields, "eventType", "event_type")),
		Action:   stringField(fields, "action"),
		Value:    numberField(fields, "value"),
		Location: stringField(fields, "location"),
		ActorID:  stringField(fields, "userId", "user_id", "actorId"),
	}
	ev.Timestamp = timeField(fields, "timestamp")

	// Older emitters nest action/value/location under a "data" object.
	if data, ok := fields["data"].(map[string]any); ok {
		if ev.Action == "" {
			ev.Action = stringField(data, "action")
		}
		if ev.Value == 0 {
			ev.Value = numberField(data, "value")
		}
		if ev.Location == "" {
			ev.Location = stringField(data, "location")
		}
	}

	return ev, nil
}

var errNoPayload = errNoPayloadType{}

type errNoPayloadType struct{}

func (errNoPayloadType) Error() string { return "no JSON object in frame" }

// extractPayload strips SSE framing and returns the embedded JSON object
// text, or "" when the frame contains none.
func extractPayload(raw string) string {
	s := strings.TrimFunc(raw, func(r rune) bool {
		return r < ' ' || r == ' '
	})
	// A frame may carry one or more "data:" line prefixes.
	for strings.HasPrefix(s, "data:") {
		s = strings.TrimLeft(strings.TrimPrefix(s, "data:"), " ")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func numberField(fields map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// timeField parses an ISO-8601 timestamp. Unparseable or absent timestamps
// yield the zero time, which keeps the event out of recency windows without
// dropping it.
func timeField(fields map[string]any, key string) time.Time {
	s, ok := fields[key].(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func truncate(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
