// Package push holds the wire types shared by the push delivery worker, the
// subscription manager and the relay: inbound push payloads and the
// subscription descriptor mirrored to the backend.
package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// GenericType is the message type used for payloads that could not be decoded.
const GenericType = "generic"

// DefaultURL is the navigation target when a payload carries no url.
const DefaultURL = "/"

// ID is a payload identifier that may arrive as either a JSON string or a
// JSON number. The original representation is preserved when re-encoded so
// relayed payloads are byte-for-byte faithful in shape.
type ID struct {
	value   string
	numeric bool
}

// StringID returns an ID encoded as a JSON string.
func StringID(s string) ID { return ID{value: s} }

// NumberID returns an ID encoded as a JSON number.
func NumberID(n int64) ID { return ID{value: strconv.FormatInt(n, 10), numeric: true} }

func (id ID) String() string { return id.value }

// IsZero reports whether the ID was never set.
func (id ID) IsZero() bool { return id.value == "" && !id.numeric }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("push id must be a string or number: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}

// Message is the payload delivered by the push transport.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"`
	ID    ID     `json:"id"`
	URL   string `json:"url,omitempty"`

	// Raw is the payload exactly as received, including fields Message does
	// not model. Set whenever a Message is decoded from JSON.
	Raw json.RawMessage `json:"-"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Message(p)
	m.Raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// Tag is the de-duplication key for the rendered notification. Two messages
// with the same type and id collapse into one on-screen notification.
func (m Message) Tag() string {
	return m.Type + "-" + m.ID.String()
}

// TargetURL resolves the navigation target, defaulting to "/".
func (m Message) TargetURL() string {
	if m.URL == "" {
		return DefaultURL
	}
	return m.URL
}

// Payload returns the JSON relayed for m: Raw when set, otherwise the
// encoded modelled fields.
func (m Message) Payload() (json.RawMessage, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Decode parses a raw push payload. Payloads that are not a JSON object are
// not dropped: a generic message is synthesized from the raw text, titled
// appName, with a timestamp-derived id. The boolean reports whether the
// fallback was used. Raw holds the received object, or the encoded fallback.
func Decode(data []byte, appName string, now time.Time) (Message, bool) {
	var m Message
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &m); err == nil {
			return m, false
		}
	}

	m = Message{
		Title: appName,
		Body:  string(data),
		Type:  GenericType,
		ID:    NumberID(now.UnixMilli()),
	}
	m.Raw, _ = json.Marshal(m)
	return m, true
}
