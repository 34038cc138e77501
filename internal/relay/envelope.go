// Package relay carries messages from the push delivery worker to page
// sessions. The worker enumerates clients through a Hub and posts a typed
// Envelope to each; page sessions consume envelopes with a Listener.
package relay

import (
	"encoding/json"
	"fmt"

	"github.com/colonyops/ordernotify/internal/core/push"
)

// TypePushReceived marks an envelope carrying a push payload.
const TypePushReceived = "PUSH_RECEIVED"

// Envelope is the discriminated message posted to clients. Consumers switch
// on Type and ignore types they do not know.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PushReceived wraps a push payload. The received payload is carried
// unchanged when m has one.
func PushReceived(m push.Message) (Envelope, error) {
	data, err := m.Payload()
	if err != nil {
		return Envelope{}, fmt.Errorf("encode push payload: %w", err)
	}
	return Envelope{Type: TypePushReceived, Data: data}, nil
}
