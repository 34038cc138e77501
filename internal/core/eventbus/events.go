// Package eventbus provides a typed publish/subscribe event bus for
// communication between ordernotify components inside one process.
package eventbus

import (
	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/colonyops/ordernotify/internal/core/push"
)

// Event names a kind of bus message.
type Event string

// Keep list sorted A-Z.
const (
	EventDeliveryDegraded      Event = "delivery.degraded"
	EventNotificationCreated   Event = "notification.created"
	EventNotificationDismissed Event = "notification.dismissed"
	EventPollingStarted        Event = "polling.started"
	EventPollingStopped        Event = "polling.stopped"
	EventPushReceived          Event = "push.received"
	EventPushRendered          Event = "push.rendered"
	EventSubscriptionChanged   Event = "subscription.changed"
)

// DeliveryDegradedPayload is emitted when a call site swallowed a failure.
type DeliveryDegradedPayload struct {
	Outcome degrade.Outcome
}

// NotificationCreatedPayload is emitted when the reconciler appends a record.
type NotificationCreatedPayload struct {
	Record notify.Record
}

// NotificationDismissedPayload is emitted when records are dismissed.
// All is set for a bulk dismissal, in which case RecordID is zero.
type NotificationDismissedPayload struct {
	RecordID int64
	All      bool
}

// PollingStartedPayload is emitted when the reconciler schedules its loop.
type PollingStartedPayload struct{}

// PollingStoppedPayload is emitted when the polling loop is cancelled.
// Idle is set when the loop stopped itself because no order was active.
type PollingStoppedPayload struct {
	Idle bool
}

// PushReceivedPayload is emitted by a page session when the relay delivered
// a push payload from the worker.
type PushReceivedPayload struct {
	Message push.Message
}

// PushRenderedPayload is emitted by the worker after showing an OS notification.
type PushRenderedPayload struct {
	Message   push.Message
	Collapsed bool
}

// SubscriptionChangedPayload is emitted when the local subscribed flag flips.
type SubscriptionChangedPayload struct {
	Subscribed bool
	Endpoint   string
}
