package eventbus

import "github.com/colonyops/ordernotify/internal/core/degrade"

// DegradeSink adapts the bus into a degrade.Sink so reporters publish
// EventDeliveryDegraded for every swallowed failure. A nil bus yields a nil sink.
func DegradeSink(bus *EventBus) degrade.Sink {
	if bus == nil {
		return nil
	}
	return func(o degrade.Outcome) {
		bus.PublishDeliveryDegraded(DeliveryDegradedPayload{Outcome: o})
	}
}

func (bus *EventBus) PublishDeliveryDegraded(p DeliveryDegradedPayload) {
	bus.send(EventDeliveryDegraded, p)
}

func (bus *EventBus) SubscribeDeliveryDegraded(fn func(DeliveryDegradedPayload)) {
	subscribeTyped(bus, EventDeliveryDegraded, fn)
}

func (bus *EventBus) PublishNotificationCreated(p NotificationCreatedPayload) {
	bus.send(EventNotificationCreated, p)
}

func (bus *EventBus) SubscribeNotificationCreated(fn func(NotificationCreatedPayload)) {
	subscribeTyped(bus, EventNotificationCreated, fn)
}

func (bus *EventBus) PublishNotificationDismissed(p NotificationDismissedPayload) {
	bus.send(EventNotificationDismissed, p)
}

func (bus *EventBus) SubscribeNotificationDismissed(fn func(NotificationDismissedPayload)) {
	subscribeTyped(bus, EventNotificationDismissed, fn)
}

func (bus *EventBus) PublishPollingStarted(p PollingStartedPayload) {
	bus.send(EventPollingStarted, p)
}

func (bus *EventBus) SubscribePollingStarted(fn func(PollingStartedPayload)) {
	subscribeTyped(bus, EventPollingStarted, fn)
}

func (bus *EventBus) PublishPollingStopped(p PollingStoppedPayload) {
	bus.send(EventPollingStopped, p)
}

func (bus *EventBus) SubscribePollingStopped(fn func(PollingStoppedPayload)) {
	subscribeTyped(bus, EventPollingStopped, fn)
}

func (bus *EventBus) PublishPushReceived(p PushReceivedPayload) {
	bus.send(EventPushReceived, p)
}

func (bus *EventBus) SubscribePushReceived(fn func(PushReceivedPayload)) {
	subscribeTyped(bus, EventPushReceived, fn)
}

func (bus *EventBus) PublishPushRendered(p PushRenderedPayload) {
	bus.send(EventPushRendered, p)
}

func (bus *EventBus) SubscribePushRendered(fn func(PushRenderedPayload)) {
	subscribeTyped(bus, EventPushRendered, fn)
}

func (bus *EventBus) PublishSubscriptionChanged(p SubscriptionChangedPayload) {
	bus.send(EventSubscriptionChanged, p)
}

func (bus *EventBus) SubscribeSubscriptionChanged(fn func(SubscriptionChangedPayload)) {
	subscribeTyped(bus, EventSubscriptionChanged, fn)
}
