package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/ordernotify/internal/app"
	"github.com/colonyops/ordernotify/internal/core/eventbus"
	"github.com/colonyops/ordernotify/internal/core/push"
)

// viewPrompter asks permission questions inside the view.
type viewPrompter struct {
	buf *EventBuffer
}

func (p viewPrompter) Confirm(ctx context.Context, title, description string) (bool, error) {
	reply := make(chan bool, 1)
	p.buf.Push(confirmRequestMsg{title: title, description: description, reply: reply})

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// forward feeds bus events into the view.
func forward(bus *eventbus.EventBus, buf *EventBuffer) {
	bus.SubscribeNotificationCreated(func(eventbus.NotificationCreatedPayload) { buf.Push(recordsMsg{}) })
	bus.SubscribeNotificationDismissed(func(eventbus.NotificationDismissedPayload) { buf.Push(recordsMsg{}) })
	bus.SubscribeSubscriptionChanged(func(p eventbus.SubscriptionChangedPayload) {
		buf.Push(subscriptionMsg{subscribed: p.Subscribed})
	})
	bus.SubscribePollingStarted(func(eventbus.PollingStartedPayload) { buf.Push(pollingMsg{polling: true}) })
	bus.SubscribePollingStopped(func(p eventbus.PollingStoppedPayload) { buf.Push(pollingMsg{idle: p.Idle}) })
	bus.SubscribeDeliveryDegraded(func(p eventbus.DeliveryDegradedPayload) { buf.Push(degradedMsg{outcome: p.Outcome}) })
}

// Run opens a page session and shows it until the user quits or ctx ends.
func Run(ctx context.Context, a *app.App, opts app.SessionOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	buf := NewEventBuffer()
	restore := a.Prompts.Use(viewPrompter{buf: buf})
	defer restore()

	forward(a.Bus, buf)
	opts.OnPush = func(msg push.Message) { buf.Push(pushMsg{message: msg}) }
	opts.OnFocus = func() { buf.Push(focusMsg{}) }

	session := a.NewSession(opts)
	model := New(ctx, Options{
		AppName:       a.Config.Push.AppName,
		Reconciler:    session.Reconciler,
		Subscriptions: a.Subscriptions,
		Buffer:        buf,
	})

	sessionErr := make(chan error, 1)
	go func() {
		err := session.Run(ctx)
		if err != nil {
			buf.Push(sessionErrMsg{err: err})
		}
		sessionErr <- err
	}()

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}

	cancel()
	return errors.Join(err, <-sessionErr)
}
