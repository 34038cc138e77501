package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/ordernotify/internal/core/degrade"
	"github.com/colonyops/ordernotify/internal/core/notify"
	"github.com/colonyops/ordernotify/internal/core/push"
	"github.com/colonyops/ordernotify/internal/subscription"
)

// Reconciler is the part of the status reconciler the view drives.
type Reconciler interface {
	Notifications() []notify.Record
	Dismiss(id int64) bool
	DismissAll() int
	StartPolling(ctx context.Context)
	Polling() bool
}

// Subscriptions is the part of the subscription manager the view drives.
type Subscriptions interface {
	Subscribe(ctx context.Context) subscription.Result
	Unsubscribe(ctx context.Context) error
	IsSubscribed() bool
}

// Options configures a Model.
type Options struct {
	AppName       string
	Reconciler    Reconciler
	Subscriptions Subscriptions
	Buffer        *EventBuffer
}

type (
	recordsMsg      struct{}
	pushMsg         struct{ message push.Message }
	subscriptionMsg struct{ subscribed bool }
	pollingMsg      struct {
		polling bool
		idle    bool
	}
	degradedMsg        struct{ outcome degrade.Outcome }
	focusMsg           struct{}
	sessionErrMsg      struct{ err error }
	subscribeDoneMsg   struct{ result subscription.Result }
	unsubscribeDoneMsg struct{ err error }
	toastTickMsg       time.Time
)

// confirmRequestMsg asks the view to show a permission question. The answer
// is sent on reply, which must be buffered.
type confirmRequestMsg struct {
	title       string
	description string
	reply       chan bool
}

// Model is the watch view.
type Model struct {
	ctx  context.Context
	opts Options
	keys keyMap
	help help.Model

	toasts  *toastStack
	records []notify.Record
	cursor  int

	subscribed bool
	polling    bool
	idle       bool
	busy       string
	status     string
	confirm    *confirmRequestMsg

	width  int
	height int
}

// New creates the view. ctx bounds the commands it starts.
func New(ctx context.Context, opts Options) Model {
	if opts.Buffer == nil {
		opts.Buffer = NewEventBuffer()
	}
	return Model{
		ctx:        ctx,
		opts:       opts,
		keys:       defaultKeys(),
		help:       help.New(),
		toasts:     &toastStack{},
		subscribed: opts.Subscriptions.IsSubscribed(),
		polling:    opts.Reconciler.Polling(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.opts.Buffer.WaitForSignal(), func() tea.Msg { return recordsMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case drainMsg:
		cmds := []tea.Cmd{m.opts.Buffer.WaitForSignal()}
		for _, queued := range m.opts.Buffer.Drain() {
			var cmd tea.Cmd
			m, cmd = m.apply(queued)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case toastTickMsg:
		if m.toasts.tick(toastTickInterval) {
			return m, scheduleToastTick()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.apply(msg)
}

// apply handles messages that arrive either directly or through the buffer.
func (m Model) apply(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsMsg:
		m.records = m.opts.Reconciler.Notifications()
		m.cursor = min(m.cursor, max(len(m.records)-1, 0))
		m.polling = m.opts.Reconciler.Polling()

	case pushMsg:
		return m, m.pushToast(toast{title: msg.message.Title, body: msg.message.Body, level: toastInfo})

	case subscriptionMsg:
		m.subscribed = msg.subscribed

	case pollingMsg:
		m.polling, m.idle = msg.polling, msg.idle

	case degradedMsg:
		if msg.outcome.Err != nil {
			m.status = msg.outcome.Site + ": " + msg.outcome.Err.Error()
		}

	case focusMsg:
		return m, m.pushToast(toast{title: "Opened from a notification", level: toastInfo})

	case sessionErrMsg:
		m.status = msg.err.Error()

	case confirmRequestMsg:
		m.confirm = &msg

	case subscribeDoneMsg:
		m.busy = ""
		m.subscribed = m.opts.Subscriptions.IsSubscribed()
		return m, m.pushToast(subscribeToast(msg.result))

	case unsubscribeDoneMsg:
		m.busy = ""
		m.subscribed = m.opts.Subscriptions.IsSubscribed()
		if msg.err != nil {
			return m, m.pushToast(toast{title: "Could not turn push off", body: msg.err.Error(), level: toastWarning})
		}
		return m, m.pushToast(toast{title: "Push notifications off", level: toastSuccess})
	}

	return m, nil
}

func subscribeToast(res subscription.Result) toast {
	switch res {
	case subscription.ResultSubscribed:
		return toast{title: "Push notifications on", level: toastSuccess}
	case subscription.ResultResynced:
		return toast{title: "Push notifications on", body: "Subscription re-sent to the server", level: toastSuccess}
	case subscription.ResultDenied:
		return toast{title: "Notifications blocked", body: "Permission was not granted", level: toastWarning}
	case subscription.ResultUnsupported:
		return toast{title: "Push unavailable", body: "No broker configured", level: toastWarning}
	default:
		return toast{title: "Could not turn push on", body: "See the log for details", level: toastWarning}
	}
}

func (m Model) pushToast(t toast) tea.Cmd {
	if m.toasts.push(t) {
		return scheduleToastTick()
	}
	return nil
}

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.confirm.reply <- true
			m.confirm = nil
		case key.Matches(msg, m.keys.No):
			m.confirm.reply <- false
			m.confirm = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Dismiss):
		if len(m.records) > 0 {
			m.opts.Reconciler.Dismiss(m.records[m.cursor].ID)
			return m.apply(recordsMsg{})
		}

	case key.Matches(msg, m.keys.DismissAll):
		m.opts.Reconciler.DismissAll()
		return m.apply(recordsMsg{})

	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		m.opts.Reconciler.StartPolling(m.ctx)
		m.polling, m.idle = true, false

	case key.Matches(msg, m.keys.Subscribe):
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Turning push on…"
		ctx, subs := m.ctx, m.opts.Subscriptions
		return m, func() tea.Msg { return subscribeDoneMsg{result: subs.Subscribe(ctx)} }

	case key.Matches(msg, m.keys.Unsubscribe):
		if m.busy != "" {
			return m, nil
		}
		m.busy = "Turning push off…"
		ctx, subs := m.ctx, m.opts.Subscriptions
		return m, func() tea.Msg { return unsubscribeDoneMsg{err: subs.Unsubscribe(ctx)} }
	}

	return m, nil
}
