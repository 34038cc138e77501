package tray

import (
	"context"
	"fmt"
	"strings"

	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/pkg/executil"
	"github.com/colonyops/ordernotify/pkg/tmpl"
)

// DefaultShowCommand renders through libnotify. Critical urgency keeps the
// notification on screen until dismissed; the synchronous hint replaces a
// notification with the same tag.
const DefaultShowCommand = `notify-send --app-name={{ .AppName | shq }} --icon={{ .Icon | default "dialog-information" | shq }} --urgency={{ .Urgency }} --hint={{ printf "string:x-canonical-private-synchronous:%s" .Tag | shq }}{{ range .Actions }} --action={{ printf "%s=%s" .Action .Title | shq }}{{ end }} {{ .Title | shq }} {{ .Body | truncate 240 | shq }}`

// CommandBackend renders notifications by running a templated shell command.
type CommandBackend struct {
	Exec         executil.Executor
	AppName      string
	ShowCommand  string
	CloseCommand string
}

type commandData struct {
	AppName string
	Title   string
	Body    string
	Icon    string
	Tag     string
	URL     string
	Urgency string
	Actions []Action
}

func (b *CommandBackend) data(n Notification) commandData {
	urgency := "normal"
	if n.RequireInteraction {
		urgency = "critical"
	}
	return commandData{
		AppName: b.AppName,
		Title:   n.Title,
		Body:    n.Body,
		Icon:    n.Icon,
		Tag:     n.Tag,
		URL:     n.Data.URL,
		Urgency: urgency,
		Actions: n.Actions,
	}
}

func (b *CommandBackend) Show(ctx context.Context, n Notification) error {
	cmd := b.ShowCommand
	if cmd == "" {
		cmd = DefaultShowCommand
	}
	return b.run(ctx, cmd, b.data(n))
}

func (b *CommandBackend) Close(ctx context.Context, tag string) error {
	if b.CloseCommand == "" {
		return nil
	}
	return b.run(ctx, b.CloseCommand, commandData{AppName: b.AppName, Tag: tag})
}

func (b *CommandBackend) run(ctx context.Context, command string, data commandData) error {
	script, err := tmpl.Render(command, data)
	if err != nil {
		return fmt.Errorf("render notifier command: %w", err)
	}
	if strings.TrimSpace(script) == "" {
		return nil
	}
	if _, err := executil.Sh(ctx, b.Exec, script); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	return nil
}

// LogBackend writes notifications to the log only. It serves headless hosts.
type LogBackend struct{}

func (LogBackend) Show(_ context.Context, n Notification) error {
	log := logging.Component("tray")
	log.Info().
		Str("tag", n.Tag).
		Str("title", n.Title).
		Str("body", n.Body).
		Msg("notification")
	return nil
}

func (LogBackend) Close(context.Context, string) error { return nil }
