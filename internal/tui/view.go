package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/ordernotify/internal/core/notify"
)

func (m Model) View() string {
	if m.confirm != nil {
		return m.confirmView()
	}

	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(mutedStyle.Render("No status changes yet."))
		b.WriteString("\n")
	}
	for i, r := range m.records {
		b.WriteString(m.recordView(r, i == m.cursor))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}

	if toasts := m.toastsView(); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	parts := []string{titleStyle.Render(m.opts.AppName)}

	if m.subscribed {
		parts = append(parts, badgeOnStyle.Render("● push on"))
	} else {
		parts = append(parts, badgeOffStyle.Render("○ push off"))
	}

	switch {
	case m.polling:
		parts = append(parts, mutedStyle.Render("⟳ polling"))
	case m.idle:
		parts = append(parts, mutedStyle.Render("no active orders"))
	}

	if m.busy != "" {
		parts = append(parts, mutedStyle.Render(m.busy))
	}

	return strings.Join(parts, "  ")
}

func (m Model) recordView(r notify.Record, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}

	line := fmt.Sprintf("%s#%-5d %s", prefix, r.OrderID, r.Message)
	if r.ETAMinutes != nil {
		line += mutedStyle.Render(fmt.Sprintf("  ~%d min", *r.ETAMinutes))
	}
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func (m Model) toastsView() string {
	toasts := m.toasts.items
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func renderToast(t toast) string {
	style := toastInfoStyle
	switch t.level {
	case toastSuccess:
		style = toastSuccessStyle
	case toastWarning:
		style = toastWarningStyle
	}

	content := selectedStyle.Render(t.title)
	if t.body != "" {
		content += "\n" + t.body
	}
	return style.Render(content)
}

func (m Model) confirmView() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.confirm.title),
		"",
		m.confirm.description,
		"",
		mutedStyle.Render("y allow · n block"),
	)
	box := modalStyle.Render(body)

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
