// Package printer writes human-facing command output. Logs go to zerolog;
// anything the user is meant to read goes through a Printer.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleSection = lipgloss.NewStyle().Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer writes styled lines to an output stream.
type Printer struct {
	out io.Writer
}

// New creates a printer writing to out.
func New(out io.Writer) *Printer {
	return &Printer{out: out}
}

type ctxKey struct{}

// WithPrinter attaches p to ctx.
func WithPrinter(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer attached to ctx, or a stdout printer.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stdout)
}

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(styleInfo.Render("•") + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(styleSuccess.Render("✔") + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(styleWarn.Render("!") + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(styleError.Render("✘") + " " + fmt.Sprintf(format, args...))
}

// Section writes a bold heading.
func (p *Printer) Section(title string) {
	p.line(styleSection.Render(title))
}

// CheckItem, WarnItem and FailItem write an indented status line with an
// optional muted detail.
func (p *Printer) CheckItem(label, detail string) { p.item(styleSuccess.Render("✔"), label, detail) }

func (p *Printer) WarnItem(label, detail string) { p.item(styleWarn.Render("!"), label, detail) }

func (p *Printer) FailItem(label, detail string) { p.item(styleError.Render("✘"), label, detail) }

func (p *Printer) item(icon, label, detail string) {
	s := "  " + icon + " " + label
	if detail != "" {
		s += " " + styleMuted.Render(detail)
	}
	p.line(s)
}
