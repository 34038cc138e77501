// Package tmpl renders the shell command templates used to show desktop
// notifications, open URLs and play sounds.
//
// Templates run with missingkey=error and these helpers:
//
//	shq          single-quote for sh:       {{ .Title | shq }}
//	default      fallback for empty values: {{ .Icon | default "dialog-information" }}
//	truncate     cap to n runes with "…":   {{ .Body | truncate 240 }}
//	oneline      fold newlines into spaces:  {{ .Body | oneline }}
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"
)

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func orDefault(def, s string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(n int, s string) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var funcs = template.FuncMap{
	"shq":      shellQuote,
	"default":  orDefault,
	"truncate": truncate,
	"oneline":  oneline,
}

// Command is a parsed command template.
type Command struct {
	src string
	t   *template.Template
}

// Parse compiles src. Syntax errors are reported here, missing keys only
// when rendering.
func Parse(src string) (*Command, error) {
	t, err := template.New("command").Funcs(funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Command{src: src, t: t}, nil
}

func (c *Command) String() string { return c.src }

// Render executes the command template with data.
func (c *Command) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := c.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Render parses and executes src in one step.
func Render(src string, data any) (string, error) {
	c, err := Parse(src)
	if err != nil {
		return "", err
	}
	return c.Render(data)
}
