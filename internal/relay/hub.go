package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colonyops/ordernotify/internal/core/logging"
	"github.com/colonyops/ordernotify/pkg/executil"
	"github.com/colonyops/ordernotify/pkg/tmpl"
	"github.com/rs/zerolog"
)

// ErrNoOpener is returned by OpenWindow when no open command is configured.
var ErrNoOpener = errors.New("no window opener configured")

// DefaultOpenCommand opens a URL in the desktop's default handler.
const DefaultOpenCommand = `xdg-open {{ .URL | shq }}`

// Client is a page session reachable from the worker.
type Client interface {
	ID() string
	// URL is the absolute address of the page. It may be empty for clients
	// that stand for sessions in other processes.
	URL() string
	PostMessage(ctx context.Context, env Envelope) error
}

// Focuser is implemented by clients that can be brought to the front.
type Focuser interface {
	Focus(ctx context.Context) error
}

// HubConfig configures a Hub.
type HubConfig struct {
	// Origin is prepended to relative URLs passed to OpenWindow.
	Origin string
	// Scope is the path prefix the worker controls, e.g. "/".
	Scope string
	// Exec and OpenCommand launch new windows. OpenCommand is a template
	// with a .URL field.
	Exec        executil.Executor
	OpenCommand string
}

type hubEntry struct {
	client     Client
	controlled bool
}

// Hub is the registry of clients known to a worker.
type Hub struct {
	cfg     HubConfig
	pattern string
	log     zerolog.Logger

	mu      sync.Mutex
	clients []*hubEntry
	claimed bool
}

// NewHub creates an empty hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Scope == "" {
		cfg.Scope = "/"
	}
	return &Hub{
		cfg:     cfg,
		pattern: scopePattern(cfg.Scope),
		log:     logging.Component("relay"),
	}
}

func scopePattern(scope string) string {
	if u, err := url.Parse(scope); err == nil && u.Path != "" {
		scope = u.Path
	}
	return escapeMeta(strings.TrimRight(scope, "/")) + "/**"
}

// escapeMeta backslash-escapes glob metacharacters so a scope path matches
// literally.
func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InScope reports whether rawURL falls under the hub's scope.
func (h *Hub) InScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	ok, err := doublestar.Match(h.pattern, path.Clean(p))
	return err == nil && ok
}

// Register adds c to the hub. Clients registered after Claim are controlled
// immediately when in scope. The returned func removes the client.
func (h *Hub) Register(c Client) func() {
	e := &hubEntry{client: c}

	h.mu.Lock()
	e.controlled = h.claimed && h.InScope(c.URL())
	h.clients = append(h.clients, e)
	h.mu.Unlock()

	h.log.Debug().Str("client", c.ID()).Bool("controlled", e.controlled).Msg("client registered")

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if i := slices.Index(h.clients, e); i >= 0 {
			h.clients = slices.Delete(h.clients, i, i+1)
		}
	}
}

// Claim takes control of every in-scope client and returns how many were
// claimed.
func (h *Hub) Claim() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.claimed = true
	n := 0
	for _, e := range h.clients {
		if !e.controlled && h.InScope(e.client.URL()) {
			e.controlled = true
			n++
		}
	}
	return n
}

// Controlled reports whether the client with id is controlled.
func (h *Hub) Controlled(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.clients {
		if e.client.ID() == id {
			return e.controlled
		}
	}
	return false
}

// MatchAll returns the registered clients in registration order. Without
// includeUncontrolled only controlled clients are returned.
func (h *Hub) MatchAll(includeUncontrolled bool) []Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Client, 0, len(h.clients))
	for _, e := range h.clients {
		if includeUncontrolled || e.controlled {
			out = append(out, e.client)
		}
	}
	return out
}

// OpenWindow opens target in a new window. Relative targets are resolved
// against the configured origin.
func (h *Hub) OpenWindow(ctx context.Context, target string) error {
	if h.cfg.Exec == nil {
		return ErrNoOpener
	}
	cmd := h.cfg.OpenCommand
	if cmd == "" {
		cmd = DefaultOpenCommand
	}

	script, err := tmpl.Render(cmd, struct{ URL string }{URL: h.resolve(target)})
	if err != nil {
		return fmt.Errorf("render open command: %w", err)
	}
	if _, err := executil.Sh(ctx, h.cfg.Exec, script); err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	return nil
}

func (h *Hub) resolve(target string) string {
	if h.cfg.Origin == "" {
		return target
	}
	base, err := url.Parse(h.cfg.Origin)
	if err != nil {
		return target
	}
	ref, err := url.Parse(target)
	if err != nil {
		return target
	}
	return base.ResolveReference(ref).String()
}
