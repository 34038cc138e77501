package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/ordernotify/internal/platform"
)

// KeyFetcher fetches the server's application server key.
type KeyFetcher interface {
	VAPIDKey(ctx context.Context) (string, error)
}

// APICheck verifies the order backend answers and publishes a usable key.
type APICheck struct {
	api     KeyFetcher
	baseURL string
	timeout time.Duration
}

// NewAPICheck creates an API reachability check.
func NewAPICheck(api KeyFetcher, baseURL string) *APICheck {
	return &APICheck{api: api, baseURL: baseURL, timeout: 5 * time.Second}
}

func (c *APICheck) Name() string { return "API" }

func (c *APICheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	key, err := c.api.VAPIDKey(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.baseURL,
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{Label: c.baseURL, Status: StatusPass, Detail: "reachable"})

	if _, err := platform.ParseApplicationServerKey(key); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "vapid key",
			Status: StatusWarn,
			Detail: err.Error(),
		})
	} else {
		result.Items = append(result.Items, CheckItem{Label: "vapid key", Status: StatusPass})
	}

	return result
}

// PingFunc probes a remote dependency.
type PingFunc func(ctx context.Context) error

// ReachabilityCheck runs a single probe against a named endpoint.
type ReachabilityCheck struct {
	name   string
	label  string
	ping   PingFunc
	status Status // reported on failure
}

// NewReachabilityCheck creates a check that fails when ping errors.
func NewReachabilityCheck(name, label string, ping PingFunc) *ReachabilityCheck {
	return &ReachabilityCheck{name: name, label: label, ping: ping, status: StatusFail}
}

// Optional makes a failing probe a warning.
func (c *ReachabilityCheck) Optional() *ReachabilityCheck {
	c.status = StatusWarn
	return c
}

func (c *ReachabilityCheck) Name() string { return c.name }

func (c *ReachabilityCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}
	if err := c.ping(ctx); err != nil {
		result.Items = append(result.Items, CheckItem{Label: c.label, Status: c.status, Detail: err.Error()})
		return result
	}
	result.Items = append(result.Items, CheckItem{Label: c.label, Status: StatusPass, Detail: "reachable"})
	return result
}

// PlatformCheck reports the device's push platform state.
type PlatformCheck struct {
	platform platform.Platform
}

// NewPlatformCheck creates a platform check.
func NewPlatformCheck(p platform.Platform) *PlatformCheck {
	return &PlatformCheck{platform: p}
}

func (c *PlatformCheck) Name() string { return "Push Platform" }

func (c *PlatformCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if !c.platform.Supported() {
		result.Items = append(result.Items, CheckItem{
			Label:  "support",
			Status: StatusFail,
			Detail: platform.ErrUnsupported.Error(),
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{Label: "support", Status: StatusPass})

	d, ok, err := platform.CurrentDescriptor(ctx, c.platform)
	switch {
	case err != nil:
		result.Items = append(result.Items, CheckItem{Label: "subscription", Status: StatusFail, Detail: err.Error()})
	case !ok:
		result.Items = append(result.Items, CheckItem{
			Label:  "subscription",
			Status: StatusWarn,
			Detail: "device is not subscribed",
			Hint:   "ordernotify push subscribe",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "subscription",
			Status: StatusPass,
			Detail: fmt.Sprintf("endpoint %s", d.Endpoint),
		})
	}

	return result
}
