// Package doctor runs health checks against the local device state and the
// remote services ordernotify depends on.
package doctor

import (
	"context"
	"encoding/json"
	"slices"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckItem is one line of a check result. Hint names the command that
// resolves a warning or failure, if there is one.
type CheckItem struct {
	Label  string `json:"label"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

func (r *Result) add(label string, status Status, detail string) {
	r.Items = append(r.Items, CheckItem{Label: label, Status: status, Detail: detail})
}

type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll runs checks concurrently and returns their results in input order.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, len(checks))

	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Tally counts items by status.
type Tally struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (t Tally) Healthy() bool { return t.Failed == 0 }

func (t Tally) MarshalJSON() ([]byte, error) {
	type tally Tally
	return json.Marshal(struct {
		tally
		Healthy bool `json:"healthy"`
	}{tally(t), t.Healthy()})
}

func Summary(results []Result) Tally {
	var t Tally
	for _, r := range results {
		for _, item := range r.Items {
			switch item.Status {
			case StatusPass:
				t.Passed++
			case StatusWarn:
				t.Warned++
			case StatusFail:
				t.Failed++
			}
		}
	}
	return t
}

// Hints returns the distinct fix hints of non-passing items.
func Hints(results []Result) []string {
	var hints []string
	for _, r := range results {
		for _, item := range r.Items {
			if item.Hint == "" || item.Status == StatusPass || slices.Contains(hints, item.Hint) {
				continue
			}
			hints = append(hints, item.Hint)
		}
	}
	return hints
}
