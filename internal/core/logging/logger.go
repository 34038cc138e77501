// Package logging holds zerolog helpers shared by every ordernotify component.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a logger derived from the global logger, tagged with a
// "cmp" field and carrying the ContextHook so events logged with .Ctx(ctx)
// pick up device and order identifiers.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger().Hook(ContextHook{})
}
