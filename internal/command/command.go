// Package command runs user-configured commands against matching
// notifications. Dispatch is fire-and-forget: a slow or failing command never
// stalls the notification pipeline.
package command

import (
	"regexp"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/notification"
)

// Executor launches a rendered command line without waiting for completion.
type Executor interface {
	Start(line string) error
}

// Matcher evaluates a policy's command rules against notifications.
type Matcher struct {
	exec Executor
	log  zerolog.Logger
}

func NewMatcher(exec Executor, log zerolog.Logger) *Matcher {
	return &Matcher{exec: exec, log: log}
}

// Run evaluates pol's rules in declared order and dispatches every rule that
// matches n. All matching rules fire, not just the first. Render and launch
// failures are logged and never propagate to the caller.
func (m *Matcher) Run(pol *config.Policy, n *notification.Notification, ctx map[string]any) {
	for i := range pol.Commands {
		rule := &pol.Commands[i]
		if !matches(rule.Filter, n) {
			continue
		}
		line, err := rule.Command.Render(ctx)
		if err != nil {
			m.log.Warn().Err(err).Uint32("id", n.ID).Msg("skipping custom command with unrenderable template")
			continue
		}
		m.log.Debug().Uint32("id", n.ID).Str("command", line).Msg("running custom command")
		if err := m.exec.Start(line); err != nil {
			m.log.Error().Err(err).Str("command", line).Msg("custom command failed to start")
		}
	}
}

// matches reports whether every field regex in filter finds a match in the
// corresponding notification field. Matching uses search semantics, not
// full-string match. A nil filter always matches.
func matches(filter map[string]*regexp.Regexp, n *notification.Notification) bool {
	for field, re := range filter {
		var value string
		switch field {
		case "app_name":
			value = n.AppName
		case "summary":
			value = n.Summary
		case "body":
			value = n.Body
		default:
			// unknown fields are rejected at config load time
			return false
		}
		if !re.MatchString(value) {
			return false
		}
	}
	return true
}
