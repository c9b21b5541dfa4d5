package command

import (
	"errors"
	"regexp"
	"testing"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/notification"
	"github.com/llehouerou/nudge/internal/template"
)

type fakeExecutor struct {
	lines []string
	err   error
}

func (f *fakeExecutor) Start(line string) error {
	if f.err != nil {
		return f.err
	}
	f.lines = append(f.lines, line)
	return nil
}

func mustCompile(t *testing.T, src string) *template.Renderer {
	t.Helper()
	r, err := template.Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func policy(rules ...config.CommandRule) *config.Policy {
	return &config.Policy{Level: notification.UrgencyNormal, Commands: rules}
}

func testNotification() *notification.Notification {
	return &notification.Notification{
		ID:      1,
		AppName: "telegram",
		Summary: "ping",
		Body:    "hello",
		Urgency: notification.UrgencyNormal,
	}
}

func TestRun_FilterMatch(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(config.CommandRule{
		Filter:  map[string]*regexp.Regexp{"app_name": regexp.MustCompile("discord|telegram")},
		Command: mustCompile(t, "beep"),
	})

	n := testNotification()
	m.Run(pol, n, n.Context("", 1))

	if len(exec.lines) != 1 || exec.lines[0] != "beep" {
		t.Errorf("executed %v, want [beep]", exec.lines)
	}
}

func TestRun_FilterMismatch(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(config.CommandRule{
		Filter:  map[string]*regexp.Regexp{"app_name": regexp.MustCompile("discord|telegram")},
		Command: mustCompile(t, "beep"),
	})

	n := testNotification()
	n.AppName = "slack"
	m.Run(pol, n, n.Context("", 1))

	if len(exec.lines) != 0 {
		t.Errorf("executed %v, want none", exec.lines)
	}
}

func TestRun_AllFieldsMustMatch(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(config.CommandRule{
		Filter: map[string]*regexp.Regexp{
			"app_name": regexp.MustCompile("telegram"),
			"summary":  regexp.MustCompile("pong"),
		},
		Command: mustCompile(t, "beep"),
	})

	n := testNotification() // summary "ping" does not match "pong"
	m.Run(pol, n, n.Context("", 1))

	if len(exec.lines) != 0 {
		t.Errorf("executed %v, want none", exec.lines)
	}
}

func TestRun_SubstringSemantics(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(config.CommandRule{
		Filter:  map[string]*regexp.Regexp{"body": regexp.MustCompile("ell")},
		Command: mustCompile(t, "beep"),
	})

	n := testNotification() // body "hello" contains "ell"
	m.Run(pol, n, n.Context("", 1))

	if len(exec.lines) != 1 {
		t.Errorf("executed %v, want one match via substring search", exec.lines)
	}
}

func TestRun_AllMatchingRulesFire(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(
		config.CommandRule{Command: mustCompile(t, "first")},
		config.CommandRule{
			Filter:  map[string]*regexp.Regexp{"app_name": regexp.MustCompile("nope")},
			Command: mustCompile(t, "skipped"),
		},
		config.CommandRule{Command: mustCompile(t, "second {{shq .summary}}")},
	)

	n := testNotification()
	m.Run(pol, n, n.Context("", 1))

	want := []string{"first", "second 'ping'"}
	if len(exec.lines) != len(want) {
		t.Fatalf("executed %v, want %v", exec.lines, want)
	}
	for i := range want {
		if exec.lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, exec.lines[i], want[i])
		}
	}
}

func TestRun_UnrenderableTemplateIsSkipped(t *testing.T) {
	exec := &fakeExecutor{}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(
		config.CommandRule{Command: mustCompile(t, "{{.missing}}")},
		config.CommandRule{Command: mustCompile(t, "survivor")},
	)

	n := testNotification()
	m.Run(pol, n, n.Context("", 1))

	if len(exec.lines) != 1 || exec.lines[0] != "survivor" {
		t.Errorf("executed %v, want [survivor]", exec.lines)
	}
}

func TestRun_ExecutorFailureDoesNotPropagate(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("spawn failed")}
	m := NewMatcher(exec, zerolog.Nop())
	pol := policy(config.CommandRule{Command: mustCompile(t, "beep")})

	n := testNotification()
	m.Run(pol, n, n.Context("", 1)) // must not panic or return anything
}
