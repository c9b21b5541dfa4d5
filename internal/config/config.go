// Package config loads and validates the daemon configuration. All policy
// regexes, templates, colors and the window geometry compile at load time; a
// Config that loads without error never fails policy evaluation at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/notification"
	"github.com/llehouerou/nudge/internal/template"
)

// EnvConfig overrides the configuration file location.
const EnvConfig = "NUDGE_CONFIG"

const defaultHistorySize = 25

// fileConfig mirrors the on-disk TOML schema.
type fileConfig struct {
	Global   globalSection  `koanf:"global"`
	Low      urgencySection `koanf:"urgency_low"`
	Normal   urgencySection `koanf:"urgency_normal"`
	Critical urgencySection `koanf:"urgency_critical"`
}

type globalSection struct {
	LogVerbosity        string `koanf:"log_verbosity"`
	StartupNotification bool   `koanf:"startup_notification"`
	Geometry            string `koanf:"geometry"`
	WrapContent         bool   `koanf:"wrap_content"`
	Font                string `koanf:"font"`
	Template            string `koanf:"template"`
	HistorySize         int    `koanf:"history_size"`
	ShowAll             bool   `koanf:"show_all"`
}

type urgencySection struct {
	Background     string          `koanf:"background"`
	Foreground     string          `koanf:"foreground"`
	Timeout        int             `koanf:"timeout"` // seconds; 0 = never expire
	AutoClear      bool            `koanf:"auto_clear"`
	Text           string          `koanf:"text"`
	CustomCommands []customCommand `koanf:"custom_commands"`
}

type customCommand struct {
	Filter  map[string]string `koanf:"filter"`
	Command string            `koanf:"command"`
}

// Config is the fully validated daemon configuration.
type Config struct {
	Verbosity           zerolog.Level
	StartupNotification bool
	Geometry            Geometry
	WrapContent         bool
	Font                string
	Display             *template.Renderer
	HistorySize         int

	// ShowAll selects stacked display: when true every active notification
	// is rendered in the popup, newest first; when false only the latest one.
	ShowAll bool

	policies [3]*Policy
}

// Policy is the compiled per-urgency configuration.
type Policy struct {
	Level      notification.Urgency
	Background string
	Foreground string
	Timeout    time.Duration
	AutoClear  bool
	Text       string
	Commands   []CommandRule
}

// CommandRule is a compiled custom command. A nil Filter matches every
// notification; otherwise every field regex must match its field.
type CommandRule struct {
	Filter  map[string]*regexp.Regexp
	Command *template.Renderer
}

// Policy returns the policy governing the given urgency level.
func (c *Config) Policy(u notification.Urgency) *Policy {
	if int(u) < len(c.policies) {
		return c.policies[u]
	}
	return c.policies[notification.UrgencyNormal]
}

// DefaultPath returns the first existing configuration file among
// $NUDGE_CONFIG, the XDG config directory and ~/.nudge/nudge.toml. An empty
// string means no file was found and built-in defaults apply.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if p, err := xdg.SearchConfigFile("nudge/nudge.toml"); err == nil {
		return p
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".nudge", "nudge.toml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the configuration from the default location.
func Load() (*Config, error) {
	return LoadFile(DefaultPath())
}

// LoadFile parses and validates the configuration at path. An empty path
// yields the built-in defaults.
func LoadFile(path string) (*Config, error) {
	fc := defaults()
	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := k.Unmarshal("", &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return compile(fc)
}

func defaults() fileConfig {
	return fileConfig{
		Global: globalSection{
			LogVerbosity: "info",
			Geometry:     "400x60+20+20",
			WrapContent:  true,
			Font:         "monospace 10",
			Template:     "[{{.app_name}}] {{.summary}}{{if .body}}\n{{.body}}{{end}}",
			HistorySize:  defaultHistorySize,
		},
		Low:      urgencySection{Background: "#282828", Foreground: "#a89984", Timeout: 3, AutoClear: true},
		Normal:   urgencySection{Background: "#458588", Foreground: "#ebdbb2", Timeout: 10},
		Critical: urgencySection{Background: "#cc241d", Foreground: "#ebdbb2", Timeout: 0},
	}
}

func compile(fc fileConfig) (*Config, error) {
	level, err := zerolog.ParseLevel(fc.Global.LogVerbosity)
	if err != nil {
		return nil, fmt.Errorf("global: invalid log_verbosity %q: %w", fc.Global.LogVerbosity, err)
	}
	geo, err := ParseGeometry(fc.Global.Geometry)
	if err != nil {
		return nil, fmt.Errorf("global: %w", err)
	}
	display, err := template.Compile(fc.Global.Template)
	if err != nil {
		return nil, fmt.Errorf("global: %w", err)
	}
	hist := fc.Global.HistorySize
	if hist <= 0 {
		hist = defaultHistorySize
	}

	cfg := &Config{
		Verbosity:           level,
		StartupNotification: fc.Global.StartupNotification,
		Geometry:            geo,
		WrapContent:         fc.Global.WrapContent,
		Font:                fc.Global.Font,
		Display:             display,
		HistorySize:         hist,
		ShowAll:             fc.Global.ShowAll,
	}

	sections := []struct {
		name    string
		level   notification.Urgency
		section urgencySection
	}{
		{"urgency_low", notification.UrgencyLow, fc.Low},
		{"urgency_normal", notification.UrgencyNormal, fc.Normal},
		{"urgency_critical", notification.UrgencyCritical, fc.Critical},
	}
	for _, s := range sections {
		pol, err := compilePolicy(s.level, s.section)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		cfg.policies[s.level] = pol
	}
	return cfg, nil
}

func compilePolicy(level notification.Urgency, sec urgencySection) (*Policy, error) {
	bg, err := parseColor(sec.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	fg, err := parseColor(sec.Foreground)
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	if sec.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %d", sec.Timeout)
	}
	p := &Policy{
		Level:      level,
		Background: bg,
		Foreground: fg,
		Timeout:    time.Duration(sec.Timeout) * time.Second,
		AutoClear:  sec.AutoClear,
		Text:       sec.Text,
	}
	for i, cc := range sec.CustomCommands {
		rule, err := compileCommand(cc)
		if err != nil {
			return nil, fmt.Errorf("custom_commands[%d]: %w", i, err)
		}
		p.Commands = append(p.Commands, rule)
	}
	return p, nil
}

func compileCommand(cc customCommand) (CommandRule, error) {
	var rule CommandRule
	if strings.TrimSpace(cc.Command) == "" {
		return rule, fmt.Errorf("command must not be empty")
	}
	if len(cc.Filter) > 0 {
		rule.Filter = make(map[string]*regexp.Regexp, len(cc.Filter))
		for field, pattern := range cc.Filter {
			switch field {
			case "app_name", "summary", "body":
			default:
				return rule, fmt.Errorf("unknown filter field %q", field)
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return rule, fmt.Errorf("filter %s: %w", field, err)
			}
			rule.Filter[field] = re
		}
	}
	cmd, err := template.Compile(cc.Command)
	if err != nil {
		return rule, err
	}
	rule.Command = cmd
	return rule, nil
}

// parseColor validates a hex color and returns its normalized "#rrggbb" form.
func parseColor(s string) (string, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c.Hex(), nil
}
