// nudge is a popup notification daemon for the session bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/bus"
	"github.com/llehouerou/nudge/internal/command"
	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/daemon"
	"github.com/llehouerou/nudge/internal/notification"
	"github.com/llehouerou/nudge/internal/store"
	"github.com/llehouerou/nudge/internal/surface"
	"github.com/llehouerou/nudge/internal/timeout"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to the configuration file")
	flag.Parse()

	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nudge: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(cfg.Verbosity).
		With().Timestamp().Logger()
	component := func(name string) zerolog.Logger {
		return logger.With().Str("component", name).Logger()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg, component("store"))
	sched := timeout.New(component("timeout"))
	matcher := command.NewMatcher(command.NewShellExecutor(component("exec")), component("command"))
	win := surface.NewStub(component("window"))
	ctl := surface.NewController(win, cfg, component("surface"))
	loop := daemon.New(cfg, st, sched, matcher, ctl, component("daemon"))

	srv, err := bus.Connect(loop, component("bus"))
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot register on the session bus")
	}
	defer srv.Close()
	loop.SetSignaler(srv)

	if path != "" {
		reload, err := config.Watch(ctx, path, component("config"))
		if err != nil {
			logger.Warn().Err(err).Msg("config watching disabled")
		} else {
			loop.SetReload(reload, func() (*config.Config, error) { return config.LoadFile(path) })
		}
	}

	if cfg.StartupNotification {
		go func() {
			_, err := loop.Admit(&notification.Notification{
				AppName:          "nudge",
				Summary:          "nudge",
				Body:             "initialized",
				RequestedTimeout: -1,
				Urgency:          notification.UrgencyNormal,
				Timestamp:        time.Now(),
			})
			if err != nil {
				logger.Warn().Err(err).Msg("startup notification failed")
			}
		}()
	}

	loop.Run(ctx)
}
