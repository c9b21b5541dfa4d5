// Package daemon runs the single-writer event loop that owns every
// notification state transition. Bus calls, timer firings, surface input and
// config reloads are merged into one serialized stream; each event is handled
// to completion before the next is dequeued, so the store needs no locking.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/command"
	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/notification"
	"github.com/llehouerou/nudge/internal/store"
	"github.com/llehouerou/nudge/internal/surface"
	"github.com/llehouerou/nudge/internal/timeout"
)

// ErrShuttingDown is returned to bus callers racing the daemon's shutdown.
var ErrShuttingDown = errors.New("notification daemon is shutting down")

// Signaler publishes protocol signals; implemented by the bus server.
type Signaler interface {
	EmitClosed(id uint32, reason notification.CloseReason)
}

type nopSignaler struct{}

func (nopSignaler) EmitClosed(uint32, notification.CloseReason) {}

// Loop is the process-wide event loop.
type Loop struct {
	cfg      *config.Config
	store    *store.Store
	sched    *timeout.Scheduler
	matcher  *command.Matcher
	surface  *surface.Controller
	signaler Signaler
	log      zerolog.Logger

	requests chan request
	done     chan struct{}

	reload     <-chan struct{}
	loadConfig func() (*config.Config, error)
}

func New(
	cfg *config.Config,
	st *store.Store,
	sched *timeout.Scheduler,
	matcher *command.Matcher,
	surf *surface.Controller,
	log zerolog.Logger,
) *Loop {
	return &Loop{
		cfg:      cfg,
		store:    st,
		sched:    sched,
		matcher:  matcher,
		surface:  surf,
		signaler: nopSignaler{},
		log:      log,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// SetSignaler attaches the bus signal emitter. Call before Run.
func (l *Loop) SetSignaler(s Signaler) { l.signaler = s }

// SetReload attaches a config change source and the loader invoked when it
// fires. Call before Run.
func (l *Loop) SetReload(ch <-chan struct{}, load func() (*config.Config, error)) {
	l.reload = ch
	l.loadConfig = load
}

// Run drains all event sources until ctx is cancelled. It is the only
// goroutine that mutates the store, arms or cancels timers and drives the
// surface.
func (l *Loop) Run(ctx context.Context) {
	l.log.Info().Msg("event loop running")
	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return
		case req := <-l.requests:
			l.handle(req)
		case e := <-l.sched.Expired():
			if l.sched.Claim(e) {
				l.closeOne(e.ID, notification.ReasonExpired)
			} else {
				l.log.Debug().Uint32("id", e.ID).Msg("dropping stale expiry")
			}
		case d := <-l.surface.Dismissals():
			if l.closeOne(d.ID, notification.ReasonDismissedByUser) == nil {
				// dismissing a replayed history entry: nothing to close, just
				// restore the popup from the active set
				l.refresh()
			}
		case <-l.reload:
			l.reloadConfig()
		}
	}
}

func (l *Loop) handle(req request) {
	switch r := req.(type) {
	case *admitReq:
		r.reply <- l.admit(r.n)
	case *closeReq:
		r.reply <- closeReply{found: l.closeOne(r.id, r.reason) != nil}
	case *closeAllReq:
		r.reply <- l.closeAll()
	case *closeShownReq:
		r.reply <- l.closeShown()
	case *showLastReq:
		r.reply <- l.showLast()
	}
}

func (l *Loop) admit(n *notification.Notification) admitReply {
	res := l.store.Admit(n)
	id := res.Notification.ID
	if res.Replaced != nil {
		// The superseded instance closes before the caller sees its reply.
		l.sched.Cancel(id)
		l.signaler.EmitClosed(id, notification.ReasonReplaced)
	}
	l.sched.Arm(id, res.Timeout)

	pol := l.cfg.Policy(n.Urgency)
	l.matcher.Run(pol, n, n.Context(pol.Text, l.store.UnreadCount()))

	l.refresh()
	l.log.Debug().
		Uint32("id", id).
		Str("app", n.AppName).
		Stringer("urgency", n.Urgency).
		Dur("timeout", res.Timeout).
		Bool("replaced", res.Replaced != nil).
		Msg("notification admitted")
	return admitReply{id: id}
}

func (l *Loop) closeOne(id uint32, reason notification.CloseReason) *store.HistoryEntry {
	e := l.store.Close(id, reason)
	if e == nil {
		l.log.Debug().Uint32("id", id).Msg("close for unknown id ignored")
		return nil
	}
	l.sched.Cancel(id)
	l.signaler.EmitClosed(id, reason)
	l.refresh()
	l.log.Debug().Uint32("id", id).Stringer("reason", reason).Msg("notification closed")
	return e
}

func (l *Loop) closeAll() int {
	entries := l.store.CloseAll(notification.ReasonDismissedByRequest)
	for _, e := range entries {
		l.sched.Cancel(e.Notification.ID)
		l.signaler.EmitClosed(e.Notification.ID, notification.ReasonDismissedByRequest)
	}
	if len(entries) > 0 {
		l.refresh()
	}
	return len(entries)
}

func (l *Loop) closeShown() textReply {
	n := l.store.Latest()
	if n == nil {
		return textReply{text: "no active notification"}
	}
	text := fmt.Sprintf("%s: %s", n.AppName, n.Summary)
	l.closeOne(n.ID, notification.ReasonDismissedByRequest)
	return textReply{text: text}
}

func (l *Loop) showLast() textReply {
	e := l.store.LastHistory()
	if e == nil {
		return textReply{text: "history is empty"}
	}
	l.surface.ShowNotification(e.Notification, l.store.UnreadCount())
	n := e.Notification
	return textReply{text: fmt.Sprintf("%s: %s (%s, %s)", n.AppName, n.Summary, e.Reason, humanize.Time(e.ClosedAt))}
}

// refresh recomputes the visible popup and marks the shown notification as
// read.
func (l *Loop) refresh() {
	if shown := l.surface.Refresh(l.store.Active(), l.store.UnreadCount()); shown != 0 {
		l.store.MarkRead(shown)
	}
}

func (l *Loop) reloadConfig() {
	cfg, err := l.loadConfig()
	if err != nil {
		l.log.Error().Err(err).Msg("config reload failed, keeping previous configuration")
		return
	}
	l.cfg = cfg
	l.store.SetConfig(cfg)
	l.surface.SetConfig(cfg)
	l.refresh()
	l.log.Info().Msg("configuration reloaded")
}

// shutdown drains the daemon: every active notification closes, pending
// timers are cancelled and the surface is released. No signals are emitted;
// the bus connection is going away with the process.
func (l *Loop) shutdown() {
	defer close(l.done)
	entries := l.store.CloseAll(notification.ReasonDismissedByRequest)
	l.sched.Stop()
	if err := l.surface.Close(); err != nil {
		l.log.Error().Err(err).Msg("closing surface failed")
	}
	l.log.Info().Int("closed", len(entries)).Msg("event loop stopped")
}

// submit queues a request unless the loop has already stopped.
func (l *Loop) submit(r request) error {
	select {
	case l.requests <- r:
		return nil
	case <-l.done:
		return ErrShuttingDown
	}
}

// Admit implements bus.Engine.
func (l *Loop) Admit(n *notification.Notification) (uint32, error) {
	r := &admitReq{n: n, reply: make(chan admitReply, 1)}
	if err := l.submit(r); err != nil {
		return 0, err
	}
	res := <-r.reply
	return res.id, res.err
}

// Close implements bus.Engine. Closing an unknown id is a no-op, never an
// error visible to the caller.
func (l *Loop) Close(id uint32) error {
	r := &closeReq{id: id, reason: notification.ReasonDismissedByRequest, reply: make(chan closeReply, 1)}
	if err := l.submit(r); err != nil {
		return err
	}
	<-r.reply
	return nil
}

// CloseAll implements bus.Engine.
func (l *Loop) CloseAll() (int, error) {
	r := &closeAllReq{reply: make(chan int, 1)}
	if err := l.submit(r); err != nil {
		return 0, err
	}
	return <-r.reply, nil
}

// CloseShown implements bus.Engine.
func (l *Loop) CloseShown() (string, error) {
	r := &closeShownReq{reply: make(chan textReply, 1)}
	if err := l.submit(r); err != nil {
		return "", err
	}
	return (<-r.reply).text, nil
}

// ShowLast implements bus.Engine.
func (l *Loop) ShowLast() (string, error) {
	r := &showLastReq{reply: make(chan textReply, 1)}
	if err := l.submit(r); err != nil {
		return "", err
	}
	return (<-r.reply).text, nil
}
