package surface

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/notification"
)

// fakeWindow records frames and lets tests inject input events.
type fakeWindow struct {
	mu     sync.Mutex
	frames []Frame
	hides  int
	input  chan InputEvent
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{input: make(chan InputEvent)}
}

func (w *fakeWindow) Apply(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, f)
	return nil
}

func (w *fakeWindow) Hide() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hides++
	return nil
}

func (w *fakeWindow) Input() <-chan InputEvent { return w.input }

func (w *fakeWindow) Close() error {
	close(w.input)
	return nil
}

func (w *fakeWindow) lastFrame(t *testing.T) Frame {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.frames) == 0 {
		t.Fatal("no frame drawn")
	}
	return w.frames[len(w.frames)-1]
}

func loadConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := ""
	if content != "" {
		path = filepath.Join(t.TempDir(), "nudge.toml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func active(summaries ...string) []*notification.Notification {
	out := make([]*notification.Notification, 0, len(summaries))
	for i, s := range summaries {
		out = append(out, &notification.Notification{
			ID:      uint32(i + 1),
			AppName: "test",
			Summary: s,
			Urgency: notification.UrgencyNormal,
		})
	}
	return out
}

func TestRefresh_ShowsLatest(t *testing.T) {
	win := newFakeWindow()
	c := NewController(win, loadConfig(t, "[global]\ntemplate = \"{{.summary}}\"\n"), zerolog.Nop())
	defer c.Close()

	shown := c.Refresh(active("old", "new"), 2)

	if shown != 2 {
		t.Errorf("Refresh returned %d, want 2", shown)
	}
	if f := win.lastFrame(t); f.Markup != "new" {
		t.Errorf("markup = %q, want new", f.Markup)
	}
}

func TestRefresh_ShowAllStacksNewestFirst(t *testing.T) {
	win := newFakeWindow()
	cfg := loadConfig(t, "[global]\ntemplate = \"{{.summary}}\"\nshow_all = true\n")
	c := NewController(win, cfg, zerolog.Nop())
	defer c.Close()

	c.Refresh(active("a", "b", "c"), 3)

	if f := win.lastFrame(t); f.Markup != "c\nb\na" {
		t.Errorf("markup = %q, want stacked newest first", f.Markup)
	}
}

func TestRefresh_EmptyHidesWindow(t *testing.T) {
	win := newFakeWindow()
	c := NewController(win, loadConfig(t, ""), zerolog.Nop())
	defer c.Close()

	c.Refresh(active("only"), 1)
	if shown := c.Refresh(nil, 0); shown != 0 {
		t.Errorf("Refresh(nil) = %d, want 0", shown)
	}

	win.mu.Lock()
	defer win.mu.Unlock()
	if win.hides != 1 {
		t.Errorf("hides = %d, want 1", win.hides)
	}
}

func TestRefresh_PolicyColorsAndGeometry(t *testing.T) {
	win := newFakeWindow()
	cfg := loadConfig(t, `
[global]
geometry = "500x80+5+5"
[urgency_critical]
background = "#cc241d"
foreground = "#ebdbb2"
`)
	c := NewController(win, cfg, zerolog.Nop())
	defer c.Close()

	ns := active("alert")
	ns[0].Urgency = notification.UrgencyCritical
	c.Refresh(ns, 1)

	f := win.lastFrame(t)
	if f.Background != "#cc241d" || f.Foreground != "#ebdbb2" {
		t.Errorf("colors = %s/%s, want critical policy colors", f.Background, f.Foreground)
	}
	if f.Geometry != (config.Geometry{Width: 500, Height: 80, X: 5, Y: 5}) {
		t.Errorf("geometry = %+v", f.Geometry)
	}
}

func TestRender_FallbackOnTemplateFailure(t *testing.T) {
	win := newFakeWindow()
	// .icon is not a context key, so rendering fails for every notification
	cfg := loadConfig(t, "[global]\ntemplate = \"{{.icon}}\"\n")
	c := NewController(win, cfg, zerolog.Nop())
	defer c.Close()

	ns := active("ping")
	ns[0].Body = "hello"
	c.Refresh(ns, 1)

	if f := win.lastFrame(t); f.Markup != "ping: hello" {
		t.Errorf("fallback markup = %q, want \"ping: hello\"", f.Markup)
	}
}

func TestInput_DismissalCarriesShownID(t *testing.T) {
	win := newFakeWindow()
	c := NewController(win, loadConfig(t, ""), zerolog.Nop())
	defer c.Close()

	c.Refresh(active("a", "b"), 2)
	win.input <- InputEvent{Kind: InputDismiss}

	select {
	case d := <-c.Dismissals():
		if d.ID != 2 {
			t.Errorf("dismissal for id %d, want 2", d.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no dismissal forwarded")
	}
}

func TestInput_IgnoredWhenNothingShown(t *testing.T) {
	win := newFakeWindow()
	c := NewController(win, loadConfig(t, ""), zerolog.Nop())
	defer c.Close()

	win.input <- InputEvent{Kind: InputDismiss}

	select {
	case d := <-c.Dismissals():
		t.Errorf("unexpected dismissal %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestShowNotification_BecomesDismissTarget(t *testing.T) {
	win := newFakeWindow()
	c := NewController(win, loadConfig(t, ""), zerolog.Nop())
	defer c.Close()

	c.Refresh(active("a", "b"), 2)
	c.ShowNotification(&notification.Notification{ID: 7, Summary: "replayed"}, 0)

	win.input <- InputEvent{Kind: InputDismiss}

	select {
	case d := <-c.Dismissals():
		if d.ID != 7 {
			t.Errorf("dismissal for id %d, want the replayed 7", d.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no dismissal forwarded")
	}
}

func TestShowNotification(t *testing.T) {
	win := newFakeWindow()
	c := NewController(win, loadConfig(t, "[global]\ntemplate = \"{{.summary}}\"\n"), zerolog.Nop())
	defer c.Close()

	c.ShowNotification(&notification.Notification{ID: 7, Summary: "from history"}, 0)

	if f := win.lastFrame(t); f.Markup != "from history" {
		t.Errorf("markup = %q, want from history", f.Markup)
	}
}
