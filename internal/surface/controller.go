package surface

import (
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/llehouerou/nudge/internal/config"
	"github.com/llehouerou/nudge/internal/notification"
)

// Dismissal asks the event loop to close the shown notification on behalf of
// the user.
type Dismissal struct {
	ID uint32
}

// Controller decides which notification is visible and renders it into
// frames for the windowing backend. All methods except the input forwarding
// goroutine run on the event loop.
type Controller struct {
	win Window
	cfg *config.Config
	log zerolog.Logger

	// shown is the id the popup currently displays; read by the input
	// forwarding goroutine.
	shown      atomic.Uint32
	visible    bool
	dismissals chan Dismissal
}

func NewController(win Window, cfg *config.Config, log zerolog.Logger) *Controller {
	c := &Controller{
		win:        win,
		cfg:        cfg,
		log:        log,
		dismissals: make(chan Dismissal, 4),
	}
	go c.forwardInput()
	return c
}

// Dismissals delivers user dismiss requests to the event loop.
func (c *Controller) Dismissals() <-chan Dismissal { return c.dismissals }

// SetConfig swaps the display configuration on reload.
func (c *Controller) SetConfig(cfg *config.Config) { c.cfg = cfg }

// Refresh recomputes the popup from the active set (admission order) and
// returns the id now shown, or zero when the surface is hidden.
func (c *Controller) Refresh(active []*notification.Notification, unread int) uint32 {
	if len(active) == 0 {
		c.shown.Store(0)
		if c.visible {
			if err := c.win.Hide(); err != nil {
				c.log.Error().Err(err).Msg("hiding popup failed")
			}
			c.visible = false
		}
		return 0
	}

	shown := active[len(active)-1]
	var markup string
	if c.cfg.ShowAll {
		lines := make([]string, 0, len(active))
		for i := len(active) - 1; i >= 0; i-- {
			lines = append(lines, c.render(active[i], unread))
		}
		markup = strings.Join(lines, "\n")
	} else {
		markup = c.render(shown, unread)
	}

	c.draw(shown, markup)
	c.shown.Store(shown.ID)
	return shown.ID
}

// ShowNotification paints a single notification regardless of the active
// set; used for history replay. The replayed id becomes the dismiss target so
// a click while it is on screen does not close an unrelated notification.
func (c *Controller) ShowNotification(n *notification.Notification, unread int) {
	c.draw(n, c.render(n, unread))
	c.shown.Store(n.ID)
}

// Close releases the windowing backend.
func (c *Controller) Close() error {
	return c.win.Close()
}

func (c *Controller) draw(n *notification.Notification, markup string) {
	pol := c.cfg.Policy(n.Urgency)
	frame := Frame{
		Geometry:   c.cfg.Geometry,
		FitContent: c.cfg.WrapContent,
		Font:       c.cfg.Font,
		Background: pol.Background,
		Foreground: pol.Foreground,
		Markup:     markup,
	}
	if err := c.win.Apply(frame); err != nil {
		c.log.Error().Err(err).Uint32("id", n.ID).Msg("drawing popup failed")
		return
	}
	c.visible = true
}

// render produces the display text for n, degrading to the raw summary and
// body when the template fails for this particular notification.
func (c *Controller) render(n *notification.Notification, unread int) string {
	pol := c.cfg.Policy(n.Urgency)
	text, err := c.cfg.Display.Render(n.Context(pol.Text, unread))
	if err != nil {
		c.log.Warn().Err(err).Uint32("id", n.ID).Msg("display template failed, using raw text")
		text = n.Summary
		if n.Body != "" {
			text += ": " + n.Body
		}
	}
	return text
}

func (c *Controller) forwardInput() {
	for ev := range c.win.Input() {
		if ev.Kind != InputDismiss {
			continue
		}
		id := c.shown.Load()
		if id == 0 {
			continue
		}
		select {
		case c.dismissals <- Dismissal{ID: id}:
		default: // repeated clicks while the loop is busy
		}
	}
}
