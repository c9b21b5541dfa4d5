package surface

import (
	"github.com/rs/zerolog"
)

// stubWindow is used when no windowing backend is wired in: frames are
// logged instead of drawn and no input ever arrives.
type stubWindow struct {
	log   zerolog.Logger
	input chan InputEvent
}

// NewStub returns a Window that logs frames instead of drawing them.
func NewStub(log zerolog.Logger) Window {
	return &stubWindow{log: log, input: make(chan InputEvent)}
}

func (w *stubWindow) Apply(f Frame) error {
	w.log.Info().
		Str("geometry", f.Geometry.String()).
		Str("background", f.Background).
		Str("foreground", f.Foreground).
		Str("markup", f.Markup).
		Msg("draw")
	return nil
}

func (w *stubWindow) Hide() error { return nil }

func (w *stubWindow) Input() <-chan InputEvent { return w.input }

func (w *stubWindow) Close() error {
	close(w.input)
	return nil
}
