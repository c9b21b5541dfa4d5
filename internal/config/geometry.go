package config

import (
	"fmt"
	"regexp"
	"strconv"
)

// Geometry is the popup window placement, parsed from the configuration
// string "<width>x<height>+<x>+<y>".
type Geometry struct {
	Width  uint32
	Height uint32
	X      uint32
	Y      uint32
}

var geometryPattern = regexp.MustCompile(`^(\d+)x(\d+)\+(\d+)\+(\d+)$`)

// ParseGeometry parses a geometry string like "400x60+20+20". The whole
// string must match; trailing garbage is an error.
func ParseGeometry(s string) (Geometry, error) {
	m := geometryPattern.FindStringSubmatch(s)
	if m == nil {
		return Geometry{}, fmt.Errorf("invalid geometry %q, want <width>x<height>+<x>+<y>", s)
	}
	fields := [4]uint32{}
	for i := range fields {
		v, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil {
			return Geometry{}, fmt.Errorf("invalid geometry %q: %w", s, err)
		}
		fields[i] = uint32(v)
	}
	return Geometry{Width: fields[0], Height: fields[1], X: fields[2], Y: fields[3]}, nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.X, g.Y)
}
