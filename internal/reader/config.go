package reader

import (
	"fmt"
	"strings"
	"time"
)

// Bounds for Config values.
const (
	MinWPM     = 50
	MaxWPM     = 1000
	DefaultWPM = 300

	MinChunkSize     = 1
	MaxChunkSize     = 5
	DefaultChunkSize = 1
)

// Config holds the user-adjustable reveal rate and chunk size.
type Config struct {
	WPM       int
	ChunkSize int
}

// DefaultConfig returns 300 WPM, one word per chunk.
func DefaultConfig() Config {
	return Config{WPM: DefaultWPM, ChunkSize: DefaultChunkSize}
}

// Clamp returns c with both fields forced into range.
func (c Config) Clamp() Config {
	c.WPM = min(max(c.WPM, MinWPM), MaxWPM)
	c.ChunkSize = min(max(c.ChunkSize, MinChunkSize), MaxChunkSize)
	return c
}

// Interval returns the time between ticks, one minute divided by WPM.
func (c Config) Interval() time.Duration {
	return time.Minute / time.Duration(c.Clamp().WPM)
}

// Mode selects how a front-end presents the current chunk. Scheduling is
// identical in both modes.
type Mode int

const (
	// ModeRSVP shows only the current chunk.
	ModeRSVP Mode = iota
	// ModeHighlight shows the whole sequence and emphasizes the current chunk.
	ModeHighlight
)

func (m Mode) String() string {
	if m == ModeHighlight {
		return "highlight"
	}
	return "rsvp"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeHighlight {
		return ModeRSVP
	}
	return ModeHighlight
}

// ParseMode parses "rsvp" or "highlight".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rsvp", "word":
		return ModeRSVP, nil
	case "highlight":
		return ModeHighlight, nil
	}
	return ModeRSVP, fmt.Errorf("unknown mode %q", s)
}
