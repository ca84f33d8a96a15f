package rendition

import (
	"errors"
	"fmt"
)

// Rendition is one output quality tier.
type Rendition struct {
	Name        string
	Width       int
	Height      int
	BitrateKbps int
}

var defaultLadder = []Rendition{
	{Name: "240p", Width: 426, Height: 240, BitrateKbps: 400},
	{Name: "360p", Width: 640, Height: 360, BitrateKbps: 800},
	{Name: "480p", Width: 854, Height: 480, BitrateKbps: 1400},
	{Name: "720p", Width: 1280, Height: 720, BitrateKbps: 2800},
	{Name: "1080p", Width: 1920, Height: 1080, BitrateKbps: 5000},
}

// DefaultLadder returns the five fixed tiers ordered low to high.
func DefaultLadder() []Rendition {
	out := make([]Rendition, len(defaultLadder))
	copy(out, defaultLadder)
	return out
}

// Bitrate renders the rate in the form ffmpeg expects ("2800k").
func (r Rendition) Bitrate() string {
	return fmt.Sprintf("%dk", r.BitrateKbps)
}

func (r Rendition) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("rendition %q: dimensions must be positive", r.Name)
	}
	if r.BitrateKbps <= 0 {
		return fmt.Errorf("rendition %q: bitrate must be positive", r.Name)
	}
	return nil
}

func validateLadder(ladder []Rendition) error {
	if len(ladder) == 0 {
		return errors.New("rendition ladder is empty")
	}
	for _, r := range ladder {
		if err := r.validate(); err != nil {
			return err
		}
	}
	return nil
}
