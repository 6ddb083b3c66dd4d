package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/yllada/wifi-manager/wireless"
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size int
	// Bars is how many of the four signal arcs are lit.
	Bars     int
	LitColor color.RGBA
	DimColor color.RGBA
	// Crossed draws a slash over the icon, used when the radio is off.
	Crossed    bool
	CrossColor color.RGBA
}

func baseIconConfig() IconConfig {
	return IconConfig{
		Size:       22,
		LitColor:   color.RGBA{255, 255, 255, 255}, // White
		DimColor:   color.RGBA{120, 120, 120, 255}, // Gray
		CrossColor: color.RGBA{229, 57, 53, 255},   // Red
	}
}

// IconConfigFor returns the icon configuration for a radio state.
func IconConfigFor(enabled, connected bool, level wireless.SignalLevel) IconConfig {
	cfg := baseIconConfig()
	switch {
	case !enabled:
		cfg.Crossed = true
	case !connected:
		cfg.Bars = 0
	default:
		cfg.Bars = barsFor(level)
	}
	return cfg
}

func barsFor(level wireless.SignalLevel) int {
	switch level {
	case wireless.SignalStrong:
		return 4
	case wireless.SignalGood:
		return 3
	case wireless.SignalWeak:
		return 2
	default:
		return 1
	}
}

// IconGenerator generates PNG icons for the system tray.
type IconGenerator struct {
	config IconConfig
}

// NewIconGenerator creates a new icon generator with the given config.
func NewIconGenerator(config IconConfig) *IconGenerator {
	return &IconGenerator{config: config}
}

// Generate creates a PNG icon and returns the bytes.
func (g *IconGenerator) Generate() []byte {
	size := g.config.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	g.drawArcs(img)
	if g.config.Crossed {
		g.drawCross(img)
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// drawArcs draws the dot and three arcs of the wireless symbol, fanning up
// from the bottom centre.
func (g *IconGenerator) drawArcs(img *image.RGBA) {
	size := float64(g.config.Size)
	cx, cy := size/2, size-3
	step := (size - 4) / 4

	for y := 0; y < g.config.Size; y++ {
		for x := 0; x < g.config.Size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			dx, dy := fx-cx, cy-fy
			if dy < -1 {
				continue
			}

			// Limit to a 90 degree fan.
			if dy >= 0 && math.Abs(dx) > dy+1.5 {
				continue
			}

			r := math.Hypot(dx, dy)
			band := -1
			if r <= step*0.6 {
				band = 0
			} else {
				for i := 1; i < 4; i++ {
					ring := step * float64(i+1)
					if math.Abs(r-ring) <= 0.9 {
						band = i
						break
					}
				}
			}
			if band < 0 {
				continue
			}

			if band < g.config.Bars {
				img.Set(x, y, g.config.LitColor)
			} else {
				img.Set(x, y, g.config.DimColor)
			}
		}
	}
}

// drawCross draws a diagonal slash across the image.
func (g *IconGenerator) drawCross(img *image.RGBA) {
	n := g.config.Size
	for i := 2; i < n-2; i++ {
		img.Set(i, n-1-i, g.config.CrossColor)
		img.Set(i+1, n-1-i, g.config.CrossColor)
	}
}

// iconCache holds one pre-generated icon per distinct config.
type iconCache map[IconConfig][]byte

func (c iconCache) get(cfg IconConfig) []byte {
	if icon, ok := c[cfg]; ok {
		return icon
	}
	icon := NewIconGenerator(cfg).Generate()
	c[cfg] = icon
	return icon
}
