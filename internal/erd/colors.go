package erd

import (
	"hash/fnv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dataversedocs/blueprint/internal/model"
)

// wellKnownColors pins stable colors for publishers that show up in
// most environments. Everything else gets a hash-derived color.
var wellKnownColors = map[string]string{
	model.PlatformOwner: "#4e79a7",
	"msdyn":             "#59a14f",
	"mscrm":             "#9c755f",
	"adx":               "#af7aa1",
	"new":               "#f28e2b",
}

// OwnerColor returns the fill color for an owner bucket. Well-known
// owners use the pinned table; all others derive a color from an FNV
// hash of the normalized owner key, so the same owner gets the same
// color across runs.
func OwnerColor(owner string) string {
	key := strings.ToLower(strings.TrimSpace(owner))
	if c, ok := wellKnownColors[key]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsl(hue, 0.55, 0.45).Hex()
}

// TextColor picks a contrasting text color for the given hex fill:
// dark text on light fills, light text on dark fills, using perceived
// luminance.
func TextColor(hexFill string) string {
	c, err := colorful.Hex(hexFill)
	if err != nil {
		return "#ffffff"
	}
	luminance := 0.299*c.R + 0.587*c.G + 0.114*c.B
	if luminance > 0.5 {
		return "#111111"
	}
	return "#ffffff"
}
