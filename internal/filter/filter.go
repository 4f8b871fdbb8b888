// Package filter holds the fixed catalog of visual filters applied to video
// frames. Each entry maps one selection to a CSS filter string consumed by the
// live preview and to an equivalent in-process pixel transform consumed by the
// compositor, so the exported file matches what the preview showed.
package filter

import (
	"fmt"
	"image"
)

// Selection identifies one visual filter. The set is closed: values outside
// the four members below never enter the system (Parse rejects them).
type Selection string

const (
	None    Selection = "None"
	Noir    Selection = "Noir"
	Vintage Selection = "Vintage"
	Vibrant Selection = "Vibrant"
)

// Entry is one registry member. CSS is the style string the preview applies
// verbatim; the pixel ops behind Apply implement the same functions with the
// same parameters.
type Entry struct {
	Name Selection
	CSS  string

	ops []op
}

var registry = []Entry{
	{Name: None, CSS: "filter-none", ops: nil},
	{Name: Noir, CSS: "grayscale(1) contrast(1.1)", ops: []op{grayscale(1), contrast(1.1)}},
	{Name: Vintage, CSS: "sepia(0.7) contrast(0.9) brightness(1.1)", ops: []op{sepia(0.7), contrast(0.9), brightness(1.1)}},
	{Name: Vibrant, CSS: "saturate(1.5) contrast(1.1)", ops: []op{saturate(1.5), contrast(1.1)}},
}

// Entries returns the registry in declaration order.
func Entries() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}

// Parse maps a name onto a registry member. Unknown names are an error, not a
// passthrough: the AI recommendation path must not smuggle values from outside
// the closed set into the session.
func Parse(name string) (Selection, error) {
	for _, e := range registry {
		if string(e.Name) == name {
			return e.Name, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", name)
}

// CSS returns the preview style string for a selection. Unknown selections
// degrade to the identity style, mirroring the preview's fallback.
func CSS(sel Selection) string {
	for _, e := range registry {
		if e.Name == sel {
			return e.CSS
		}
	}
	return "filter-none"
}

// Apply runs the pixel transform for a selection over a frame and returns the
// transformed copy. None (and unknown selections) return the input unchanged.
func Apply(sel Selection, src image.Image) image.Image {
	for _, e := range registry {
		if e.Name == sel {
			if len(e.ops) == 0 {
				return src
			}
			return applyOps(src, e.ops)
		}
	}
	return src
}
