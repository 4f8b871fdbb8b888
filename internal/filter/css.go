package filter

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// ApplyCSS interprets a CSS filter string of the shape the registry emits
// (space-separated filter functions with a single numeric argument) and applies
// it pixel-wise. This is the preview renderer's side of the registry contract:
// for every registry entry, ApplyCSS(entry.CSS, frame) and Apply(entry.Name,
// frame) must produce identical output.
func ApplyCSS(css string, src image.Image) (image.Image, error) {
	ops, err := parseCSS(css)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return src, nil
	}
	return applyOps(src, ops), nil
}

func parseCSS(css string) ([]op, error) {
	css = strings.TrimSpace(css)
	if css == "" || css == "none" || css == "filter-none" {
		return nil, nil
	}

	var ops []op
	for _, fn := range strings.Fields(css) {
		open := strings.IndexByte(fn, '(')
		if open < 0 || !strings.HasSuffix(fn, ")") {
			return nil, fmt.Errorf("malformed filter function %q", fn)
		}
		name := fn[:open]
		arg, err := strconv.ParseFloat(fn[open+1:len(fn)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed filter argument in %q: %w", fn, err)
		}

		switch name {
		case "grayscale":
			ops = append(ops, grayscale(arg))
		case "sepia":
			ops = append(ops, sepia(arg))
		case "saturate":
			ops = append(ops, saturate(arg))
		case "contrast":
			ops = append(ops, contrast(arg))
		case "brightness":
			ops = append(ops, brightness(arg))
		default:
			return nil, fmt.Errorf("unsupported filter function %q", name)
		}
	}
	return ops, nil
}
