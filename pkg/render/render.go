package render

import (
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/flow"
)

// Output format names.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatDOT: true,
	FormatPNG: true,
}

// ValidateFormat checks that a format name is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be one of: svg, dot, png)", format)
	}
	return nil
}

// ValidateFormats checks every format in the list.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Render produces the requested artifact formats for a laid-out
// document, keyed by format name.
func Render(doc *flow.Graph, formats []string) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(formats))
	for _, f := range formats {
		switch f {
		case FormatSVG:
			data, err := SVG(doc)
			if err != nil {
				return nil, err
			}
			out[f] = data
		case FormatDOT:
			out[f] = []byte(ToDOT(doc))
		case FormatPNG:
			data, err := PNG(doc)
			if err != nil {
				return nil, err
			}
			out[f] = data
		}
	}
	return out, nil
}
