package render

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used for code blocks.
const DefaultStyle = "github"

// ErrUnknownStyle is returned for a style chroma does not ship.
var ErrUnknownStyle = errors.New("render: unknown highlight style")

// FormattedClass marks a text region that currently shows formatted markup.
const FormattedClass = "xmd-rendered"

const regionCSS = `.xmd-rendered { white-space: normal; }
.xmd-rendered pre { overflow-x: auto; padding: 8px 12px; border-radius: 6px; }
.xmd-rendered code { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.9em; }
.xmd-rendered table { border-collapse: collapse; margin: 8px 0; }
.xmd-rendered th, .xmd-rendered td { border: 1px solid rgb(83, 100, 113); padding: 4px 8px; }
.xmd-rendered blockquote { border-left: 3px solid rgb(83, 100, 113); margin: 4px 0; padding-left: 10px; }
.xmd-rendered mark { padding: 0 2px; }
.xmd-button { cursor: pointer; font-weight: 700; }
.xmd-button[aria-busy="true"] { opacity: 0.5; cursor: progress; }
`

// Styles returns the names of the available highlight styles, sorted.
func Styles() []string {
	names := make([]string, 0, len(styles.Registry))
	for name := range styles.Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stylesheet returns the CSS for formatted regions and chroma classes in the
// given style. An empty style selects DefaultStyle.
func Stylesheet(style string) (string, error) {
	if style == "" {
		style = DefaultStyle
	}
	s, ok := styles.Registry[strings.ToLower(style)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}

	var buf bytes.Buffer
	buf.WriteString(regionCSS)
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, s); err != nil {
		return "", fmt.Errorf("writing %s highlight css: %w", style, err)
	}
	return buf.String(), nil
}
