package main

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-xmd/internal/config"
	"github.com/alnah/go-xmd/internal/render"
)

// runRender formats text from a file or stdin and prints the HTML fragment.
func runRender(ctx context.Context, args []string, env *Environment, hc *hintContext) error {
	f, pos, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(pos) > 1 {
		return fmt.Errorf("%w: render takes one input, got %d", ErrUsage, len(pos))
	}

	s, err := loadSettings(env, f.common, hc, func(cfg *config.Config) {
		if f.style.style != "" {
			cfg.Render.Style = f.style.style
		}
		if f.fallback {
			cfg.Render.Fallback = true
		}
	})
	if err != nil {
		return err
	}

	input := "-"
	if len(pos) == 1 {
		input = pos[0]
	}
	text, err := readInput(input, env.Stdin, maxTextBytes)
	if err != nil {
		return err
	}

	if s.cfg.Render.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Render.Timeout)
		defer cancel()
	}

	fragment, err := newEngine(s).Render(ctx, string(text))
	if err != nil {
		return err
	}

	out := fragment
	if f.page {
		css := ""
		if !f.style.noStyle {
			if css, err = render.Stylesheet(s.cfg.Render.Style); err != nil {
				return err
			}
		}
		out = standalonePage(input, fragment, css)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return writeOutput(f.output, []byte(out), env.Stdout)
}

// standalonePage wraps a fragment in a minimal document.
func standalonePage(title, fragment, css string) string {
	if title == "" || title == "-" {
		title = "stdin"
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>")
	if css != "" {
		b.WriteString("<style>")
		b.WriteString(strings.ReplaceAll(css, "</", `<\/`))
		b.WriteString("</style>")
	}
	b.WriteString("</head><body><div class=\"")
	b.WriteString(render.FormattedClass)
	b.WriteString("\">\n")
	b.WriteString(fragment)
	b.WriteString("</div></body></html>")
	return b.String()
}
