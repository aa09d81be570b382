// Package render converts a post's plain text into formatted HTML.
//
// The output is an HTML fragment meant to replace the content of a post's
// text region. Raw HTML in the input is never passed through.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// DefaultMaxInputBytes bounds the text accepted by Render.
const DefaultMaxInputBytes = 64 * 1024

// Sentinel errors for rendering.
var (
	ErrEmptyText     = errors.New("render: empty text")
	ErrInputTooLarge = errors.New("render: input too large")
	ErrConversion    = errors.New("render: conversion failed")
)

type convertFunc func(src []byte, w *bytes.Buffer) error

// Renderer formats markdown text with goldmark. It is safe for concurrent use.
type Renderer struct {
	convert       convertFunc
	hardWraps     bool
	maxInputBytes int
	fallback      bool
	logger        *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHardWraps controls whether single newlines become line breaks.
// Enabled by default.
func WithHardWraps(enabled bool) Option {
	return func(r *Renderer) { r.hardWraps = enabled }
}

// WithMaxInputBytes sets the input size limit. Values <= 0 keep the default.
func WithMaxInputBytes(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxInputBytes = n
		}
	}
}

// WithFallback makes conversion failures return the escaped text with <br>
// line breaks instead of an error.
func WithFallback(enabled bool) Option {
	return func(r *Renderer) { r.fallback = enabled }
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func withConvert(fn convertFunc) Option {
	return func(r *Renderer) { r.convert = fn }
}

// New creates a Renderer with GFM and syntax highlighting.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		hardWraps:     true,
		maxInputBytes: DefaultMaxInputBytes,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.convert == nil {
		md := newMarkdown(r.hardWraps)
		r.convert = func(src []byte, w *bytes.Buffer) error {
			return md.Convert(src, w)
		}
	}
	return r
}

func newMarkdown(hardWraps bool) goldmark.Markdown {
	rendererOpts := []renderer.Option{gmhtml.WithXHTML()}
	if hardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}

	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		// No html.WithUnsafe: raw HTML in posts is dropped.
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// Render converts text to an HTML fragment. It honors ctx cancellation and
// never panics.
func (r *Renderer) Render(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if len(text) > r.maxInputBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(text), r.maxInputBytes)
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrConversion, p)}
			}
		}()
		var buf bytes.Buffer
		if err := r.convert([]byte(preprocess(text)), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConversion, err)}
			return
		}
		done <- result{html: convertMarkPlaceholders(buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil && r.fallback {
			r.logger.Warn("formatting failed, using plain text", "error", res.err)
			return Fallback(text), nil
		}
		return res.html, res.err
	}
}

// Fallback returns text escaped for HTML with newlines as <br>.
func Fallback(text string) string {
	return strings.ReplaceAll(html.EscapeString(normalizeLineEndings(text)), "\n", "<br>")
}
