package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/net/html"

	xmd "github.com/alnah/go-xmd"
	"github.com/alnah/go-xmd/internal/config"
	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/render"
	"github.com/alnah/go-xmd/internal/selectors"
)

// augmentOptions controls one augmentation run.
type augmentOptions struct {
	formatAll      bool
	stream         bool
	streamInterval time.Duration
	noStyle        bool
}

// runAugment loads a snapshot, lets the extension augment it and writes
// the resulting document.
func runAugment(ctx context.Context, args []string, env *Environment, hc *hintContext) error {
	f, pos, err := parseAugmentFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(pos) > 1 {
		return fmt.Errorf("%w: augment takes one input, got %d", ErrUsage, len(pos))
	}
	if f.stream && f.streamInterval <= 0 {
		return fmt.Errorf("%w: --stream-interval must be positive", ErrUsage)
	}

	s, err := loadSettings(env, f.common, hc, func(cfg *config.Config) {
		if f.style.style != "" {
			cfg.Render.Style = f.style.style
		}
		if f.debounce > 0 {
			cfg.Watch.Debounce = f.debounce
		}
	})
	if err != nil {
		return err
	}

	input := "-"
	if len(pos) == 1 {
		input = pos[0]
	}
	data, err := readSnapshot(input, env.Stdin)
	if err != nil {
		return err
	}

	doc, err := xmd.ParseDocument(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: parsing snapshot: %v", ErrReadInput, err)
	}

	out, st, err := augmentDocument(ctx, doc, augmentOptions{
		formatAll:      f.formatAll,
		stream:         f.stream,
		streamInterval: f.streamInterval,
		noStyle:        f.style.noStyle,
	}, s)
	if err != nil {
		return err
	}

	if err := writeOutput(f.output, out, env.Stdout); err != nil {
		return err
	}
	s.logger.Info("augmented snapshot",
		"posts", st.Tracked,
		"formatted", st.Formatted,
		"failures", st.RenderFailures,
		"scans", st.Scans,
	)
	return nil
}

// newEngine builds the formatter from the render settings.
func newEngine(s *settings) *render.Renderer {
	return render.New(
		render.WithHardWraps(s.cfg.Render.HardWraps),
		render.WithMaxInputBytes(s.cfg.Render.MaxInputBytes),
		render.WithFallback(s.cfg.Render.Fallback),
		render.WithLogger(s.logger),
	)
}

// augmentDocument runs an Extension over doc until it is idle and returns
// the rendered document.
func augmentDocument(ctx context.Context, doc *xmd.Document, o augmentOptions, s *settings) ([]byte, xmd.Stats, error) {
	var pending []detachedPost
	if o.stream {
		set, err := selectors.Compile(s.cfg.Selectors)
		if err != nil {
			return nil, xmd.Stats{}, fmt.Errorf("%w: %v", xmd.ErrInvalidConfig, err)
		}
		if pending, err = detachPosts(doc, set.Post); err != nil {
			return nil, xmd.Stats{}, err
		}
	}

	opts := []xmd.Option{
		xmd.WithEngine(newEngine(s)),
		xmd.WithLogger(s.logger),
		xmd.WithSelectors(s.cfg.Selectors),
	}
	if s.cfg.Watch.Debounce > 0 {
		opts = append(opts, xmd.WithDebounce(s.cfg.Watch.Debounce))
	}
	if s.cfg.Render.Timeout > 0 {
		opts = append(opts, xmd.WithRenderTimeout(s.cfg.Render.Timeout))
	}

	x, err := xmd.New(doc, opts...)
	if err != nil {
		return nil, xmd.Stats{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() { errc <- x.Run(runCtx) }()

	out, st, err := drive(runCtx, x, pending, o, s)
	cancel()
	if runErr := <-errc; runErr != nil && err == nil {
		err = runErr
	}
	return out, st, err
}

func drive(ctx context.Context, x *xmd.Extension, pending []detachedPost, o augmentOptions, s *settings) ([]byte, xmd.Stats, error) {
	select {
	case <-x.Ready():
	case <-x.Done():
		return nil, xmd.Stats{}, xmd.ErrStopped
	case <-ctx.Done():
		return nil, xmd.Stats{}, ctx.Err()
	}

	for i, p := range pending {
		if err := x.Update(ctx, func(doc *xmd.Document) error {
			return doc.AppendChild(p.parent, p.post)
		}); err != nil {
			return nil, xmd.Stats{}, fmt.Errorf("streaming post %d: %w", i+1, err)
		}
		if i == len(pending)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, xmd.Stats{}, ctx.Err()
		case <-time.After(o.streamInterval):
		}
	}
	if err := x.WaitIdle(ctx); err != nil {
		return nil, xmd.Stats{}, err
	}

	if o.formatAll {
		controls, err := x.Controls(ctx)
		if err != nil {
			return nil, xmd.Stats{}, err
		}
		for _, c := range controls {
			if err := x.Activate(ctx, c); err != nil {
				return nil, xmd.Stats{}, err
			}
		}
		if err := x.WaitIdle(ctx); err != nil {
			return nil, xmd.Stats{}, err
		}
	}

	if !o.noStyle {
		css, err := xmd.Stylesheet(s.cfg.Render.Style)
		if err != nil {
			return nil, xmd.Stats{}, err
		}
		if err := x.Update(ctx, func(doc *xmd.Document) error {
			return xmd.InjectStylesheet(doc, css)
		}); err != nil {
			return nil, xmd.Stats{}, err
		}
	}

	var buf bytes.Buffer
	if err := x.Render(ctx, &buf); err != nil {
		return nil, xmd.Stats{}, err
	}
	st, err := x.Stats(ctx)
	if err != nil {
		return nil, xmd.Stats{}, err
	}
	return buf.Bytes(), st, nil
}

// detachedPost is a post removed from the document for streaming.
type detachedPost struct {
	parent *html.Node
	post   *html.Node
}

// detachPosts removes every top-level post from doc, in document order.
// Posts nested in another post travel with it.
func detachPosts(doc *xmd.Document, post dom.Selector) ([]detachedPost, error) {
	var out []detachedPost
	for _, p := range dom.QueryAll(doc.Root(), post) {
		if !doc.Contains(p) {
			continue
		}
		parent := p.Parent
		if err := doc.RemoveChild(parent, p); err != nil {
			return nil, err
		}
		out = append(out, detachedPost{parent: parent, post: p})
	}
	return out, nil
}
