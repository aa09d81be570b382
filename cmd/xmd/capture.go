package main

import (
	"bytes"
	"context"
	"fmt"

	xmd "github.com/alnah/go-xmd"
	"github.com/alnah/go-xmd/internal/capture"
	"github.com/alnah/go-xmd/internal/config"
)

// runCapture snapshots a live feed with headless Chrome, optionally
// augmenting it before writing.
func runCapture(ctx context.Context, args []string, env *Environment, hc *hintContext) error {
	f, pos, err := parseCaptureFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return fmt.Errorf("%w: capture takes exactly one URL", ErrUsage)
	}
	target, err := capture.ValidateURL(pos[0])
	if err != nil {
		return err
	}

	s, err := loadSettings(env, f.common, hc, func(cfg *config.Config) {
		if f.scrolls >= 0 {
			cfg.Capture.Scrolls = f.scrolls
		}
		if f.timeout > 0 {
			cfg.Capture.Timeout = f.timeout
		}
	})
	if err != nil {
		return err
	}

	var cookies []capture.Cookie
	if f.cookies != "" {
		if cookies, err = capture.LoadCookies(f.cookies, env.Now()); err != nil {
			return err
		}
		hc.cookies = len(cookies) > 0
		s.logger.Debug("cookies loaded", "count", len(cookies))
	}

	c, err := env.NewCapturer(capture.Options{
		PostSelector: s.cfg.Selectors.Post,
		Scrolls:      s.cfg.Capture.Scrolls,
		Timeout:      s.cfg.Capture.Timeout,
		UserAgent:    s.cfg.Capture.UserAgent,
		Cookies:      cookies,
		Logger:       s.logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", xmd.ErrInvalidConfig, err)
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			s.logger.Warn("closing browser", "error", cerr)
		}
	}()

	res, err := c.Capture(ctx, target)
	if err != nil {
		return err
	}
	if res.Posts == 0 {
		return fmt.Errorf("%w: %s", capture.ErrNoPosts, target)
	}

	out := []byte(res.HTML)
	if f.augment {
		doc, err := xmd.ParseDocument(bytes.NewReader(out))
		if err != nil {
			return fmt.Errorf("%w: parsing capture: %v", ErrReadInput, err)
		}
		if out, _, err = augmentDocument(ctx, doc, augmentOptions{}, s); err != nil {
			return err
		}
	}

	if err := writeOutput(f.output, out, env.Stdout); err != nil {
		return err
	}
	s.logger.Info("captured feed", "url", target, "posts", res.Posts, "took", res.Took)
	return nil
}
