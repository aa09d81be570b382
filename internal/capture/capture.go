// Package capture snapshots a live feed page with headless Chrome.
//
// The browser is launched through go-rod on first use and reused until
// Close. A capture opens the page, waits for the first post, scrolls to
// let the feed load more items and returns the rendered document.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/fileutil"
)

// Sentinel errors for capture operations.
var (
	ErrInvalidURL     = errors.New("invalid capture URL")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrNoPosts        = errors.New("no posts found on page")
	ErrClosed         = errors.New("capturer closed")
)

// Defaults.
const (
	DefaultScrolls     = 5
	DefaultTimeout     = 90 * time.Second
	DefaultScrollPause = 500 * time.Millisecond
	// scrollPauseStep is added to the pause after every scroll, so a slow
	// feed gets more time as the page grows.
	scrollPauseStep = 100 * time.Millisecond
)

// DefaultUserAgent mimics a desktop Chrome.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures a Capturer.
type Options struct {
	PostSelector string        // waited for after navigation, and counted
	Scrolls      int           // viewport scrolls after the first post
	ScrollPause  time.Duration // initial wait after each scroll
	Timeout      time.Duration // bound for one whole capture
	UserAgent    string
	Cookies      []Cookie
	Logger       *slog.Logger
	Clock        clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Scrolls < 0 {
		o.Scrolls = 0
	}
	if o.ScrollPause <= 0 {
		o.ScrollPause = DefaultScrollPause
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// Result is one snapshot.
type Result struct {
	URL      string
	HTML     string
	Posts    int // elements matching PostSelector in HTML
	Scrolled int
	Took     time.Duration
}

// page is the part of a browser tab a capture needs.
type page interface {
	Navigate(url string) error
	WaitFor(selector string, timeout time.Duration) error
	ScrollBy(dy float64) error
	HTML() (string, error)
	Close() error
}

// opener creates a tab configured with the user agent and cookies.
type opener interface {
	Open(ctx context.Context, userAgent string, cookies []*proto.NetworkCookieParam) (page, error)
	Close() error
}

// Capturer takes snapshots. It is safe for concurrent use; captures share
// one browser.
type Capturer struct {
	opts   Options
	post   dom.Selector
	mu     sync.Mutex
	open   opener
	closed bool
}

// New creates a Capturer. The browser is not started until Capture.
func New(opts Options) (*Capturer, error) {
	opts = opts.withDefaults()
	c := &Capturer{opts: opts, open: &rodOpener{}}
	if strings.TrimSpace(opts.PostSelector) != "" {
		sel, err := dom.Compile(opts.PostSelector)
		if err != nil {
			return nil, err
		}
		c.post = sel
	}
	return c, nil
}

// Capture loads rawURL and returns the rendered document once the feed has
// been scrolled Options.Scrolls times.
func (c *Capturer) Capture(ctx context.Context, rawURL string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := c.opts.Clock.Now()
	p, err := c.open.Open(ctx, c.opts.UserAgent, cookieParams(c.opts.Cookies, target))
	if err != nil {
		return nil, err
	}
	defer func() { _ = p.Close() }()

	log := c.opts.Logger.With("url", target)
	log.Debug("navigating")
	if err := p.Navigate(target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if !c.post.IsZero() {
		wait, err := remaining(ctx)
		if err != nil {
			return nil, err
		}
		if err := p.WaitFor(c.post.String(), wait); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %s did not appear: %v", ErrNoPosts, c.post, err)
		}
	}

	scrolled, err := c.scroll(ctx, p, log)
	if err != nil {
		return nil, err
	}

	markup, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: reading document: %v", ErrPageLoad, err)
	}

	res := &Result{
		URL:      target,
		HTML:     markup,
		Scrolled: scrolled,
		Took:     c.opts.Clock.Since(start),
	}
	if !c.post.IsZero() {
		res.Posts = countPosts(markup, c.post)
	}
	log.Info("captured", "posts", res.Posts, "scrolls", scrolled, "took", res.Took)
	return res, nil
}

// scroll moves one viewport at a time, waiting a little longer after each
// step. It stops early if ctx ends and reports how many steps completed.
func (c *Capturer) scroll(ctx context.Context, p page, log *slog.Logger) (int, error) {
	pause := c.opts.ScrollPause
	for i := range c.opts.Scrolls {
		if err := p.ScrollBy(viewportHeight); err != nil {
			return i, fmt.Errorf("%w: scrolling: %v", ErrPageLoad, err)
		}
		log.Debug("scrolled", "step", i+1, "pause", pause)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// Keep what loaded so far.
				return i + 1, nil
			}
			return i + 1, ctx.Err()
		case <-c.opts.Clock.After(pause):
		}
		pause += scrollPauseStep
	}
	return c.opts.Scrolls, nil
}

// Close shuts the browser down. Further captures fail with ErrClosed.
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.open.Close()
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !fileutil.IsURL(raw) {
		return "", fmt.Errorf("%w: %q (must start with http:// or https://)", ErrInvalidURL, raw)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

func remaining(ctx context.Context) (time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return DefaultTimeout, nil
	}
	d := time.Until(deadline)
	if d <= 0 {
		return 0, context.DeadlineExceeded
	}
	return d, nil
}

func countPosts(markup string, sel dom.Selector) int {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return 0
	}
	return len(dom.QueryAll(doc.Root(), sel))
}

// viewportHeight matches the launch window size.
const viewportHeight = 1080

// rodOpener launches Chrome lazily and hands out tabs.
type rodOpener struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func (o *rodOpener) ensureBrowser() (*rod.Browser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.browser != nil {
		return o.browser, nil
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1920,1080")

	// Pre-installed browser (Docker, CI images).
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		killProcessTree(l.PID())
		l.Cleanup()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	o.launcher = l
	o.browser = b
	return b, nil
}

func (o *rodOpener) Open(ctx context.Context, userAgent string, cookies []*proto.NetworkCookieParam) (page, error) {
	b, err := o.ensureBrowser()
	if err != nil {
		return nil, err
	}

	p, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	p = p.Context(ctx)

	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: user agent: %v", ErrPageCreate, err)
	}
	if len(cookies) > 0 {
		if err := p.SetCookies(cookies); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("%w: cookies: %v", ErrPageCreate, err)
		}
	}
	return &rodPage{p: p}, nil
}

// Close closes the browser, then kills the process tree in case Chrome
// left helpers behind.
func (o *rodOpener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.browser == nil {
		return nil
	}
	err := o.browser.Close()
	killProcessTree(o.launcher.PID())
	o.launcher.Cleanup()
	o.browser = nil
	o.launcher = nil
	return err
}

type rodPage struct {
	p *rod.Page
}

func (r *rodPage) Navigate(url string) error {
	if err := r.p.Navigate(url); err != nil {
		return err
	}
	return r.p.WaitLoad()
}

func (r *rodPage) WaitFor(selector string, timeout time.Duration) error {
	_, err := r.p.Timeout(timeout).Element(selector)
	return err
}

func (r *rodPage) ScrollBy(dy float64) error {
	return r.p.Mouse.Scroll(0, dy, 4)
}

func (r *rodPage) HTML() (string, error) {
	return r.p.HTML()
}

func (r *rodPage) Close() error {
	return r.p.Close()
}
