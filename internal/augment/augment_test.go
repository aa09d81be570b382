package augment

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/render"
	"github.com/alnah/go-xmd/internal/selectors"
	"github.com/alnah/go-xmd/internal/toggle"
)

const postTemplate = `<article data-testid="tweet"><div data-testid="tweetText" lang="en"><span>%s</span></div>` +
	`<div role="group"><div><button data-testid="reply">reply</button></div><div><button data-testid="like">like</button></div></div></article>`

func feedHTML(texts ...string) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html><body><main id="feed">`)
	for _, text := range texts {
		fmt.Fprintf(&sb, postTemplate, html.EscapeString(text))
	}
	sb.WriteString(`</main></body></html>`)
	return sb.String()
}

var errEngine = errors.New("engine refused")

// fakeEngine wraps text in <strong> and fails for texts listed in fail.
type fakeEngine struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	panic bool
}

func (f *fakeEngine) Render(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.panic {
		panic("engine exploded")
	}
	if f.fail[text] {
		return "", errEngine
	}
	return "<p><strong>" + html.EscapeString(text) + "</strong></p>", nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	doc   *dom.Document
	sel   *selectors.Set
	a     *Augmentor
	tasks chan func()
}

// newHarness builds an augmentor whose formatting results land on a
// channel, so the test goroutine plays the loop.
func newHarness(t *testing.T, engine Engine, page string) *harness {
	t.Helper()

	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	h := &harness{
		doc:   doc,
		sel:   selectors.MustCompile(selectors.Default()),
		tasks: make(chan func(), 16),
	}
	schedule := func(task func()) bool {
		h.tasks <- task
		return true
	}
	h.a = New(doc, h.sel, engine, schedule)
	return h
}

func (h *harness) posts() []*xhtml.Node {
	return dom.QueryAll(h.doc.Body(), h.sel.Post)
}

func (h *harness) augmentAll() []Outcome {
	var out []Outcome
	for _, p := range h.posts() {
		out = append(out, h.a.Augment(p))
	}
	return out
}

func (h *harness) region(post *xhtml.Node) *xhtml.Node {
	return dom.Query(post, h.sel.TextRegion)
}

func (h *harness) control(post *xhtml.Node) *xhtml.Node {
	return dom.Query(post, h.sel.Control)
}

func (h *harness) state(t *testing.T, post *xhtml.Node) toggle.State {
	t.Helper()
	s, err := h.a.State(h.control(post))
	require.NoError(t, err)
	return s
}

// runResult waits for one formatting result and applies it.
func (h *harness) runResult(t *testing.T) {
	t.Helper()
	select {
	case task := <-h.tasks:
		task()
	case <-time.After(2 * time.Second):
		t.Fatal("no formatting result arrived")
	}
}

func TestAugment_InsertsOneControlPerPost(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeEngine{}, feedHTML("one", "two"))

	assert.Equal(t, []Outcome{Augmented, Augmented}, h.augmentAll())
	assert.Equal(t, []Outcome{AlreadyAugmented, AlreadyAugmented}, h.augmentAll())

	controls := dom.QueryAll(h.doc.Body(), h.sel.Control)
	require.Len(t, controls, 2)
	assert.Equal(t, 2, h.a.Stats().Augmented)

	for _, p := range h.posts() {
		bar := dom.Query(p, h.sel.ActionBar)
		first := dom.FirstElementChild(bar)
		assert.True(t, IsControl(first), "control is the first action")

		id, ok := dom.Attr(first, AttrControlID)
		assert.True(t, ok)
		assert.NotEmpty(t, id)
		assert.Equal(t, "MD", dom.TextContent(first))
		assert.Equal(t, "raw", attr(first, AttrState))
		assert.Equal(t, ControlTestID, attr(first, "data-testid"))
		assert.Equal(t, ControlLabel, attr(first, "aria-label"))
	}
}

func TestAugment_ExistingControlIsNotDuplicated(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeEngine{}, feedHTML("one"))
	require.Equal(t, []Outcome{Augmented}, h.augmentAll())

	// A second augmentor has an empty registry but sees the control.
	other := New(h.doc, h.sel, &fakeEngine{}, func(func()) bool { return true })
	post := h.posts()[0]
	assert.Equal(t, ControlPresent, other.Augment(post))
	assert.True(t, other.Seen(post))
	assert.Len(t, dom.QueryAll(h.doc.Body(), h.sel.Control), 1)

	// The foreign control is left inert for this augmentor.
	existing := dom.Query(post, h.sel.Control)
	require.NotNil(t, existing)
	assert.ErrorIs(t, other.Activate(existing), ErrUnknownControl)
}

func TestAugment_EmptyActionBarAppends(t *testing.T) {
	t.Parallel()

	page := `<html><body><article data-testid="tweet"><div data-testid="tweetText">x</div><div role="group"> </div></article></body></html>`
	h := newHarness(t, &fakeEngine{}, page)

	require.Equal(t, []Outcome{Augmented}, h.augmentAll())
	bar := dom.Query(h.posts()[0], h.sel.ActionBar)
	assert.True(t, IsControl(bar.LastChild))
}

func TestAugment_MissingRegionsAreRetried(t *testing.T) {
	t.Parallel()

	page := `<html><body><main>` +
		`<article data-testid="tweet"><div data-testid="tweetText">no bar yet</div></article>` +
		`<article data-testid="tweet"><div role="group"></div></article>` +
		`</main></body></html>`
	h := newHarness(t, &fakeEngine{}, page)

	assert.Equal(t, []Outcome{NoActionBar, NoTextRegion}, h.augmentAll())
	posts := h.posts()
	assert.False(t, h.a.Seen(posts[0]))
	assert.False(t, h.a.Seen(posts[1]))

	require.NoError(t, h.doc.AppendChild(posts[0], dom.CreateElement("div", xhtml.Attribute{Key: "role", Val: "group"})))

	assert.Equal(t, []Outcome{Augmented, NoTextRegion}, h.augmentAll())
	assert.True(t, h.a.Seen(posts[0]))
	assert.NotNil(t, h.control(posts[0]))
}

func TestActivate_ScenarioThreeIdenticalPosts(t *testing.T) {
	t.Parallel()

	h := newHarness(t, render.New(), feedHTML("**bold**", "**bold**", "**bold**"))
	require.Equal(t, []Outcome{Augmented, Augmented, Augmented}, h.augmentAll())

	posts := h.posts()
	before := make([]string, len(posts))
	for i, p := range posts {
		before[i] = dom.InnerHTML(h.region(p))
	}

	target := posts[1]
	require.NoError(t, h.a.Activate(h.control(target)))
	assert.Equal(t, toggle.Loading, h.state(t, target))

	control := h.control(target)
	assert.Equal(t, "…", dom.TextContent(control))
	_, disabled := dom.Attr(control, "disabled")
	assert.True(t, disabled)
	assert.Equal(t, "true", attr(control, "aria-busy"))

	h.runResult(t)

	assert.Equal(t, toggle.Formatted, h.state(t, target))
	assert.Contains(t, dom.InnerHTML(h.region(target)), "<strong>bold</strong>")
	assert.True(t, dom.HasClass(h.region(target), render.FormattedClass))
	assert.Equal(t, "TXT", dom.TextContent(h.control(target)))
	_, disabled = dom.Attr(h.control(target), "disabled")
	assert.False(t, disabled)

	for _, i := range []int{0, 2} {
		assert.Equal(t, before[i], dom.InnerHTML(h.region(posts[i])), "post %d untouched", i)
		assert.Equal(t, toggle.Raw, h.state(t, posts[i]))
	}

	require.NoError(t, h.a.Activate(h.control(target)))
	assert.Equal(t, toggle.Raw, h.state(t, target))
	assert.Equal(t, before[1], dom.InnerHTML(h.region(target)))
	assert.False(t, dom.HasClass(h.region(target), render.FormattedClass))
	assert.Equal(t, "MD", dom.TextContent(h.control(target)))

	stats := h.a.Stats()
	assert.Equal(t, 1, stats.Formatted)
	assert.Equal(t, 1, stats.Restored)
	assert.True(t, h.a.Idle())
}

func TestActivate_FailureIsContained(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{fail: map[string]bool{"post A": true}}
	h := newHarness(t, engine, feedHTML("post A", "post B"))
	h.augmentAll()
	posts := h.posts()
	beforeA := dom.InnerHTML(h.region(posts[0]))

	require.NoError(t, h.a.Activate(h.control(posts[0])))
	require.NoError(t, h.a.Activate(h.control(posts[1])))
	h.runResult(t)
	h.runResult(t)

	assert.Equal(t, toggle.Error, h.state(t, posts[0]))
	assert.Equal(t, beforeA, dom.InnerHTML(h.region(posts[0])))
	assert.Equal(t, "MD", dom.TextContent(h.control(posts[0])))
	_, busy := dom.Attr(h.control(posts[0]), "aria-busy")
	assert.False(t, busy)

	assert.Equal(t, toggle.Formatted, h.state(t, posts[1]))
	assert.Contains(t, dom.InnerHTML(h.region(posts[1])), "<strong>post B</strong>")
	assert.Equal(t, 1, h.a.Stats().RenderFailures)

	// Error behaves like Raw on the next press.
	delete(engine.fail, "post A")
	require.NoError(t, h.a.Activate(h.control(posts[0])))
	h.runResult(t)
	assert.Equal(t, toggle.Formatted, h.state(t, posts[0]))
}

func TestActivate_IgnoredWhileLoading(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	h := newHarness(t, engine, feedHTML("text"))
	h.augmentAll()
	control := h.control(h.posts()[0])

	require.NoError(t, h.a.Activate(control))
	require.NoError(t, h.a.Activate(control))
	require.NoError(t, h.a.Activate(control))
	h.runResult(t)

	assert.Equal(t, 1, engine.callCount())
	assert.Equal(t, 2, h.a.Stats().IgnoredActivations)
	assert.Equal(t, toggle.Formatted, h.state(t, h.posts()[0]))

	select {
	case <-h.tasks:
		t.Fatal("a second render was started")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestActivate_LateResultForRemovedPost(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeEngine{}, feedHTML("gone soon"))
	h.augmentAll()
	post := h.posts()[0]
	region := h.region(post)
	control := h.control(post)
	before := dom.InnerHTML(region)

	require.NoError(t, h.a.Activate(control))
	require.NoError(t, h.doc.RemoveChild(post.Parent, post))

	require.NotPanics(t, func() { h.runResult(t) })
	assert.Equal(t, before, dom.InnerHTML(region), "detached region is not written")
	assert.True(t, h.a.Idle())
}

func TestActivate_EnginePanicBecomesError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeEngine{panic: true}, feedHTML("text"))
	h.augmentAll()
	post := h.posts()[0]

	require.NoError(t, h.a.Activate(h.control(post)))
	h.runResult(t)

	assert.Equal(t, toggle.Error, h.state(t, post))
	assert.Equal(t, 1, h.a.Stats().RenderFailures)
}

func TestActivate_UsesLiveText(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	h := newHarness(t, engine, feedHTML("first"))
	h.augmentAll()
	post := h.posts()[0]

	require.NoError(t, h.a.Activate(h.control(post)))
	h.runResult(t)
	require.NoError(t, h.a.Activate(h.control(post)))

	require.NoError(t, h.doc.SetText(h.region(post), "edited"))
	require.NoError(t, h.a.Activate(h.control(post)))
	h.runResult(t)

	assert.Equal(t, []string{"first", "edited"}, engine.calls)
}

func TestActivate_UnknownControl(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeEngine{}, feedHTML("x"))
	err := h.a.Activate(dom.CreateElement("button"))
	assert.ErrorIs(t, err, ErrUnknownControl)

	_, err = h.a.State(nil)
	assert.ErrorIs(t, err, ErrUnknownControl)
}

func attr(n *xhtml.Node, key string) string {
	v, _ := dom.Attr(n, key)
	return v
}
