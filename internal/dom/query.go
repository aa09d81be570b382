package dom

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrInvalidSelector indicates a CSS selector failed to compile.
var ErrInvalidSelector = errors.New("dom: invalid selector")

// Selector is a compiled CSS selector group.
type Selector struct {
	raw   string
	group cascadia.SelectorGroup
}

// Compile parses a CSS selector group such as `article[data-testid="tweet"]`.
func Compile(sel string) (Selector, error) {
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, sel, err)
	}
	return Selector{raw: sel, group: group}, nil
}

// MustCompile is like Compile but panics on error. Use for constants.
func MustCompile(sel string) Selector {
	s, err := Compile(sel)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the source selector.
func (s Selector) String() string {
	return s.raw
}

// IsZero reports whether the selector was never compiled.
func (s Selector) IsZero() bool {
	return s.group == nil
}

// Match reports whether n itself matches.
func (s Selector) Match(n *html.Node) bool {
	if s.group == nil || !IsElement(n) {
		return false
	}
	return s.group.Match(n)
}

// Query returns the first descendant of root matching s, excluding root.
func Query(root *html.Node, s Selector) *html.Node {
	if root == nil || s.group == nil {
		return nil
	}
	return cascadia.Query(root, s.group)
}

// QueryAll returns every descendant of root matching s in document order,
// excluding root.
func QueryAll(root *html.Node, s Selector) []*html.Node {
	if root == nil || s.group == nil {
		return nil
	}
	return cascadia.QueryAll(root, s.group)
}
