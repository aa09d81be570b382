// Package selectors holds the host page conventions used to find posts and
// their regions.
package selectors

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/dom"
)

// ErrEmptySelector indicates a required selector is blank.
var ErrEmptySelector = errors.New("selectors: empty selector")

// Config is the uncompiled form, as read from configuration.
type Config struct {
	Post        string `yaml:"post"`        // one feed item
	Candidate   string `yaml:"candidate"`   // cheap pre-filter for mutation batches
	TextRegion  string `yaml:"textRegion"`  // post body, relative to the post
	ActionBar   string `yaml:"actionBar"`   // row of post actions, relative to the post
	Control     string `yaml:"control"`     // an injected toggle, relative to the action bar
	MarkerAttr  string `yaml:"markerAttr"`  // attribute hinting at post content
	MarkerToken string `yaml:"markerToken"` // substring of MarkerAttr's value
}

// Default returns the conventions of the X.com feed.
func Default() Config {
	return Config{
		Post:        `article[data-testid="tweet"]`,
		Candidate:   "article",
		TextRegion:  `div[data-testid="tweetText"]`,
		ActionBar:   `div[role="group"]`,
		Control:     ".xmd-button",
		MarkerAttr:  "data-testid",
		MarkerToken: "tweet",
	}
}

// Merge returns c with blank fields taken from base.
func (c Config) Merge(base Config) Config {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Config{
		Post:        pick(c.Post, base.Post),
		Candidate:   pick(c.Candidate, base.Candidate),
		TextRegion:  pick(c.TextRegion, base.TextRegion),
		ActionBar:   pick(c.ActionBar, base.ActionBar),
		Control:     pick(c.Control, base.Control),
		MarkerAttr:  pick(c.MarkerAttr, base.MarkerAttr),
		MarkerToken: pick(c.MarkerToken, base.MarkerToken),
	}
}

// Set is a compiled Config.
type Set struct {
	Post        dom.Selector
	Candidate   dom.Selector
	TextRegion  dom.Selector
	ActionBar   dom.Selector
	Control     dom.Selector
	MarkerAttr  string
	MarkerToken string
}

// Compile validates and compiles c. The marker fields may be blank, which
// disables marker matching.
func Compile(c Config) (*Set, error) {
	s := &Set{MarkerAttr: c.MarkerAttr, MarkerToken: c.MarkerToken}
	fields := []struct {
		name string
		src  string
		dst  *dom.Selector
	}{
		{"post", c.Post, &s.Post},
		{"candidate", c.Candidate, &s.Candidate},
		{"textRegion", c.TextRegion, &s.TextRegion},
		{"actionBar", c.ActionBar, &s.ActionBar},
		{"control", c.Control, &s.Control},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.src) == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptySelector, f.name)
		}
		sel, err := dom.Compile(f.src)
		if err != nil {
			return nil, fmt.Errorf("selector %s: %w", f.name, err)
		}
		*f.dst = sel
	}
	return s, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(c Config) *Set {
	s, err := Compile(c)
	if err != nil {
		panic(err)
	}
	return s
}

// HasMarker reports whether n carries the marker attribute with a value
// containing the marker token.
func (s *Set) HasMarker(n *html.Node) bool {
	if s.MarkerAttr == "" || s.MarkerToken == "" {
		return false
	}
	v, ok := dom.Attr(n, s.MarkerAttr)
	return ok && strings.Contains(v, s.MarkerToken)
}
