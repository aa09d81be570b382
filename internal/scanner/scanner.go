// Package scanner finds posts in the document and hands each one to the
// augmentor.
package scanner

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/augment"
	"github.com/alnah/go-xmd/internal/dom"
)

// Augmenter processes one post.
type Augmenter interface {
	Augment(post *html.Node) augment.Outcome
}

// Report counts the outcomes of one scan.
type Report struct {
	Found            int
	Augmented        int
	AlreadyAugmented int
	NoTextRegion     int
	NoActionBar      int
	ControlPresent   int
	Failed           int
}

func (r *Report) add(o augment.Outcome) {
	switch o {
	case augment.Augmented:
		r.Augmented++
	case augment.AlreadyAugmented:
		r.AlreadyAugmented++
	case augment.NoTextRegion:
		r.NoTextRegion++
	case augment.NoActionBar:
		r.NoActionBar++
	case augment.ControlPresent:
		r.ControlPresent++
	default:
		r.Failed++
	}
}

// Merge adds o's counters to r.
func (r *Report) Merge(o Report) {
	r.Found += o.Found
	r.Augmented += o.Augmented
	r.AlreadyAugmented += o.AlreadyAugmented
	r.NoTextRegion += o.NoTextRegion
	r.NoActionBar += o.NoActionBar
	r.ControlPresent += o.ControlPresent
	r.Failed += o.Failed
}

// Scanner runs on the loop that owns the document.
type Scanner struct {
	doc       *dom.Document
	post      dom.Selector
	augmenter Augmenter
	logger    *slog.Logger
}

// New creates a Scanner. A nil logger discards output.
func New(doc *dom.Document, post dom.Selector, augmenter Augmenter, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{doc: doc, post: post, augmenter: augmenter, logger: logger}
}

// Scan queries the whole document for posts and augments each of them.
func (s *Scanner) Scan() Report {
	var r Report
	posts := dom.QueryAll(s.doc.Root(), s.post)
	r.Found = len(posts)
	s.logger.Debug("scanning posts", "found", r.Found)

	for _, p := range posts {
		r.add(s.augmentOne(p))
	}
	return r
}

// augmentOne isolates a failure on one post from the rest of the scan.
func (s *Scanner) augmentOne(post *html.Node) (out augment.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("augmenting post panicked", "panic", fmt.Sprint(p))
			out = augment.Failed
		}
	}()
	return s.augmenter.Augment(post)
}
