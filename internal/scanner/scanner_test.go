package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/augment"
	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/selectors"
)

type scriptedAugmenter struct {
	seen    []*html.Node
	results []augment.Outcome
	panicAt int
}

func (s *scriptedAugmenter) Augment(post *html.Node) augment.Outcome {
	s.seen = append(s.seen, post)
	i := len(s.seen) - 1
	if i == s.panicAt {
		panic("bad post")
	}
	return s.results[i]
}

func mustParse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	require.NoError(t, err)
	return doc
}

var postSelector = selectors.MustCompile(selectors.Default()).Post

func TestScan_CountsOutcomes(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body>
<article data-testid="tweet"></article>
<article data-testid="tweet"></article>
<article data-testid="promoted"></article>
<div><article data-testid="tweet"></article></div>
<article data-testid="tweet"></article>
</body></html>`)

	aug := &scriptedAugmenter{
		results: []augment.Outcome{augment.Augmented, augment.AlreadyAugmented, augment.NoActionBar, augment.Failed},
		panicAt: -1,
	}
	r := New(doc, postSelector, aug, nil).Scan()

	assert.Equal(t, Report{Found: 4, Augmented: 1, AlreadyAugmented: 1, NoActionBar: 1, Failed: 1}, r)
	assert.Len(t, aug.seen, 4)
}

func TestScan_NoPosts(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body><p>empty</p></body></html>`)
	r := New(doc, postSelector, &scriptedAugmenter{panicAt: -1}, nil).Scan()
	assert.Equal(t, Report{}, r)
}

func TestScan_PanicIsContained(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body>
<article data-testid="tweet"></article>
<article data-testid="tweet"></article>
</body></html>`)

	aug := &scriptedAugmenter{
		results: []augment.Outcome{augment.Augmented, augment.Augmented},
		panicAt: 0,
	}
	r := New(doc, postSelector, aug, nil).Scan()

	assert.Equal(t, 2, r.Found)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.Augmented)
}

func TestScan_RequeriesEachTime(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body><main id="feed"></main></body></html>`)
	aug := &scriptedAugmenter{
		results: []augment.Outcome{augment.Augmented, augment.AlreadyAugmented, augment.Augmented},
		panicAt: -1,
	}
	s := New(doc, postSelector, aug, nil)

	feed := dom.Query(doc.Body(), dom.MustCompile("#feed"))
	require.NoError(t, doc.AppendChild(feed, dom.CreateElement("article", html.Attribute{Key: "data-testid", Val: "tweet"})))
	assert.Equal(t, 1, s.Scan().Found)

	require.NoError(t, doc.AppendChild(feed, dom.CreateElement("article", html.Attribute{Key: "data-testid", Val: "tweet"})))
	r := s.Scan()
	assert.Equal(t, 2, r.Found)
	assert.Equal(t, 1, r.AlreadyAugmented)
}

func TestReport_Merge(t *testing.T) {
	t.Parallel()

	r := Report{Found: 1, Augmented: 1}
	r.Merge(Report{Found: 2, NoTextRegion: 2})
	assert.Equal(t, Report{Found: 3, Augmented: 1, NoTextRegion: 2}, r)
}
