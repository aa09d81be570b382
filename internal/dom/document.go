// Package dom models a live feed page as a mutable HTML tree.
//
// Nodes are golang.org/x/net/html nodes and keep pointer identity for the
// lifetime of the element, like elements in a browser. Every structural or
// attribute change made through a Document is recorded and delivered to
// registered observers in batches, after the mutating task has returned.
//
// A Document is not safe for concurrent use. Callers serialize access, in
// practice by running every read and write on one event loop.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for document operations.
var (
	ErrNilNode       = errors.New("dom: nil node")
	ErrNotChild      = errors.New("dom: node is not a child of parent")
	ErrNotElement    = errors.New("dom: node is not an element")
	ErrHierarchy     = errors.New("dom: node cannot be inserted into its own subtree")
	ErrNoBody        = errors.New("dom: document has no body")
	ErrParseMarkup   = errors.New("dom: failed to parse markup")
	ErrRenderFailure = errors.New("dom: failed to render node")
)

// Scheduler queues a task to run after the current one. It reports false
// when the task was dropped (e.g., the loop has shut down).
type Scheduler func(task func()) bool

// Document is a live HTML tree with mutation observation.
type Document struct {
	root      *html.Node
	observers []*Observer
	scheduler Scheduler
	delivery  bool // a delivery task is queued
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseMarkup, err)
	}
	return NewDocument(root), nil
}

// ParseString reads an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an existing document node.
func NewDocument(root *html.Node) *Document {
	return &Document{root: root}
}

// SetScheduler installs the scheduler used to deliver mutation records.
// Without one, records accumulate until Flush is called.
func (d *Document) SetScheduler(s Scheduler) {
	d.scheduler = s
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the <body> element, or nil when the document has none.
func (d *Document) Body() *html.Node {
	return findElement(d.root, atom.Body)
}

// Head returns the <head> element, or nil when the document has none.
func (d *Document) Head() *html.Node {
	return findElement(d.root, atom.Head)
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return nil
}

// Contains reports whether n is attached to this document.
func (d *Document) Contains(n *html.Node) bool {
	return n != nil && isInclusiveAncestor(d.root, n)
}

// AppendChild appends child to parent, detaching it from any previous parent.
func (d *Document) AppendChild(parent, child *html.Node) error {
	return d.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if ref != nil && ref.Parent != parent {
		return ErrNotChild
	}
	if ref == child {
		return nil
	}
	if isInclusiveAncestor(child, parent) {
		return ErrHierarchy
	}
	if child.Parent != nil {
		if err := d.RemoveChild(child.Parent, child); err != nil {
			return err
		}
	}

	var prev *html.Node
	if ref != nil {
		prev = ref.PrevSibling
		parent.InsertBefore(child, ref)
	} else {
		prev = parent.LastChild
		parent.AppendChild(child)
	}

	d.record(MutationRecord{
		Type:            ChildList,
		Target:          parent,
		AddedNodes:      []*html.Node{child},
		PreviousSibling: prev,
		NextSibling:     ref,
	})
	return nil
}

// RemoveChild detaches child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if child.Parent != parent {
		return ErrNotChild
	}

	prev, next := child.PrevSibling, child.NextSibling
	parent.RemoveChild(child)

	d.record(MutationRecord{
		Type:            ChildList,
		Target:          parent,
		RemovedNodes:    []*html.Node{child},
		PreviousSibling: prev,
		NextSibling:     next,
	})
	return nil
}

// SetInnerHTML replaces the children of el with parsed markup. The markup is
// parsed before anything is removed, so a parse failure leaves el untouched.
func (d *Document) SetInnerHTML(el *html.Node, markup string) error {
	if el == nil {
		return ErrNilNode
	}
	if el.Type != html.ElementNode {
		return ErrNotElement
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), el)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParseMarkup, err)
	}
	d.replaceChildren(el, nodes)
	return nil
}

// SetText replaces the children of el with a single text node.
func (d *Document) SetText(el *html.Node, text string) error {
	if el == nil {
		return ErrNilNode
	}
	if el.Type != html.ElementNode {
		return ErrNotElement
	}

	var nodes []*html.Node
	if text != "" {
		nodes = []*html.Node{CreateText(text)}
	}
	d.replaceChildren(el, nodes)
	return nil
}

// replaceChildren swaps every child of el for nodes as one mutation record.
func (d *Document) replaceChildren(el *html.Node, nodes []*html.Node) {
	var removed []*html.Node
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	for _, n := range nodes {
		el.AppendChild(n)
	}
	if len(removed) == 0 && len(nodes) == 0 {
		return
	}
	d.record(MutationRecord{
		Type:         ChildList,
		Target:       el,
		AddedNodes:   nodes,
		RemovedNodes: removed,
	})
}

// SetAttr sets an attribute on el, replacing any previous value.
func (d *Document) SetAttr(el *html.Node, key, value string) error {
	if el == nil {
		return ErrNilNode
	}
	if el.Type != html.ElementNode {
		return ErrNotElement
	}

	old, existed := Attr(el, key)
	if existed && old == value {
		return nil
	}
	if existed {
		for i := range el.Attr {
			if el.Attr[i].Namespace == "" && el.Attr[i].Key == key {
				el.Attr[i].Val = value
				break
			}
		}
	} else {
		el.Attr = append(el.Attr, html.Attribute{Key: key, Val: value})
	}

	d.record(MutationRecord{Type: Attributes, Target: el, AttributeName: key, OldValue: old})
	return nil
}

// RemoveAttr deletes an attribute from el. Missing attributes are ignored.
func (d *Document) RemoveAttr(el *html.Node, key string) error {
	if el == nil {
		return ErrNilNode
	}

	for i, a := range el.Attr {
		if a.Namespace == "" && a.Key == key {
			el.Attr = append(el.Attr[:i], el.Attr[i+1:]...)
			d.record(MutationRecord{Type: Attributes, Target: el, AttributeName: key, OldValue: a.Val})
			return nil
		}
	}
	return nil
}

// AddClass adds a class token to el.
func (d *Document) AddClass(el *html.Node, class string) error {
	if HasClass(el, class) {
		return nil
	}
	classes, _ := Attr(el, "class")
	return d.SetAttr(el, "class", strings.TrimSpace(classes+" "+class))
}

// RemoveClass removes a class token from el.
func (d *Document) RemoveClass(el *html.Node, class string) error {
	if !HasClass(el, class) {
		return nil
	}
	classes, _ := Attr(el, "class")
	kept := make([]string, 0, 4)
	for _, c := range strings.Fields(classes) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return d.RemoveAttr(el, "class")
	}
	return d.SetAttr(el, "class", strings.Join(kept, " "))
}

// findElement returns the first element with the given atom in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// isInclusiveAncestor reports whether a is n or one of its ancestors.
func isInclusiveAncestor(a, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}
