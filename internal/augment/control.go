package augment

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/toggle"
)

// Control attributes.
const (
	ControlClass  = "xmd-button"
	ControlTestID = "xmd-toggle"
	ControlLabel  = "Toggle Markdown rendering"
	AttrControlID = "data-xmd-id"
	AttrState     = "data-xmd-state"
)

const (
	iconMarkdown = `<svg width="16" height="16" viewBox="0 0 16 16" fill="currentColor" aria-hidden="true">` +
		`<path d="M14.85 3H1.15C.52 3 0 3.52 0 4.15v7.69C0 12.48.52 13 1.15 13h13.69c.64 0 1.15-.52 1.15-1.15V4.15C16 3.52 15.48 3 14.85 3zM9 11H7v-1h2v1zm0-2H7V6h2v3zm-3-3H4v3h2V6zm8 5h-2V6h2v5z"></path></svg>`
	iconSpinner = `<svg width="16" height="16" viewBox="0 0 16 16" fill="currentColor" class="xmd-spinner" aria-hidden="true">` +
		`<circle cx="8" cy="8" r="6" stroke="currentColor" stroke-width="2" fill="none" opacity="0.3"></circle>` +
		`<path d="M14 8a6 6 0 0 1-6 6" stroke="currentColor" stroke-width="2" fill="none"></path></svg>`
	iconText = `<svg width="16" height="16" viewBox="0 0 16 16" fill="currentColor" aria-hidden="true">` +
		`<path d="M2 4h12v8H2V4zm1 1v6h10V5H3zm2 2h6v1H5V7zm0 2h4v1H5V9z"></path></svg>`
)

// controlMarkup is the button content for a state. The label is the only
// text, so the button's text content equals toggle.Label(s).
func controlMarkup(s toggle.State) string {
	icon := iconMarkdown
	switch s {
	case toggle.Loading:
		icon = iconSpinner
	case toggle.Formatted:
		icon = iconText
	}
	return icon + html.EscapeString(toggle.Label(s))
}

// newControl builds a detached control in the Raw state.
func newControl(id string) *html.Node {
	button := dom.CreateElement("button",
		html.Attribute{Key: "type", Val: "button"},
		html.Attribute{Key: "class", Val: ControlClass},
		html.Attribute{Key: "data-testid", Val: ControlTestID},
		html.Attribute{Key: "aria-label", Val: ControlLabel},
		html.Attribute{Key: "aria-pressed", Val: "false"},
		html.Attribute{Key: AttrControlID, Val: id},
		html.Attribute{Key: AttrState, Val: toggle.Raw.String()},
	)

	nodes, err := html.ParseFragment(strings.NewReader(controlMarkup(toggle.Raw)), button)
	if err != nil {
		// Static markup; fall back to a bare label.
		nodes = []*html.Node{dom.CreateText(toggle.Label(toggle.Raw))}
	}
	for _, n := range nodes {
		button.AppendChild(n)
	}
	return button
}

// IsControl reports whether n is a toggle control.
func IsControl(n *html.Node) bool {
	return dom.IsElement(n) && n.DataAtom == atom.Button && dom.HasClass(n, ControlClass)
}

// setAffordance updates the control to reflect s.
func setAffordance(doc *dom.Document, control *html.Node, s toggle.State) error {
	if err := doc.SetInnerHTML(control, controlMarkup(s)); err != nil {
		return err
	}
	if err := doc.SetAttr(control, AttrState, s.String()); err != nil {
		return err
	}
	pressed := "false"
	if s == toggle.Formatted {
		pressed = "true"
	}
	if err := doc.SetAttr(control, "aria-pressed", pressed); err != nil {
		return err
	}

	if s == toggle.Loading {
		if err := doc.SetAttr(control, "disabled", ""); err != nil {
			return err
		}
		return doc.SetAttr(control, "aria-busy", "true")
	}
	if err := doc.RemoveAttr(control, "disabled"); err != nil {
		return err
	}
	return doc.RemoveAttr(control, "aria-busy")
}
