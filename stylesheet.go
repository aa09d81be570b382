package xmd

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-xmd/internal/dom"
	"github.com/alnah/go-xmd/internal/render"
)

// StyleElementID identifies the <style> element added by InjectStylesheet.
const StyleElementID = "xmd-style"

// Stylesheet returns the CSS for formatted posts with code highlighted in
// the named chroma style. An empty name selects the default style.
func Stylesheet(style string) (string, error) {
	return render.Stylesheet(style)
}

// InjectStylesheet adds css to the document head, replacing a stylesheet
// injected earlier. Run it through Extension.Update while the extension is
// running.
func InjectStylesheet(doc *Document, css string) error {
	if doc == nil {
		return ErrNilDocument
	}
	if existing := findStyle(doc.Root()); existing != nil {
		return doc.SetText(existing, sanitizeCSS(css))
	}

	parent := doc.Head()
	if parent == nil {
		parent = doc.Body()
	}
	if parent == nil {
		return ErrNoBody
	}

	style := dom.CreateElement("style", html.Attribute{Key: "id", Val: StyleElementID})
	style.AppendChild(dom.CreateText(sanitizeCSS(css)))
	return doc.AppendChild(parent, style)
}

var styleSelector = dom.MustCompile("style#" + StyleElementID)

func findStyle(root *html.Node) *html.Node {
	return dom.Query(root, styleSelector)
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
