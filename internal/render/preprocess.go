package render

import (
	"regexp"
	"strings"
)

// Private Use Area markers carry ==highlight== spans through goldmark,
// which escapes raw <mark> tags since unsafe mode is off.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==([^=\n]+?)==`)
	stripMarkers       = strings.NewReplacer(markStart, "", markEnd, "")
	markReplacer       = strings.NewReplacer(markStart, "<mark>", markEnd, "</mark>")
)

func preprocess(text string) string {
	text = stripMarkers.Replace(text)
	text = normalizeLineEndings(text)
	text = compressBlankLines(text)

	var sb strings.Builder
	sb.Grow(len(text))
	for _, seg := range splitCode(text) {
		if seg.code {
			sb.WriteString(seg.text)
			continue
		}
		sb.WriteString(escapeTags(convertHighlights(seg.text)))
	}
	return sb.String()
}

func normalizeLineEndings(text string) string {
	return crlfOrCR.ReplaceAllString(text, "\n")
}

// compressBlankLines keeps at most one empty line between blocks.
func compressBlankLines(text string) string {
	return multipleBlankLines.ReplaceAllString(text, "\n\n")
}

func convertHighlights(text string) string {
	return highlightPattern.ReplaceAllString(text, markStart+"$1"+markEnd)
}

// escapeTags keeps typed angle brackets as text. Post text comes from the
// page's text content, so a "<b>" in it was typed by the author.
func escapeTags(text string) string {
	return strings.ReplaceAll(text, "<", "&lt;")
}

// convertMarkPlaceholders turns the markers left by convertHighlights into
// <mark> tags once goldmark has escaped everything else.
func convertMarkPlaceholders(fragment string) string {
	return markReplacer.Replace(fragment)
}
