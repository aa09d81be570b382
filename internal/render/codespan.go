package render

import "strings"

// segment is a slice of post text that is either markdown prose or code.
// Code reaches goldmark byte for byte.
type segment struct {
	text string
	code bool
}

// splitCode separates fenced blocks, indented blocks and backtick code
// spans from the prose around them. Concatenating the segments yields text.
func splitCode(text string) []segment {
	var segs []segment
	for _, b := range splitBlocks(text) {
		if b.code {
			segs = appendSegment(segs, b.text, true)
			continue
		}
		for _, s := range splitSpans(b.text) {
			segs = appendSegment(segs, s.text, s.code)
		}
	}
	return segs
}

// splitBlocks finds code blocks line by line. An unclosed fence runs to the
// end of the text, as in CommonMark.
func splitBlocks(text string) []segment {
	var (
		segs      []segment
		fence     string
		indented  bool
		prevBlank = true
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		blank := strings.TrimSpace(line) == ""

		switch {
		case fence != "":
			segs = appendSegment(segs, line, true)
			if isClosingFence(line, fence) {
				fence = ""
			}
		case openingFence(line) != "":
			fence = openingFence(line)
			indented = false
			segs = appendSegment(segs, line, true)
		case !blank && isIndentedLine(line) && (prevBlank || indented):
			indented = true
			segs = appendSegment(segs, line, true)
		default:
			if !blank {
				indented = false
			}
			segs = appendSegment(segs, line, false)
		}
		prevBlank = blank
	}
	return segs
}

// splitSpans finds backtick code spans in prose. A span closes on the next
// run of the same length within the paragraph; otherwise the backticks are
// literal.
func splitSpans(text string) []segment {
	var segs []segment
	prose := 0
	for i := 0; i < len(text); {
		if text[i] != '`' {
			i++
			continue
		}
		if i > 0 && text[i-1] == '\\' {
			i++
			continue
		}
		n := runLength(text, i, '`')
		limit := len(text)
		if k := strings.Index(text[i:], "\n\n"); k >= 0 {
			limit = i + k
		}
		end := closingRun(text[:limit], i+n, n)
		if end < 0 {
			i += n
			continue
		}
		segs = appendSegment(segs, text[prose:i], false)
		segs = appendSegment(segs, text[i:end], true)
		i, prose = end, end
	}
	return appendSegment(segs, text[prose:], false)
}

// closingRun returns the end offset of the first run of exactly n backticks
// at or after from, or -1.
func closingRun(text string, from, n int) int {
	for j := from; j < len(text); {
		if text[j] != '`' {
			j++
			continue
		}
		m := runLength(text, j, '`')
		if m == n {
			return j + m
		}
		j += m
	}
	return -1
}

func openingFence(line string) string {
	s := strings.TrimRight(line, "\n")
	trimmed := strings.TrimLeft(s, " ")
	if len(s)-len(trimmed) > 3 || trimmed == "" {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := runLength(trimmed, 0, c)
	if n < 3 {
		return ""
	}
	// A backtick fence's info string may not hold backticks.
	if c == '`' && strings.IndexByte(trimmed[n:], '`') >= 0 {
		return ""
	}
	return trimmed[:n]
}

func isClosingFence(line, fence string) bool {
	s := strings.TrimRight(line, "\n")
	trimmed := strings.TrimLeft(s, " ")
	if len(s)-len(trimmed) > 3 || trimmed == "" || trimmed[0] != fence[0] {
		return false
	}
	n := runLength(trimmed, 0, fence[0])
	return n >= len(fence) && strings.TrimSpace(trimmed[n:]) == ""
}

func isIndentedLine(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

func appendSegment(segs []segment, text string, code bool) []segment {
	if text == "" {
		return segs
	}
	if n := len(segs); n > 0 && segs[n-1].code == code {
		segs[n-1].text += text
		return segs
	}
	return append(segs, segment{text: text, code: code})
}
