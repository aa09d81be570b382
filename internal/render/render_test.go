package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()

	r := New()

	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:     "bold",
			input:    "**bold**",
			contains: []string{"<strong>bold</strong>"},
		},
		{
			name:     "heading and list",
			input:    "# Title\n\n- one\n- two",
			contains: []string{"<h1>Title</h1>", "<li>one</li>", "<li>two</li>"},
		},
		{
			name:     "hard wraps",
			input:    "line one\nline two",
			contains: []string{"line one<br />"},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "strikethrough",
			input:    "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "highlighted code block",
			input:    "```go\nfmt.Println(\"hi\")\n```",
			contains: []string{`class="chroma"`},
		},
		{
			name:     "mark",
			input:    "this is ==important== text",
			contains: []string{"<mark>important</mark>"},
		},
		{
			name:        "typed tags shown as text",
			input:       "<script>alert(1)</script>\n\nok",
			contains:    []string{"&lt;script", "ok"},
			notContains: []string{"<script", "raw HTML omitted"},
		},
		{
			name:        "typed tag beside markdown",
			input:       "Hi & <b> **x**",
			contains:    []string{"&lt;b", "<strong>x</strong>"},
			notContains: []string{"raw HTML omitted", "<b>"},
		},
		{
			name:        "equality operators in fenced code",
			input:       "```go\nif a == b && c == d {\n}\n```",
			contains:    []string{`class="chroma"`, "=="},
			notContains: []string{"<mark>", "</mark>"},
		},
		{
			name:        "equality operators in code span",
			input:       "and `x == y == z` inline, ==marked== outside",
			contains:    []string{"<code>x == y == z</code>", "<mark>marked</mark>"},
			notContains: []string{"<mark> y"},
		},
		{
			name:        "angle brackets in code kept once",
			input:       "```\na < b\n```\n\n`c < d`",
			contains:    []string{"a &lt; b", "<code>c &lt; d</code>"},
			notContains: []string{"&amp;lt;"},
		},
		{
			name:        "javascript link dropped",
			input:       "[x](javascript:alert(1))",
			notContains: []string{"javascript:"},
		},
		{
			name:        "stray markers stripped",
			input:       "a\uE000b\uE001c",
			contains:    []string{"abc"},
			notContains: []string{"<mark>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Render(context.Background(), tt.input)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r       *Renderer
		input   string
		wantErr error
	}{
		{
			name:    "empty",
			r:       New(),
			input:   "",
			wantErr: ErrEmptyText,
		},
		{
			name:    "whitespace only",
			r:       New(),
			input:   " \n\t",
			wantErr: ErrEmptyText,
		},
		{
			name:    "too large",
			r:       New(WithMaxInputBytes(4)),
			input:   "hello",
			wantErr: ErrInputTooLarge,
		},
		{
			name: "converter error",
			r: New(withConvert(func([]byte, *bytes.Buffer) error {
				return errors.New("broken")
			})),
			input:   "text",
			wantErr: ErrConversion,
		},
		{
			name: "converter panic",
			r: New(withConvert(func([]byte, *bytes.Buffer) error {
				panic("boom")
			})),
			input:   "text",
			wantErr: ErrConversion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.r.Render(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRender_Fallback(t *testing.T) {
	t.Parallel()

	r := New(WithFallback(true), withConvert(func([]byte, *bytes.Buffer) error {
		return errors.New("broken")
	}))

	got, err := r.Render(context.Background(), "a < b\r\nnext")
	require.NoError(t, err)
	assert.Equal(t, "a &lt; b<br>next", got)
}

func TestRender_Context(t *testing.T) {
	t.Parallel()

	t.Run("already canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New().Render(ctx, "text")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("deadline while converting", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		r := New(withConvert(func([]byte, *bytes.Buffer) error {
			<-release
			return nil
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := r.Render(ctx, "text")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestPreprocess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"highlight", "==x==", markStart + "x" + markEnd},
		{"highlight not across lines", "==a\nb==", "==a\nb=="},
		{"typed tag escaped", "a <b> c", "a &lt;b> c"},
		{"fence untouched", "```\na == b == c <d>\n```\n", "```\na == b == c <d>\n```\n"},
		{"tilde fence untouched", "~~~~\n==x==\n~~~\n~~~~\n==y==", "~~~~\n==x==\n~~~\n~~~~\n" + markStart + "y" + markEnd},
		{"unclosed fence runs to end", "```\n==x==", "```\n==x=="},
		{"indented code untouched", "text\n\n    a == b == c\n\n==y==", "text\n\n    a == b == c\n\n" + markStart + "y" + markEnd},
		{"indented continuation is prose", "line\n    ==x==", "line\n    " + markStart + "x" + markEnd},
		{"code span untouched", "`==x==` ==y==", "`==x==` " + markStart + "y" + markEnd},
		{"double backtick span", "``a ` ==b== `` <c>", "``a ` ==b== `` &lt;c>"},
		{"unmatched backtick is literal", "`==x==", "`" + markStart + "x" + markEnd},
		{"span ends at paragraph", "`a\n\n==x==`", "`a\n\n" + markStart + "x" + markEnd + "`"},
		{"escaped backtick", "\\`==x==`", "\\`" + markStart + "x" + markEnd + "`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, preprocess(tt.input))
		})
	}
}

func TestStylesheet(t *testing.T) {
	t.Parallel()

	css, err := Stylesheet("")
	require.NoError(t, err)
	assert.Contains(t, css, ".xmd-rendered")
	assert.Contains(t, css, ".chroma")

	monokai, err := Stylesheet("Monokai")
	require.NoError(t, err)
	assert.NotEqual(t, css, monokai)

	_, err = Stylesheet("no-such-style")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestStyles(t *testing.T) {
	t.Parallel()

	names := Styles()
	assert.Contains(t, names, DefaultStyle)
	assert.True(t, strings.Compare(names[0], names[len(names)-1]) < 0)
}
