package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ncolor: Blue\n---\n# Heading\nBody text.\n")
	r, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, "Hello", r.Title)
	assert.Equal(t, "Blue", r.Color)
	assert.Equal(t, "# Heading\nBody text.\n", r.Body)
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome text.\n"))
	require.NoError(t, err)
	assert.Nil(t, r.Frontmatter)
	assert.Equal(t, "Just a heading", r.Title)
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	require.NoError(t, err)
	assert.Nil(t, r.Frontmatter, "invalid YAML is not frontmatter")
	assert.Equal(t, string(input), r.Body)
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: x\nno closing")
	r, _ := Parse(input)
	assert.Empty(t, r.Title)
	assert.Equal(t, string(input), r.Body)
}

func TestFirstLineTitle(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"short":                 "short",
		"first\nsecond":         "first",
		"crlf\r\nnext":          "crlf",
		strings.Repeat("x", 40): strings.Repeat("x", 30),
		strings.Repeat("é", 35): strings.Repeat("é", 30),
	}
	for in, want := range cases {
		assert.Equal(t, want, FirstLineTitle(in), "FirstLineTitle(%q)", in)
	}
}

func TestSections(t *testing.T) {
	got := Sections("preamble\n\n# One\n\nfirst body\n\n# Two\n\nsecond\nbody\n")
	require.Len(t, got, 3)
	assert.Equal(t, Section{Title: "", Text: "preamble"}, got[0])
	assert.Equal(t, Section{Title: "One", Text: "first body"}, got[1])
	assert.Equal(t, Section{Title: "Two", Text: "second\nbody"}, got[2])
}

func TestSections_NoHeadings(t *testing.T) {
	got := Sections("just text")
	require.Len(t, got, 1)
	assert.Equal(t, "just text", got[0].Text)
	assert.Empty(t, Sections("  \n\n"), "blank body yields no sections")
}
