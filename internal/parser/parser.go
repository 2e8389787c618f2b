// Package parser turns imported text and Markdown into node content: YAML
// frontmatter, titles and heading-delimited sections.
package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// TitleMaxLen caps titles derived from the first line of a node's text.
const TitleMaxLen = 30

// Result holds the output of parsing an imported document.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Title       string
	Color       string
}

// Section is one "# heading" block of a Markdown document.
type Section struct {
	Title string
	Text  string
}

// Parse extracts frontmatter, body, title and colour hint from raw bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Color:       stringField(fm, "color"),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: keep the whole input as body.
		return nil, string(data), nil
	}

	return fm, body, nil
}

func stringField(fm map[string]interface{}, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if t := stringField(fm, "title"); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// FirstLineTitle returns the first line of text, cut to TitleMaxLen runes.
func FirstLineTitle(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimRight(line, "\r")
	if utf8.RuneCountInString(line) <= TitleMaxLen {
		return line
	}
	return string([]rune(line)[:TitleMaxLen])
}

// Sections splits a Markdown body on H1 headings. Text before the first
// heading becomes an untitled section when it is not blank.
func Sections(body string) []Section {
	var out []Section
	var cur *Section
	var buf []string

	flush := func() {
		text := strings.Trim(strings.Join(buf, "\n"), "\n")
		buf = buf[:0]
		if cur == nil {
			if strings.TrimSpace(text) != "" {
				out = append(out, Section{Text: text})
			}
			return
		}
		cur.Text = text
		out = append(out, *cur)
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			flush()
			cur = &Section{Title: strings.TrimSpace(trimmed[2:])}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return out
}
