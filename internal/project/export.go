package project

import (
	"fmt"
	"strings"

	"github.com/starford/dou/internal/graph"
)

// PathSeparator joins path blocks in multi-path prompt context.
const PathSeparator = "\n\n---\n\n"

// PathText renders one path ordered by order number:
//
//	#<order>: <title>
//	<text>
//
// with blocks separated by a blank line.
func PathText(p graph.Path) string {
	sorted := p.SortedByOrder()
	blocks := make([]string, 0, len(sorted))
	for _, n := range sorted {
		blocks = append(blocks, fmt.Sprintf("#%d: %s\n%s", n.Order(), n.Title, n.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// PathsText renders every non-empty path joined by PathSeparator.
func PathsText(paths []graph.Path) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		parts = append(parts, PathText(p))
	}
	return strings.Join(parts, PathSeparator)
}

// PathLabel names path i (1-based) by its first node's title.
func PathLabel(p graph.Path, i int) string {
	if len(p) == 0 || p[0].Title == "" {
		return fmt.Sprintf("Path %d", i)
	}
	return p[0].Title
}

// Prompt wraps path context and a user question in the chat template.
func Prompt(context, question string) string {
	return "Here is the text from the selected nodes:\n\n" +
		context +
		"\n\nUser question: " + question +
		"\n\nPlease analyze the provided text and answer the question."
}

// Markdown renders every node reachable from a root in traversal order, one
// H1 section per node.
func Markdown(paths []graph.Path) string {
	var b strings.Builder
	for _, p := range paths {
		for _, n := range p {
			fmt.Fprintf(&b, "# %s\n\n%s\n\n", n.Title, n.Text)
		}
	}
	return b.String()
}
