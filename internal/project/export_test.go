package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dou/internal/graph"
)

func TestPathText(t *testing.T) {
	s := graph.New()
	a := s.AddNode("Intro", "Hello")
	b := s.AddNode("Body", "World")
	c := s.AddNode("Tail", "End")
	s.Connect(c.ID, a.ID)
	s.Connect(a.ID, b.ID)

	paths := s.AllPaths()
	require.Len(t, paths, 1)
	assert.Equal(t, "#1: Intro\nHello\n\n#2: Body\nWorld\n\n#3: Tail\nEnd", PathText(paths[0]),
		"blocks follow order numbers, not traversal")
	assert.Equal(t, "Tail", PathLabel(paths[0], 1))
}

func TestPathsText(t *testing.T) {
	s := graph.New()
	a := s.AddNode("A", "a")
	b := s.AddNode("B", "b")
	s.AddNode("C", "c")
	s.Connect(a.ID, b.ID)

	got := PathsText(s.AllPaths())
	assert.Equal(t, "#1: A\na\n\n#2: B\nb\n\n---\n\n#3: C\nc", got)
	assert.Empty(t, PathsText(nil))
	assert.Equal(t, "Path 2", PathLabel(nil, 2))
}

func TestMarkdown(t *testing.T) {
	s := graph.New()
	a := s.AddNode("One", "first")
	b := s.AddNode("Two", "second")
	s.Connect(a.ID, b.ID)

	assert.Equal(t, "# One\n\nfirst\n\n# Two\n\nsecond\n\n", Markdown(s.AllPaths()))
}

func TestPrompt(t *testing.T) {
	got := Prompt("#1: A\na", "why?")
	assert.Equal(t, "Here is the text from the selected nodes:\n\n#1: A\na\n\nUser question: why?\n\nPlease analyze the provided text and answer the question.", got)
}
