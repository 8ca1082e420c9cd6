package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	r := NewRenderer()

	out := r.Render("**bold** and `code`")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<code>code</code>")
}

func TestRenderStripsScripts(t *testing.T) {
	r := NewRenderer()

	out := r.Render("hello <script>alert('x')</script> world")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestRenderTable(t *testing.T) {
	r := NewRenderer()

	out := r.Render("| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, out, "<table>")
}

func TestRenderPlainText(t *testing.T) {
	r := NewRenderer()

	out := r.Render("just a sentence")
	assert.Contains(t, out, "just a sentence")
}
