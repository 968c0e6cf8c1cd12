package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, input string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, input); err != nil {
		t.Fatalf("RenderMarkdown(%q) failed: %v", input, err)
	}
	return buf.String()
}

func TestRenderMarkdownInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<p><strong>bold</strong></p>\n"},
		{"*italic*", "<p><em>italic</em></p>\n"},
		{"use `fmt.Println` here", "<p>use <code>fmt.Println</code> here</p>\n"},
		{"`**not bold**`", "<p><code>**not bold**</code></p>\n"},
	}
	for _, tt := range tests {
		if got := render(t, tt.input); got != tt.expected {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownHeadings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", "<h1>Heading 1</h1>\n"},
		{"## Heading 2", "<h2>Heading 2</h2>\n"},
		{"### Heading 3", "<h3>Heading 3</h3>\n"},
	}
	for _, tt := range tests {
		if got := render(t, tt.input); got != tt.expected {
			t.Errorf("RenderMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownList(t *testing.T) {
	got := render(t, "- item 1\n- item 2")
	expected := "<ul>\n<li>item 1</li>\n<li>item 2</li>\n</ul>\n"
	if got != expected {
		t.Errorf("got %q, want %q", got, expected)
	}
}

func TestRenderMarkdownCodeBlockWithLanguage(t *testing.T) {
	got := render(t, "```go\nfmt.Println(\"hello\")\n```")
	if !strings.Contains(got, `<code class="language-go">`) {
		t.Errorf("code block should have language-go class: %q", got)
	}
	if !strings.Contains(got, "fmt.Println(") {
		t.Errorf("code block missing content: %q", got)
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	got := render(t, "| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>1</td>") {
		t.Errorf("expected a table: %q", got)
	}
}

func TestRenderMarkdownDropsRawHTML(t *testing.T) {
	got := render(t, "<script>alert(1)</script>\n\ntext")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML should be omitted: %q", got)
	}
	if !strings.Contains(got, "<p>text</p>") {
		t.Errorf("surrounding text should survive: %q", got)
	}
}

func TestRenderMarkdownBlanksDangerousLinks(t *testing.T) {
	got := render(t, "[click](javascript:alert(1))")
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript: URL should not be rendered: %q", got)
	}
}

func TestRenderMarkdownExternalLinks(t *testing.T) {
	got := render(t, "[Go](https://go.dev)")
	if !strings.Contains(got, `target="_blank"`) || !strings.Contains(got, `rel="noopener noreferrer"`) {
		t.Errorf("external link should open in a new tab: %q", got)
	}
	got = render(t, "[About](/about/)")
	if strings.Contains(got, "target=") {
		t.Errorf("internal link should not open in a new tab: %q", got)
	}
}

func TestIsExternal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://go.dev", true},
		{"HTTP://example.com/a", true},
		{"/about/", false},
		{"#top", false},
		{"mailto:me@example.com", false},
		{"https://", false},
	}
	for _, tt := range tests {
		if got := IsExternal(tt.in); got != tt.want {
			t.Errorf("IsExternal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("*hi*").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<em>hi</em>") {
		t.Errorf("component output = %q", buf.String())
	}
}
