package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPlain(t *testing.T) {
	text, err := Extract("notes.txt", []byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	_, err = Extract("bad.txt", []byte{0xff, 0xfe, 0x01})
	require.Error(t, err)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("image.png", []byte("data"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported file type")

	require.False(t, Supported("image.png"))
	require.True(t, Supported("doc.txt"))
	require.True(t, Supported("DOC.MD"))
}

func TestExtractMarkdownStripsMarkup(t *testing.T) {
	src := `# Title

Some *emphasized* paragraph with [a link](https://example.com).

- item one
- item two
`
	text, err := Extract("doc.md", []byte(src))
	require.NoError(t, err)
	require.Contains(t, text, "Title")
	require.Contains(t, text, "Some emphasized paragraph with")
	require.NotContains(t, text, "  ", "inline segments must join single-spaced")
	require.Contains(t, text, "a link")
	require.Contains(t, text, "item one")
	require.NotContains(t, text, "#")
	require.NotContains(t, text, "*")
	require.NotContains(t, text, "https://example.com")
}

func TestExtractMarkdownKeepsFencedCode(t *testing.T) {
	src := "intro paragraph\n\n```\nfunc main() {}\n```\n"
	text, err := Extract("doc.md", []byte(src))
	require.NoError(t, err)
	require.Contains(t, text, "func main() {}")
	require.False(t, strings.Contains(text, "```"))
}
