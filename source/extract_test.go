package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextExtractor(t *testing.T) {
	text, err := PlainTextExtractor{}.Extract("notes.md", []byte("# Title\n\nBody.\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody.\n", text)
}

func TestPlainTextExtractorRejectsEmptyAndBinary(t *testing.T) {
	_, err := PlainTextExtractor{}.Extract("empty.txt", nil)
	assert.True(t, IsExtractionError(err))

	_, err = PlainTextExtractor{}.Extract("bin.txt", []byte{0xff, 0xfe, 0x00, 0x80})
	assert.True(t, IsExtractionError(err))
}

func TestRegistryDispatch(t *testing.T) {
	r := DefaultRegistry()

	assert.True(t, r.Supported("doc.md"))
	assert.True(t, r.Supported("page.HTML"))
	assert.False(t, r.Supported("scan.pdf"))

	_, err := r.Extract("scan.pdf", []byte("%PDF"))
	require.Error(t, err)
	assert.True(t, IsExtractionError(err))
	assert.Contains(t, err.Error(), "unsupported")
}

func TestHTMLExtractor(t *testing.T) {
	page := []byte(`<!DOCTYPE html>
<html>
<head><title>Deployment Guide</title></head>
<body>
<nav>skip this</nav>
<article>
<h2>Build pipelines</h2>
<p>Compile and package the application before every release.</p>
<h2>Rollbacks</h2>
<p>Keep the previous release ready so a bad deploy can be reverted fast.</p>
</article>
</body>
</html>`)

	text, err := NewHTMLExtractor().Extract("guide.html", page)
	require.NoError(t, err)

	assert.Contains(t, text, "Deployment Guide")
	assert.Contains(t, text, "Build pipelines")
	assert.Contains(t, text, "Compile and package the application")
	assert.NotContains(t, text, "<p>")
}

func TestHTMLExtractorRejectsEmpty(t *testing.T) {
	_, err := NewHTMLExtractor().Extract("empty.html", nil)
	assert.True(t, IsExtractionError(err))
}
