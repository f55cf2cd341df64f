package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stophobia/restai/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/textsplitter"
)

func testSplitter() textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(256),
		textsplitter.WithChunkOverlap(0),
	)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry_ResolvesByExtension(t *testing.T) {
	registry := DefaultRegistry()

	for _, name := range []string{"a.txt", "a.md", "a.csv", "a.html", "a.htm", "a.pdf", "A.TXT"} {
		loader, err := registry.FileLoader(name)
		require.NoError(t, err, name)
		assert.NotNil(t, loader, name)
	}
}

func TestRegistry_UnknownExtension(t *testing.T) {
	registry := DefaultRegistry()

	_, err := registry.FileLoader("archive.zip")
	assert.ErrorIs(t, err, core.ErrUnsupportedSource)
}

func TestRegistry_URLStrategies(t *testing.T) {
	registry := DefaultRegistry()

	for _, strategy := range []string{"", StrategyFetch, StrategyRender, StrategyCrawl} {
		loader, err := registry.URLLoader("http://example.com", strategy)
		require.NoError(t, err, strategy)
		assert.NotNil(t, loader, strategy)
	}

	_, err := registry.URLLoader("http://example.com", "teleport")
	assert.ErrorIs(t, err, core.ErrUnsupportedSource)
}

func TestTextFileLoader(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "the sky is blue")

	loader := NewTextFile(path)
	docs, err := loader.Load(context.Background(), testSplitter())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "the sky is blue", docs[0].PageContent)
}

func TestTextFileLoader_SplitsLongContent(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "all work and no play makes a dull day. "
	}
	path := writeTempFile(t, "long.txt", long)

	loader := NewTextFile(path)
	docs, err := loader.Load(context.Background(), testSplitter())
	require.NoError(t, err)
	assert.Greater(t, len(docs), 1)
	for _, doc := range docs {
		assert.LessOrEqual(t, len(doc.PageContent), 256)
	}
}

func TestTextFileLoader_MissingFile(t *testing.T) {
	loader := NewTextFile(filepath.Join(t.TempDir(), "missing.txt"))

	_, err := loader.Load(context.Background(), testSplitter())
	assert.Error(t, err)
}

func TestCSVFileLoader(t *testing.T) {
	path := writeTempFile(t, "data.csv", "name,color\nsky,blue\ngrass,green\n")

	loader := NewCSVFile(path)
	docs, err := loader.Load(context.Background(), testSplitter())
	require.NoError(t, err)
	assert.NotEmpty(t, docs)
}

func TestHTMLFileLoader(t *testing.T) {
	path := writeTempFile(t, "page.html",
		"<html><head><title>t</title></head><body><p>the sky is blue</p></body></html>")

	loader := NewHTMLFile(path)
	docs, err := loader.Load(context.Background(), testSplitter())
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Contains(t, docs[0].PageContent, "the sky is blue")
}
