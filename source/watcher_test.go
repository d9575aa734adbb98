package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcherScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "intro.md", "# Intro\n\nHello.\n")
	writeFile(t, root, "nested/deep.txt", "nested text\n")
	writeFile(t, root, "skip.pdf", "%PDF")
	writeFile(t, root, "processed/old.md", "# Done\n")

	w, err := NewWatcher(root)
	require.NoError(t, err)

	done := make(chan struct{})
	var docs []Document
	go func() {
		defer close(done)
		for doc := range w.Documents() {
			docs = append(docs, doc)
		}
	}()

	require.NoError(t, w.Scan(context.Background()))
	close(w.events)
	<-done

	require.Len(t, docs, 2)
	paths := []string{docs[0].Path, docs[1].Path}
	assert.Contains(t, paths, "intro.md")
	assert.Contains(t, paths, "nested/deep.txt")
	for _, doc := range docs {
		assert.NotEmpty(t, doc.Text)
		assert.NotEmpty(t, doc.Name)
	}
}

func TestWatcherMatches(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, WithGlobs(
		[]string{"inbox/**/*.md"},
		[]string{"**/draft-*"},
	))
	require.NoError(t, err)

	assert.True(t, w.matches(filepath.Join(root, "inbox", "a.md")))
	assert.True(t, w.matches(filepath.Join(root, "inbox", "sub", "b.md")))
	assert.False(t, w.matches(filepath.Join(root, "outside.md")))
	assert.False(t, w.matches(filepath.Join(root, "inbox", "draft-a.md")))
	assert.False(t, w.matches(filepath.Join(root, "inbox", "a.txt")))
}

func TestWatcherShutdownDuringDebounce(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Let the watcher register its directories, then land a file and cancel
	// inside the debounce window so the timer is still pending on shutdown.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "late.txt", "arrived late")
	time.Sleep(10 * time.Millisecond)
	cancel()

	require.NoError(t, <-done)

	// The channel must be closed and stay quiet past the debounce window;
	// a stray timer firing into it would panic.
	for range w.Documents() {
	}
	time.Sleep(100 * time.Millisecond)
}

func TestWatcherEmitAfterCloseIsDropped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.txt", "some text")

	w, err := NewWatcher(root)
	require.NoError(t, err)

	w.closeEvents()
	w.emit(context.Background(), filepath.Join(root, "doc.txt"))

	_, open := <-w.Documents()
	assert.False(t, open)
}

func TestWatcherRejectsMissingRoot(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
