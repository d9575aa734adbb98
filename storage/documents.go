package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DocumentMeta describes a stored document.
type DocumentMeta struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// DocumentStore holds source documents and rendered artifacts.
type DocumentStore interface {
	Upload(ctx context.Context, data []byte, meta DocumentMeta) (string, error)
	List(ctx context.Context, folderID string) ([]DocumentMeta, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// FilesystemStore is a DocumentStore rooted at a local directory. Document
// IDs are slash-separated paths relative to the root; folder IDs are
// directories.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates the root directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create document root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

// Upload writes the document under the root and returns its ID.
func (s *FilesystemStore) Upload(_ context.Context, data []byte, meta DocumentMeta) (string, error) {
	if meta.Name == "" {
		return "", fmt.Errorf("document has no name")
	}
	id := meta.ID
	if id == "" {
		id = meta.Name
	}

	path, err := s.resolve(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create document folder: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return id, nil
}

// List returns the documents directly inside a folder. An empty folderID
// lists the root.
func (s *FilesystemStore) List(_ context.Context, folderID string) ([]DocumentMeta, error) {
	dir, err := s.resolve(folderID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, folderID)
		}
		return nil, fmt.Errorf("list folder: %w", err)
	}

	var docs []DocumentMeta
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := entry.Name()
		if folderID != "" {
			id = folderID + "/" + entry.Name()
		}
		docs = append(docs, DocumentMeta{
			ID:       id,
			Name:     entry.Name(),
			MimeType: mime.TypeByExtension(filepath.Ext(entry.Name())),
		})
	}
	return docs, nil
}

// Get reads a document by ID.
func (s *FilesystemStore) Get(_ context.Context, id string) ([]byte, error) {
	path, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// resolve maps an ID to a path under the root, rejecting traversal.
func (s *FilesystemStore) resolve(id string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(id))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid document ID: %s", id)
	}
	if cleaned == "." {
		return s.root, nil
	}
	return filepath.Join(s.root, cleaned), nil
}
