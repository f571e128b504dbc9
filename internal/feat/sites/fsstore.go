package sites

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cliossg/sitesmith/pkg/cl/config"
)

// Default workspace paths
const (
	DefaultSitesBasePath = "_workspace/sites"
	IndexFile            = "index.html"
)

// FSStore keeps one directory per slug holding the rendered document.
//
//	_workspace/sites/{slug}/
//	└── index.html
type FSStore struct {
	basePath string
}

// NewFSStore creates a filesystem store rooted at basePath.
func NewFSStore(basePath string) *FSStore {
	if basePath == "" {
		basePath = DefaultSitesBasePath
	}
	return &FSStore{basePath: basePath}
}

// Backend returns the store backend name.
func (s *FSStore) Backend() string {
	return config.BackendFS
}

// BasePath returns the sites root.
func (s *FSStore) BasePath() string {
	return s.basePath
}

// GetSitePath returns the directory for a slug.
func (s *FSStore) GetSitePath(slug string) string {
	return filepath.Join(s.basePath, slug)
}

// GetIndexPath returns the rendered document path for a slug.
func (s *FSStore) GetIndexPath(slug string) string {
	return filepath.Join(s.basePath, slug, IndexFile)
}

// Upsert renders the site and replaces its index.html.
func (s *FSStore) Upsert(ctx context.Context, site *Site) error {
	if err := ctx.Err(); err != nil {
		return storageError("upsert", site.Slug, err)
	}
	if !IsValidSlug(site.Slug) {
		return storageError("upsert", site.Slug, fmt.Errorf("invalid slug"))
	}

	dir := s.GetSitePath(site.Slug)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return storageError("upsert", site.Slug, fmt.Errorf("failed to create directory %s: %w", dir, err))
	}

	doc := site.Document
	if doc == "" {
		doc = Render(site)
	}

	if err := writeFileAtomic(s.GetIndexPath(site.Slug), []byte(doc)); err != nil {
		return storageError("upsert", site.Slug, err)
	}
	return nil
}

// Fetch returns the stored document for slug. Fragments are not kept on
// disk, so only Slug, Document and UpdatedAt are set.
func (s *FSStore) Fetch(ctx context.Context, slug string) (*Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("fetch", slug, err)
	}
	if !IsValidSlug(slug) {
		return nil, ErrNotFound
	}

	path := s.GetIndexPath(slug)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, storageError("fetch", slug, err)
	}

	site := &Site{Slug: slug, Document: string(data)}
	if info, err := os.Stat(path); err == nil {
		site.UpdatedAt = info.ModTime().UTC()
		site.CreatedAt = site.UpdatedAt
	}
	return site, nil
}

// Ping makes sure the sites root exists and is a directory.
func (s *FSStore) Ping(ctx context.Context) error {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return storageError("ping", "", err)
	}
	info, err := os.Stat(s.basePath)
	if err != nil {
		return storageError("ping", "", err)
	}
	if !info.IsDir() {
		return storageError("ping", "", fmt.Errorf("%s is not a directory", s.basePath))
	}
	return nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so readers see the old file or the new one.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
