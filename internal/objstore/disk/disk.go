// Package disk implements objstore.Store on the local filesystem.
package disk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/janboddez/indieauth/internal/objstore"
	"github.com/janboddez/indieauth/internal/util/atomicwrite"
)

type Store struct {
	root    string
	baseURL string // public URL prefix the host serves root under
}

func New(root, baseURL string) *Store {
	return &Store{
		root:    filepath.Clean(root),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *Store) full(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *Store) List(_ context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	dir := filepath.Dir(s.full(prefix))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []objstore.ObjectInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(dir, e.Name())
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, objstore.ObjectInfo{Path: rel, ModTime: info.ModTime()})
	}
	return out, nil
}

func (s *Store) Put(_ context.Context, path string, data []byte, _ string) error {
	return atomicwrite.AtomicWriteFile(s.full(path), data, fs.FileMode(0644))
}

func (s *Store) Move(_ context.Context, from, to string) error {
	dst := s.full(to)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.Rename(s.full(from), dst)
}

func (s *Store) URL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}
