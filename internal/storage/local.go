// Package storage persists uploaded originals. A single local-disk store
// backs the application; the Store interface keeps the services decoupled
// from the medium so a managed blob backend could be swapped in later.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// StoredObject describes where an uploaded file ended up.
type StoredObject struct {
	StoredName string // name within the client's directory
	Path       string // absolute or root-relative filesystem path
	Size       int64
}

// Store saves uploaded originals keyed by client.
type Store interface {
	Save(ctx context.Context, clientID, originalName string, data []byte) (*StoredObject, error)
}

// LocalStore writes originals under <root>/<clientID>/<timestamp>-<name>.
type LocalStore struct {
	root string
}

// NewLocalStore constructs a LocalStore rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// Save writes data to disk. The stored name is prefixed with a millisecond
// timestamp so repeated uploads of the same filename never collide.
func (s *LocalStore) Save(ctx context.Context, clientID, originalName string, data []byte) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, clientID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	safe := whitespaceRE.ReplaceAllString(filepath.Base(originalName), "_")
	storedName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safe)
	path := filepath.Join(dir, storedName)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &StoredObject{StoredName: storedName, Path: path, Size: int64(len(data))}, nil
}
