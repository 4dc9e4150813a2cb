// Package storage stores uploaded documents and generated export artifacts.
// Keys are opaque strings; backends are S3, GCS, the local filesystem and
// process memory.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taxintake/intakeengine/internal/common"
)

// Storage is the file storage collaborator. Fetch of a missing key returns
// common.ErrorNotFound; I/O failures wrap common.ErrStorageFault.
type Storage interface {
	// Store saves an uploaded file and returns its new key.
	Store(ctx context.Context, data []byte, name, category string) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// Put writes data under a caller-chosen key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

var now = time.Now

// NewObjectKey returns a fresh key for an uploaded file:
// files/<category>/<yyyy>/<mm>/<uuid><ext>.
func NewObjectKey(category, name string) string {
	d := now().UTC()
	ext := strings.ToLower(path.Ext(name))
	if !validExt(ext) {
		ext = ""
	}
	if category == "" {
		category = "other"
	}
	return fmt.Sprintf("files/%s/%d/%02d/%s%s", category, d.Year(), d.Month(), uuid.New(), ext)
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 8 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// ExportKey scopes packet artifacts by intake and request, so concurrent
// generations never share a path.
func ExportKey(intakeID, requestID, name string) string {
	return path.Join("exports", intakeID, requestID, name)
}

func fault(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", common.ErrStorageFault, op, key, err)
}

func notFound(key string) error {
	return fmt.Errorf("object %s: %w", key, common.ErrorNotFound)
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: invalid key %q", common.ErrStorageFault, key)
	}
	return nil
}
