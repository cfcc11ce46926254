// Package storage is the durable byte store behind the coordinators:
// local disk with two namespaces, uploads and thumbnails, addressed by
// (date, stored name). Every resolved path is checked to remain strictly
// inside its namespace root.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"studylog/pkg/domain"

	"github.com/google/uuid"
)

const (
	uploadsPrefix    = "/uploads/"
	thumbnailsPrefix = "/thumbnails/"
)

// FileStore persists and retrieves upload bytes. Paths handed out and
// accepted are the storage-relative web paths recorded on FileRecords
// ("/uploads/<date>/<name>", "/thumbnails/<date>/<name>").
type FileStore interface {
	SaveUpload(ctx context.Context, date, name string, r io.Reader) (string, error)
	SaveThumbnail(ctx context.Context, date, name string, data []byte) (string, error)

	// Remove deletes the bytes behind a recorded path. Absent files are
	// not an error (idempotent delete).
	Remove(ctx context.Context, recordPath string) error

	// ResolveUpload / ResolveThumbnail map (date, name) to an absolute
	// disk path, rejecting any resolution that escapes the namespace root.
	ResolveUpload(date, name string) (string, error)
	ResolveThumbnail(date, name string) (string, error)
}

type localStore struct {
	uploadsRoot string
	thumbsRoot  string
}

func NewLocalStore(uploadsRoot, thumbsRoot string) (FileStore, error) {
	ur, err := filepath.Abs(uploadsRoot)
	if err != nil {
		return nil, err
	}
	tr, err := filepath.Abs(thumbsRoot)
	if err != nil {
		return nil, err
	}
	return &localStore{uploadsRoot: ur, thumbsRoot: tr}, nil
}

// StoredName builds a collision-free stored filename from the upload
// instant, a random disambiguator, the task id and the original name.
func StoredName(now time.Time, taskID, original string) string {
	base := sanitizeName(original)
	return fmt.Sprintf("%d-%s-%s-%s", now.UnixMilli(), uuid.NewString()[:8], taskID, base)
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

func (s *localStore) SaveUpload(ctx context.Context, date, name string, r io.Reader) (string, error) {
	dst, err := containedJoin(s.uploadsRoot, date, name)
	if err != nil {
		return "", err
	}
	if err := writeFile(dst, r); err != nil {
		return "", domain.StorageError("write upload", err)
	}
	return uploadsPrefix + date + "/" + name, nil
}

func (s *localStore) SaveThumbnail(ctx context.Context, date, name string, data []byte) (string, error) {
	dst, err := containedJoin(s.thumbsRoot, date, name)
	if err != nil {
		return "", err
	}
	if err := writeFile(dst, bytes.NewReader(data)); err != nil {
		return "", domain.StorageError("write thumbnail", err)
	}
	return thumbnailsPrefix + date + "/" + name, nil
}

func (s *localStore) Remove(ctx context.Context, recordPath string) error {
	var root, rel string
	switch {
	case strings.HasPrefix(recordPath, uploadsPrefix):
		root, rel = s.uploadsRoot, strings.TrimPrefix(recordPath, uploadsPrefix)
	case strings.HasPrefix(recordPath, thumbnailsPrefix):
		root, rel = s.thumbsRoot, strings.TrimPrefix(recordPath, thumbnailsPrefix)
	default:
		return domain.NewError(domain.KindInvalidRequest, "unrecognized storage path")
	}
	parts := strings.SplitN(rel, "/", 2)
	if len(parts) != 2 {
		return domain.NewError(domain.KindInvalidRequest, "malformed storage path")
	}
	dst, err := containedJoin(root, parts[0], parts[1])
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return domain.StorageError("remove file", err)
	}
	return nil
}

func (s *localStore) ResolveUpload(date, name string) (string, error) {
	p, err := containedJoin(s.uploadsRoot, date, name)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(p); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", domain.NewError(domain.KindNotFound, "file not found")
		}
		return "", domain.StorageError("stat file", statErr)
	}
	return p, nil
}

func (s *localStore) ResolveThumbnail(date, name string) (string, error) {
	p, err := containedJoin(s.thumbsRoot, date, name)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(p); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", domain.NewError(domain.KindNotFound, "thumbnail not found")
		}
		return "", domain.StorageError("stat thumbnail", statErr)
	}
	return p, nil
}

// containedJoin joins root/date/name and rejects any resolved path that
// lands outside root. Path-escape attempts surface as Forbidden.
func containedJoin(root, date, name string) (string, error) {
	joined := filepath.Join(root, date, name)
	cleaned := filepath.Clean(joined)
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", domain.NewError(domain.KindForbidden, "path escapes storage root")
	}
	// Join collapses ".." before the prefix check, so re-check the
	// components. Only a whole ".." component escapes; names like
	// "report..v2.png" are legitimate.
	for _, part := range strings.Split(date+"/"+name, "/") {
		if part == ".." {
			return "", domain.NewError(domain.KindForbidden, "path escapes storage root")
		}
	}
	if date == "" || name == "" {
		return "", domain.NewError(domain.KindInvalidRequest, "empty path component")
	}
	return cleaned, nil
}

func writeFile(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return nil
}
