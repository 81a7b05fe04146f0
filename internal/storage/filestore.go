// Package storage persists uploaded post images under a media root.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkwell/internal/models"
)

// postPrefix is the directory under the media root that holds post images;
// stored paths are addressed relative to the root, e.g. "posts/169..._pic.png".
const postPrefix = "posts"

var allowedExtensions = map[string]struct{}{
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".webp": {},
}

// FileStore writes uploaded files below a fixed root directory.
type FileStore struct {
	root string
}

// NewFileStore returns a FileStore rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the media root directory.
func (s *FileStore) Root() string {
	return s.root
}

// SavePostImage stores an uploaded image and returns its media path
// (relative to the root, always forward-slashed).
func (s *FileStore) SavePostImage(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", models.NewValidationError("Unsupported image type")
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeName(file.Filename))
	dir := filepath.Join(s.root, postPrefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	src, err := file.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", models.NewInternalError(err)
	}

	return postPrefix + "/" + name, nil
}

// sanitizeName keeps only characters that are safe in a stored file name.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
