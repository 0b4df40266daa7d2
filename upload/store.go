package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrTooLarge is returned when an attachment exceeds the configured size cap.
var ErrTooLarge = errors.New("upload too large")

// Store persists attachments on the local filesystem. Stored files are
// named <original-basename><unix-ms><original-extension> so repeated
// uploads of the same file never collide.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory if it does not exist yet.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Info().Str("dir", dir).Msg("creating upload directory")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory attachments are stored under.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one multipart attachment to disk and returns the stored
// filename. Files over the size cap are rejected before anything is written.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxBytes {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(file.Filename)
	base := strings.TrimSuffix(filepath.Base(file.Filename), ext)
	name := fmt.Sprintf("%s%d%s", base, time.Now().UnixMilli(), ext)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return name, nil
}
