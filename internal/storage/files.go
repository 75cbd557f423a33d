package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
}

// AllowedFile reports whether the upload filename carries a permitted
// extension.
func AllowedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext != "" && allowedExtensions[ext]
}

// SanitizeFilename strips path components and reduces the name to a safe
// character set. The result may be empty.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	name = strings.Trim(name, "._")
	if name == ".." || name == "." {
		return ""
	}
	return name
}

// Store owns the upload and result directories.
type Store struct {
	UploadDir  string
	ResultsDir string
	log        zerolog.Logger
}

func NewStore(uploadDir, resultsDir string, log zerolog.Logger) (*Store, error) {
	for _, dir := range []string{uploadDir, resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &Store{
		UploadDir:  uploadDir,
		ResultsDir: resultsDir,
		log:        log,
	}, nil
}

// SaveUpload writes the uploaded file under a timestamp-prefixed, sanitized
// name and returns that stored name.
func (s *Store) SaveUpload(fh *multipart.FileHeader) (string, error) {
	name := SanitizeFilename(fh.Filename)
	if name == "" || filepath.Ext(name) == "" {
		name = uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	}
	stored := time.Now().Format("20060102_150405") + "_" + name

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.UploadDir, stored))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	s.log.Debug().Str("filename", stored).Int64("size", fh.Size).Msg("saved upload")
	return stored, nil
}

// UploadPath resolves a stored upload name to its path on disk.
func (s *Store) UploadPath(name string) string {
	return filepath.Join(s.UploadDir, name)
}

// ResultPath resolves a result image name to its path on disk.
func (s *Store) ResultPath(name string) string {
	return filepath.Join(s.ResultsDir, name)
}
