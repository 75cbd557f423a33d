package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedFile(t *testing.T) {
	allowed := []string{"a.png", "b.jpg", "c.JPEG", "d.gif", "e.mp4", "f.AVI", "g.mov", "h.mkv"}
	for _, name := range allowed {
		assert.True(t, AllowedFile(name), name)
	}

	denied := []string{"a.txt", "b.exe", "noext", "", "archive.tar.gz", "clip.webm"}
	for _, name := range denied {
		assert.False(t, AllowedFile(name), name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo.jpg", "my_photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\windows\\clip.mp4", "clip.mp4"},
		{"weird$chars!.png", "weird_chars_.png"},
		{"...", ""},
		{"..", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "results"), zerolog.Nop())
	require.NoError(t, err)

	fh := uploadHeader(t, "evidence clip.mp4", []byte("video-bytes"))
	stored, err := store.SaveUpload(fh)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{8}_\d{6}_evidence_clip\.mp4$`), stored)

	data, err := os.ReadFile(store.UploadPath(stored))
	require.NoError(t, err)
	assert.Equal(t, []byte("video-bytes"), data)
}

func TestSaveUploadFallsBackToGeneratedName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "uploads"), filepath.Join(dir, "results"), zerolog.Nop())
	require.NoError(t, err)

	fh := uploadHeader(t, "....jpg", []byte("x"))
	stored, err := store.SaveUpload(fh)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stored, ".jpg"), stored)
	assert.NotContains(t, stored, "..")
}

func TestNewStoreCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	uploads := filepath.Join(dir, "a", "uploads")
	results := filepath.Join(dir, "b", "results")

	_, err := NewStore(uploads, results, zerolog.Nop())
	require.NoError(t, err)

	for _, d := range []string{uploads, results} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
