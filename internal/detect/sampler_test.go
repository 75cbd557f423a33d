package detect

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	total int
	pos   int
}

func (s *stubReader) read(decode bool) (image.Image, bool) {
	if s.pos >= s.total {
		return nil, false
	}
	s.pos++
	if !decode {
		return nil, true
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), true
}

func TestSampleFromCapAndStride(t *testing.T) {
	tests := []struct {
		name        string
		frames      int
		wantIndices []int
	}{
		{"empty stream", 0, nil},
		{"short video", 3, []int{0}},
		{"two strides", 7, []int{0, 5}},
		{"partial", 12, []int{0, 5, 10}},
		{"exactly at cap", 30, []int{0, 5, 10, 15, 20, 25}},
		{"beyond cap", 100, []int{0, 5, 10, 15, 20, 25}},
	}

	s := NewSampler(30, 5, zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := s.sampleFrom(&stubReader{total: tt.frames})

			var indices []int
			for _, f := range frames {
				indices = append(indices, f.Index)
			}
			assert.Equal(t, tt.wantIndices, indices)
		})
	}
}

func TestSampleFromRestartable(t *testing.T) {
	s := NewSampler(30, 5, zerolog.Nop())
	first := s.sampleFrom(&stubReader{total: 20})
	second := s.sampleFrom(&stubReader{total: 20})
	assert.Len(t, second, len(first))
}

func TestSampleStillImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writeTestPNG(t, path, 8, 6)

	s := NewSampler(30, 5, zerolog.Nop())
	frames := s.Sample(path)

	require.Len(t, frames, 1)
	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, image.Rect(0, 0, 8, 6), frames[0].Image.Bounds())
}

func TestSampleMissingFile(t *testing.T) {
	s := NewSampler(30, 5, zerolog.Nop())
	assert.Empty(t, s.Sample(filepath.Join(t.TempDir(), "nope.jpg")))
}

func TestSampleCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	s := NewSampler(30, 5, zerolog.Nop())
	assert.Empty(t, s.Sample(path))
}

func TestIsVideo(t *testing.T) {
	assert.True(t, IsVideo("clip.mp4"))
	assert.True(t, IsVideo("CLIP.MOV"))
	assert.True(t, IsVideo("a/b/clip.mkv"))
	assert.False(t, IsVideo("photo.jpg"))
	assert.False(t, IsVideo("noext"))
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 40), 128, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
