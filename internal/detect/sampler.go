package detect

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Frame is one sampled frame together with its index in the source stream.
type Frame struct {
	Index int
	Image image.Image
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// IsVideo reports whether the path looks like a video by extension.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Sampler selects which frames of an input are analyzed. For videos it reads
// at most MaxFrames frames from the start and keeps every Stride-th one; a
// still image is a single frame at index 0.
type Sampler struct {
	MaxFrames int
	Stride    int
	log       zerolog.Logger
}

func NewSampler(maxFrames, stride int, log zerolog.Logger) *Sampler {
	if maxFrames <= 0 {
		maxFrames = 30
	}
	if stride <= 0 {
		stride = 5
	}
	return &Sampler{
		MaxFrames: maxFrames,
		Stride:    stride,
		log:       log,
	}
}

// Sample returns the frames to analyze. A source that cannot be opened or
// read yields no frames; that is a valid outcome, not an error.
func (s *Sampler) Sample(path string) []Frame {
	if IsVideo(path) {
		return s.sampleVideo(path)
	}
	return s.sampleImage(path)
}

func (s *Sampler) sampleImage(path string) []Frame {
	f, err := os.Open(path)
	if err != nil {
		s.log.Warn().Err(err).Str("file", path).Msg("cannot open image")
		return nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		s.log.Warn().Err(err).Str("file", path).Msg("cannot decode image")
		return nil
	}
	return []Frame{{Index: 0, Image: img}}
}

func (s *Sampler) sampleVideo(path string) []Frame {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		s.log.Warn().Err(err).Str("file", path).Msg("cannot open video")
		return nil
	}
	defer capture.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	return s.sampleFrom(&videoReader{capture: capture, mat: &mat})
}

// frameReader abstracts a sequential frame stream so the cap/stride policy
// can run against stub streams in tests. decode is false for frames the
// stride will skip, so readers can avoid converting them.
type frameReader interface {
	read(decode bool) (image.Image, bool)
}

func (s *Sampler) sampleFrom(r frameReader) []Frame {
	var frames []Frame
	for idx := 0; idx < s.MaxFrames; idx++ {
		keep := idx%s.Stride == 0
		img, ok := r.read(keep)
		if !ok {
			break
		}
		if !keep || img == nil {
			continue
		}
		frames = append(frames, Frame{Index: idx, Image: img})
	}
	return frames
}

type videoReader struct {
	capture *gocv.VideoCapture
	mat     *gocv.Mat
}

func (v *videoReader) read(decode bool) (image.Image, bool) {
	if ok := v.capture.Read(v.mat); !ok || v.mat.Empty() {
		return nil, false
	}
	if !decode {
		return nil, true
	}
	img, err := v.mat.ToImage()
	if err != nil {
		// The stream position and frame index still advance.
		return nil, true
	}
	return img, true
}
