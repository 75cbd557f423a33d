package detect

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"violation-service/internal/domain/violation"
)

var labelColors = map[violation.Label]color.RGBA{
	violation.RedLightJump: {255, 0, 0, 255},
	violation.NoHelmet:     {255, 165, 0, 255},
	violation.TripleRiding: {0, 0, 255, 255},
	violation.WrongLane:    {0, 255, 0, 255},
	violation.Speeding:     {255, 255, 0, 255},
}

var defaultColor = color.RGBA{255, 255, 255, 255}

// Annotator draws labeled bounding boxes on copies of source frames and
// writes them to the results directory.
type Annotator struct {
	ResultsDir string
	log        zerolog.Logger
}

func NewAnnotator(resultsDir string, log zerolog.Logger) *Annotator {
	return &Annotator{
		ResultsDir: resultsDir,
		log:        log,
	}
}

// ResultName derives the deterministic result image name for one detection.
func ResultName(srcPath string, frameIndex, detectionIndex int) string {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	return fmt.Sprintf("%s_frame%d_det%d.jpg", base, frameIndex, detectionIndex)
}

// Annotate renders the labeled box onto a copy of img and persists it. It
// returns the result image name, or "" if the image could not be written;
// write failures are absorbed here, never escalated.
func (a *Annotator) Annotate(img image.Image, box violation.BoundingBox, label violation.Label, confidence float64, srcPath string, frameIndex, detectionIndex int) string {
	annotated := a.Render(img, box, label, confidence)
	name := ResultName(srcPath, frameIndex, detectionIndex)
	path := filepath.Join(a.ResultsDir, name)

	f, err := os.Create(path)
	if err != nil {
		a.log.Warn().Err(err).Str("result", name).Msg("cannot create result image")
		return ""
	}
	defer f.Close()

	if err := jpeg.Encode(f, annotated, &jpeg.Options{Quality: 85}); err != nil {
		a.log.Warn().Err(err).Str("result", name).Msg("cannot encode result image")
		return ""
	}
	return name
}

// Render returns a new annotated image; the input is never modified.
func (a *Annotator) Render(img image.Image, box violation.BoundingBox, label violation.Label, confidence float64) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	c, ok := labelColors[label]
	if !ok {
		c = defaultColor
	}

	drawBox(rgba, box, c, 2)

	text := fmt.Sprintf("%s: %.2f", label.Display(), confidence)
	drawLabel(rgba, box, text, c)

	return rgba
}

// drawBox draws the rectangle edges with the given thickness, clipped to the
// image bounds.
func drawBox(img *image.RGBA, box violation.BoundingBox, c color.RGBA, thickness int) {
	bounds := img.Bounds()
	for t := 0; t < thickness; t++ {
		for x := box.X1; x <= box.X2; x++ {
			setPixel(img, bounds, x, box.Y1+t, c)
			setPixel(img, bounds, x, box.Y2-t, c)
		}
		for y := box.Y1; y <= box.Y2; y++ {
			setPixel(img, bounds, box.X1+t, y, c)
			setPixel(img, bounds, box.X2-t, y, c)
		}
	}
}

// drawLabel paints a filled background sized to the text directly above the
// box, then the text itself in white.
func drawLabel(img *image.RGBA, box violation.BoundingBox, text string, c color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	bg := image.Rect(box.X1, box.Y1-height-4, box.X1+width+4, box.Y1)
	draw.Draw(img, bg.Intersect(img.Bounds()), &image.Uniform{c}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(box.X1 + 2),
			Y: fixed.I(box.Y1 - 4),
		},
	}
	drawer.DrawString(text)
}

func setPixel(img *image.RGBA, bounds image.Rectangle, x, y int, c color.RGBA) {
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		img.SetRGBA(x, y, c)
	}
}
