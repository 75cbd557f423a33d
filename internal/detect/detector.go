package detect

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"violation-service/internal/domain/violation"
)

// Detector finds objects in a single frame. Implementations are injected so
// the pipeline can run against canned detections in tests.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]violation.Detection, error)
	Close() error
}

// DNNDetector runs a pretrained SSD MobileNet COCO network through OpenCV.
// Detections below MinConfidence are discarded before any violation rule
// sees them.
type DNNDetector struct {
	net           gocv.Net
	minConfidence float32
	modelPath     string
	log           zerolog.Logger
}

func NewDNNDetector(modelPath, configPath string, minConfidence float64, log zerolog.Logger) (*DNNDetector, error) {
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("read detection model %s: empty network", modelPath)
	}

	log.Info().Str("model", modelPath).Msg("loaded detection model")

	return &DNNDetector{
		net:           net,
		minConfidence: float32(minConfidence),
		modelPath:     modelPath,
		log:           log,
	}, nil
}

func (d *DNNDetector) Detect(ctx context.Context, img image.Image) ([]violation.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	width := float32(mat.Cols())
	height := float32(mat.Rows())

	var detections []violation.Detection
	rows := output.Total() / 7
	for i := 0; i < rows; i++ {
		confidence := output.GetFloatAt(0, i*7+2)
		if confidence < d.minConfidence {
			continue
		}

		// SSD COCO class ids are 1-based; the violation rules use the
		// 0-based COCO numbering.
		classID := int(output.GetFloatAt(0, i*7+1)) - 1

		x1 := int(output.GetFloatAt(0, i*7+3) * width)
		y1 := int(output.GetFloatAt(0, i*7+4) * height)
		x2 := int(output.GetFloatAt(0, i*7+5) * width)
		y2 := int(output.GetFloatAt(0, i*7+6) * height)

		detections = append(detections, violation.Detection{
			Box:        violation.BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
			ClassID:    classID,
			Confidence: float64(confidence),
		})
	}

	return detections, nil
}

func (d *DNNDetector) ModelPath() string {
	return d.modelPath
}

func (d *DNNDetector) Close() error {
	return d.net.Close()
}
