package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"violation-service/internal/detect"
	"violation-service/internal/domain/violation"
)

var errNoDetector = errors.New("no detector available")

// Result is one qualifying detection from an upload, as returned to the
// caller and persisted by the front end.
type Result struct {
	ViolationType violation.Label       `json:"violation_type"`
	Confidence    float64               `json:"confidence"`
	Box           violation.BoundingBox `json:"bbox"`
	ResultImage   string                `json:"result_image"`
}

// frameOutcome keeps "detector failed" distinguishable from "no violations"
// inside the pipeline; the distinction collapses at the Process boundary.
type frameOutcome struct {
	results []Result
	err     error
}

// Pipeline runs sampled frames through the detector, classifies each
// detection, and annotates the qualifying ones.
type Pipeline struct {
	detector  detect.Detector
	sampler   *detect.Sampler
	annotator *detect.Annotator
	log       zerolog.Logger
}

// New builds a pipeline. detector may be nil when no model could be loaded;
// processing then degrades to empty results rather than failing uploads.
func New(detector detect.Detector, sampler *detect.Sampler, annotator *detect.Annotator, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		detector:  detector,
		sampler:   sampler,
		annotator: annotator,
		log:       log,
	}
}

// Process analyzes the file at path and returns all qualifying detections in
// frame order, preserving detector order within each frame. Detector failures
// are absorbed per frame; the result is never an error, only possibly empty.
func (p *Pipeline) Process(ctx context.Context, path string) []Result {
	results := make([]Result, 0)
	for _, frame := range p.sampler.Sample(path) {
		outcome := p.processFrame(ctx, frame, path)
		if outcome.err != nil {
			p.log.Warn().
				Err(outcome.err).
				Str("file", path).
				Int("frame", frame.Index).
				Msg("detection failed for frame")
			continue
		}
		results = append(results, outcome.results...)
	}
	return results
}

func (p *Pipeline) processFrame(ctx context.Context, frame detect.Frame, path string) frameOutcome {
	if p.detector == nil {
		return frameOutcome{err: errNoDetector}
	}

	detections, err := p.detector.Detect(ctx, frame.Image)
	if err != nil {
		return frameOutcome{err: err}
	}

	var results []Result
	for i, det := range detections {
		label, ok := detect.Classify(det.ClassID, det.Confidence)
		if !ok {
			continue
		}

		ref := p.annotator.Annotate(frame.Image, det.Box, label, det.Confidence, path, frame.Index, i)
		results = append(results, Result{
			ViolationType: label,
			Confidence:    det.Confidence,
			Box:           det.Box,
			ResultImage:   ref,
		})
	}
	return frameOutcome{results: results}
}

// ModelInfo describes the detector backing the pipeline.
type ModelInfo struct {
	Status           string   `json:"status"`
	ModelPath        string   `json:"model_path,omitempty"`
	ViolationClasses []string `json:"violation_classes"`
}

func (p *Pipeline) ModelInfo() ModelInfo {
	info := ModelInfo{Status: "no model loaded"}
	for _, l := range violation.Labels() {
		info.ViolationClasses = append(info.ViolationClasses, string(l))
	}
	if p.detector == nil {
		return info
	}

	info.Status = "model loaded"
	if d, ok := p.detector.(*detect.DNNDetector); ok {
		info.ModelPath = d.ModelPath()
	}
	return info
}
