package violation

import (
	"strings"
	"time"
)

// Label is one of the fixed traffic violation categories.
type Label string

const (
	RedLightJump Label = "red_light_jump"
	NoHelmet     Label = "no_helmet"
	TripleRiding Label = "triple_riding"
	WrongLane    Label = "wrong_lane"
	// Speeding is part of the vocabulary but has no classifier rule producing it.
	Speeding Label = "speeding"
)

// Labels returns the full violation vocabulary.
func Labels() []Label {
	return []Label{RedLightJump, NoHelmet, TripleRiding, WrongLane, Speeding}
}

// Valid reports whether l belongs to the violation vocabulary.
func (l Label) Valid() bool {
	switch l {
	case RedLightJump, NoHelmet, TripleRiding, WrongLane, Speeding:
		return true
	}
	return false
}

// Display renders the label for humans, e.g. "wrong_lane" -> "Wrong Lane".
func (l Label) Display() string {
	parts := strings.Split(string(l), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// BoundingBox is an axis-aligned box in pixel coordinates, origin top-left.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Detection is a single object instance found by the detector in one frame.
// Detections are ephemeral; only classified ones end up as records.
type Detection struct {
	Box        BoundingBox
	ClassID    int
	Confidence float64
}

// Record is the persisted unit: one labeled, annotated detection.
type Record struct {
	ID          int64        `json:"id"`
	Filename    string       `json:"filename"`
	Label       Label        `json:"violation_type"`
	Confidence  float64      `json:"confidence"`
	Timestamp   time.Time    `json:"timestamp"`
	ResultImage string       `json:"result_image"`
	Box         *BoundingBox `json:"bbox,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Stats aggregates the violations table.
type Stats struct {
	TotalViolations  int64            `json:"total_violations"`
	ViolationsByType map[string]int64 `json:"violations_by_type"`
	RecentViolations int64            `json:"recent_violations"`
	AvgConfidence    float64          `json:"avg_confidence"`
}
