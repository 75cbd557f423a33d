package detect

import (
	"violation-service/internal/domain/violation"
)

// COCO class ids the classifier understands.
const (
	ClassPerson     = 0
	ClassBicycle    = 1
	ClassCar        = 2
	ClassMotorcycle = 3
	ClassBus        = 5
	ClassTruck      = 7
)

type rule struct {
	classes   []int
	threshold float64
	label     violation.Label
}

// Heuristic class-to-violation table. These are placeholder rules over generic
// COCO detections, not a trained violation model: any sufficiently confident
// person is flagged as riding without a helmet, and so on. Thresholds are
// strict greater-than. Nothing produces violation.Speeding.
var rules = []rule{
	{classes: []int{ClassPerson}, threshold: 0.70, label: violation.NoHelmet},
	{classes: []int{ClassMotorcycle}, threshold: 0.80, label: violation.TripleRiding},
	{classes: []int{ClassCar, ClassBus, ClassTruck}, threshold: 0.60, label: violation.WrongLane},
	{classes: []int{ClassBicycle}, threshold: 0.70, label: violation.RedLightJump},
}

// Classify maps one (class id, confidence) pair to a violation label. The
// second return is false when no rule matches, meaning the detection is
// dropped rather than persisted.
func Classify(classID int, confidence float64) (violation.Label, bool) {
	for _, r := range rules {
		for _, c := range r.classes {
			if classID == c && confidence > r.threshold {
				return r.label, true
			}
		}
	}
	return "", false
}
