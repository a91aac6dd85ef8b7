package classify

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/parking.report/internal/parking/association"
	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/banshee-data/parking.report/internal/parking/slots"
)

// ErrAlreadyClassified is returned when a key already has a result.
var ErrAlreadyClassified = errors.New("already classified")

// Label is the verdict for one ground-truth id.
type Label string

const (
	TruePositive  Label = "TP"
	FalsePositive Label = "FP"
	FalseNegative Label = "FN"
)

// Thresholds are the acceptance limits for a single association.
type Thresholds struct {
	OverlapPct     float64 // overlap must exceed this
	OrientationDeg float64 // orientation difference must stay below this
	CenterShort    float64 // short-axis centre distance limit (metres)
	CenterLong     float64 // long-axis centre distance limit (metres)
}

// Params holds everything Score needs besides the two slots.
type Params struct {
	Thresholds             Thresholds
	VehicleWidth           float64
	VehicleLength          float64
	HorizontalToleranceDeg float64
	FitStepDeg             float64
}

// DefaultParams returns the parameters used when no config overrides them.
func DefaultParams() Params {
	return Params{
		Thresholds: Thresholds{
			OverlapPct:     70,
			OrientationDeg: 5,
			CenterShort:    0.5,
			CenterLong:     1.0,
		},
		VehicleWidth:           1.9,
		VehicleLength:          4.7,
		HorizontalToleranceDeg: geometry.DefaultHorizontalToleranceDeg,
		FitStepDeg:             geometry.DefaultFitStepDeg,
	}
}

// Key identifies one evaluation: a ground-truth id at its evaluation
// timestamp.
type Key struct {
	GroundTruthID int             `json:"gt_id"`
	Timestamp     slots.Timestamp `json:"timestamp_us"`
}

func (k Key) String() string {
	return fmt.Sprintf("gt=%d ts=%d", k.GroundTruthID, k.Timestamp)
}

// Result is the classification record for one Key.
type Result struct {
	Key
	Label     Label `json:"label"`
	Triggered bool  `json:"triggered"`

	// ScannedIndex is the associated scanned channel, or -1 for FN.
	ScannedIndex    int                `json:"scanned_index"`
	ScenarioCode    slots.ScenarioCode `json:"scenario_code"`
	GroundTruthType slots.SlotType     `json:"gt_type"`
	Distance        float64            `json:"association_distance"`

	OverlapPct         float64 `json:"overlap_pct"`
	OrientationDiffDeg float64 `json:"orientation_diff_deg"`
	ShortAxisDist      float64 `json:"short_axis_dist"`
	LongAxisDist       float64 `json:"long_axis_dist"`
	VehicleFits        bool    `json:"vehicle_fits"`
	TypeMatch          bool    `json:"type_match"`
}

// Accepted applies the acceptance rule:
//
//	overlap > T_overlap
//	orientation difference < T_orientation
//	scenario code matches the slot type
//	(short < T_short and long < T_long) or the vehicle fits
func (r Result) Accepted(t Thresholds) bool {
	if r.OverlapPct <= t.OverlapPct {
		return false
	}
	if r.OrientationDiffDeg >= t.OrientationDeg {
		return false
	}
	if !r.TypeMatch {
		return false
	}
	centred := r.ShortAxisDist < t.CenterShort && r.LongAxisDist < t.CenterLong
	return centred || r.VehicleFits
}

// Score computes the metrics of a and labels it TP or FP. A geometry
// failure (invalid polygon, no horizontal edge, unknown slot type) is
// returned as an error and no result is produced.
func Score(gt slots.GroundTruthSlot, a association.Association, p Params) (Result, error) {
	r := Result{
		Key:             Key{GroundTruthID: gt.ID, Timestamp: a.Timestamp},
		Triggered:       true,
		ScannedIndex:    a.ScannedIndex,
		ScenarioCode:    a.Scanned.ScenarioCode,
		GroundTruthType: gt.Type,
		Distance:        a.Distance,
	}

	inter, pct, err := geometry.Overlap(gt.Polygon, a.Scanned.Polygon)
	if err != nil {
		return Result{}, err
	}
	r.OverlapPct = pct

	gtDeg, err := geometry.Orientation(gt.Polygon, p.HorizontalToleranceDeg)
	if err != nil {
		return Result{}, fmt.Errorf("ground truth: %w", err)
	}
	scDeg, err := geometry.Orientation(a.Scanned.Polygon, p.HorizontalToleranceDeg)
	if err != nil {
		return Result{}, fmt.Errorf("scanned: %w", err)
	}
	r.OrientationDiffDeg = math.Abs(gtDeg - scDeg)

	r.ShortAxisDist, r.LongAxisDist, err = geometry.CenterDistances(gt.Center(), a.Scanned.Center(), gt.Type, gtDeg)
	if err != nil {
		return Result{}, err
	}

	r.TypeMatch = slots.TypeMatches(gt.Type, a.Scanned.ScenarioCode)
	r.VehicleFits = geometry.RectangleFits(inter, p.VehicleWidth, p.VehicleLength, p.FitStepDeg)

	r.Label = FalsePositive
	if r.Accepted(p.Thresholds) {
		r.Label = TruePositive
	}
	tracef("%s scanned=%d overlap=%.1f%% dOrient=%.2f° short=%.2f long=%.2f fits=%t type=%t",
		r.Key, r.ScannedIndex, r.OverlapPct, r.OrientationDiffDeg, r.ShortAxisDist, r.LongAxisDist, r.VehicleFits, r.TypeMatch)
	return r, nil
}

// Missed is the FN record for a ground-truth id without an association.
func Missed(gt slots.GroundTruthSlot, ts slots.Timestamp, triggered bool) Result {
	return Result{
		Key:             Key{GroundTruthID: gt.ID, Timestamp: ts},
		Label:           FalseNegative,
		Triggered:       triggered,
		ScannedIndex:    -1,
		GroundTruthType: gt.Type,
	}
}

// Skip records an evaluation that could not be scored.
type Skip struct {
	Key
	ScannedIndex int    `json:"scanned_index"`
	Reason       string `json:"reason"`
}

// Classifier collects results for one recording.
type Classifier struct {
	params  Params
	results map[Key]Result
	order   []Key
	skipped []Skip
}

// NewClassifier creates an empty classifier.
func NewClassifier(p Params) *Classifier {
	return &Classifier{
		params:  p,
		results: make(map[Key]Result),
	}
}

// Params returns the parameters the classifier scores with.
func (c *Classifier) Params() Params {
	return c.params
}

// Classify scores a and records the result. Geometry failures are
// recorded as a Skip and returned; the caller continues with the next id.
func (c *Classifier) Classify(gt slots.GroundTruthSlot, a association.Association) (Result, error) {
	key := Key{GroundTruthID: gt.ID, Timestamp: a.Timestamp}
	if _, ok := c.results[key]; ok {
		return Result{}, fmt.Errorf("%s: %w", key, ErrAlreadyClassified)
	}

	r, err := Score(gt, a, c.params)
	if err != nil {
		c.skipped = append(c.skipped, Skip{Key: key, ScannedIndex: a.ScannedIndex, Reason: err.Error()})
		opsf("%s scanned=%d skipped: %v", key, a.ScannedIndex, err)
		return Result{}, fmt.Errorf("%s: %w", key, err)
	}
	c.record(r)
	return r, nil
}

// MarkMissed records an FN for gt at ts.
func (c *Classifier) MarkMissed(gt slots.GroundTruthSlot, ts slots.Timestamp, triggered bool) (Result, error) {
	r := Missed(gt, ts, triggered)
	if _, ok := c.results[r.Key]; ok {
		return Result{}, fmt.Errorf("%s: %w", r.Key, ErrAlreadyClassified)
	}
	c.record(r)
	return r, nil
}

func (c *Classifier) record(r Result) {
	c.results[r.Key] = r
	c.order = append(c.order, r.Key)
	diagf("%s -> %s", r.Key, r.Label)
}

// Result returns the record for k.
func (c *Classifier) Result(k Key) (Result, bool) {
	r, ok := c.results[k]
	return r, ok
}

// Results returns every record in classification order.
func (c *Classifier) Results() []Result {
	out := make([]Result, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.results[k])
	}
	return out
}

// Skipped returns the evaluations that could not be scored.
func (c *Classifier) Skipped() []Skip {
	out := make([]Skip, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// Counts tallies the labels of the recorded results.
func (c *Classifier) Counts() rates.Counts {
	return Tally(c.Results())
}

// Tally counts labels in results.
func Tally(results []Result) rates.Counts {
	var n rates.Counts
	for _, r := range results {
		switch r.Label {
		case TruePositive:
			n.TP++
		case FalsePositive:
			n.FP++
		case FalseNegative:
			n.FN++
		}
	}
	return n
}
