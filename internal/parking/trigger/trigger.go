package trigger

import (
	"math"
	"sort"

	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// Config holds the vehicle-relative reference geometry and tolerances.
type Config struct {
	MirrorLongitudinal     float64 // Mirror position ahead of the pose origin (metres)
	MirrorLateral          float64 // Mirror distance from the centreline (metres)
	MirrorClearance        float64 // Inward offset applied to both mirrors (metres)
	CollinearityTolerance  float64 // Allowed |sin| of the angle between edge and reference
	HorizontalToleranceDeg float64 // Passed to geometry.HorizontalEdge
}

// DefaultConfig returns the reference geometry used when no config file
// overrides it.
func DefaultConfig() Config {
	return Config{
		MirrorLongitudinal:     2.0,
		MirrorLateral:          1.0,
		MirrorClearance:        0.1,
		CollinearityTolerance:  0.02,
		HorizontalToleranceDeg: geometry.DefaultHorizontalToleranceDeg,
	}
}

// Side names the mirror a trigger fired against.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// MirrorReferences returns the left and right reference points in the
// evaluation frame, each pulled inward by MirrorClearance.
func (c Config) MirrorReferences(pose slots.Pose) (left, right orb.Point) {
	lat := c.MirrorLateral - c.MirrorClearance
	left = pose.ToWorld(orb.Point{c.MirrorLongitudinal, lat})
	right = pose.ToWorld(orb.Point{c.MirrorLongitudinal, -lat})
	return left, right
}

// Candidate is a polygon standing in for ground-truth slot ID at one
// timestamp: either the annotation itself or the scanned slot associated
// with it.
type Candidate struct {
	ID      int
	Polygon geometry.Polygon
}

// Frame is one recorded timestamp.
type Frame struct {
	Timestamp  slots.Timestamp
	Pose       slots.Pose
	Candidates []Candidate
}

// Trigger is the evaluation instant of one ground-truth slot.
type Trigger struct {
	ID        int             `json:"gt_id"`
	Timestamp slots.Timestamp `json:"timestamp_us"`
	Side      Side            `json:"side"`
	Edge      [2]orb.Point    `json:"edge"`
	Reference orb.Point       `json:"reference"`
}

// Collinear reports whether ref lies on the line through p1 and p2. The
// cross product is normalised by both lengths so tol bounds the sine of
// the angle between p1→p2 and p1→ref regardless of slot scale.
func Collinear(p1, p2, ref orb.Point, tol float64) bool {
	a := r2.Sub(r2.Vec{X: p2[0], Y: p2[1]}, r2.Vec{X: p1[0], Y: p1[1]})
	b := r2.Sub(r2.Vec{X: ref[0], Y: ref[1]}, r2.Vec{X: p1[0], Y: p1[1]})
	la, lb := r2.Norm(a), r2.Norm(b)
	if la == 0 {
		return false
	}
	if lb == 0 {
		return true
	}
	return math.Abs(r2.Cross(a, b)) <= tol*la*lb
}

// Detector records the first trigger per ground-truth id.
type Detector struct {
	cfg       Config
	triggered map[int]Trigger
	order     []int
}

// NewDetector creates a detector with no triggers recorded.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:       cfg,
		triggered: make(map[int]Trigger),
	}
}

// Observe tests every candidate of f whose id has not triggered yet and
// returns the triggers fired by this frame, in candidate order.
// Candidates without a horizontal edge are skipped for this frame only.
func (d *Detector) Observe(f Frame) []Trigger {
	left, right := d.cfg.MirrorReferences(f.Pose)

	var fired []Trigger
	for _, c := range f.Candidates {
		if _, done := d.triggered[c.ID]; done {
			continue
		}
		p1, p2, err := geometry.HorizontalEdge(c.Polygon, d.cfg.HorizontalToleranceDeg)
		if err != nil {
			tracef("ts=%d id=%d skipped: %v", f.Timestamp, c.ID, err)
			continue
		}

		side, ref := SideLeft, left
		mid := orb.Point{(p1[0] + p2[0]) / 2, (p1[1] + p2[1]) / 2}
		if dist2(mid, right) < dist2(mid, left) {
			side, ref = SideRight, right
		}

		if !Collinear(p1, p2, ref, d.cfg.CollinearityTolerance) {
			tracef("ts=%d id=%d not collinear with %s mirror", f.Timestamp, c.ID, side)
			continue
		}

		tr := Trigger{
			ID:        c.ID,
			Timestamp: f.Timestamp,
			Side:      side,
			Edge:      [2]orb.Point{p1, p2},
			Reference: ref,
		}
		d.triggered[c.ID] = tr
		d.order = append(d.order, c.ID)
		fired = append(fired, tr)
		diagf("id=%d triggered at ts=%d against %s mirror", c.ID, f.Timestamp, side)
	}
	return fired
}

// Triggered returns the trigger for id, if any.
func (d *Detector) Triggered(id int) (Trigger, bool) {
	tr, ok := d.triggered[id]
	return tr, ok
}

// Triggers returns every recorded trigger in discovery order.
func (d *Detector) Triggers() []Trigger {
	out := make([]Trigger, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.triggered[id])
	}
	return out
}

// Detect runs a fresh detector over frames in chronological order. Frames
// with equal timestamps keep their input order.
func Detect(cfg Config, frames []Frame) []Trigger {
	ordered := make([]Frame, len(frames))
	copy(ordered, frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	d := NewDetector(cfg)
	for _, f := range ordered {
		d.Observe(f)
	}
	if len(frames) > 0 && len(d.order) == 0 {
		opsf("no slot triggered across %d frames", len(frames))
	}
	return d.Triggers()
}

func dist2(a, b orb.Point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}
