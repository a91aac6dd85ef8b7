package association

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/paulmach/orb"
)

// distanceTie is the distance difference, in metres, below which two
// claims count as equally near.
const distanceTie = 1e-9

// Policy decides which association survives when several scanned slots
// claim the same ground-truth id.
type Policy string

const (
	// PolicyFirst keeps the first claim in ascending scanned index.
	PolicyFirst Policy = "first"
	// PolicyNearest keeps the closest claim; ties keep the first.
	PolicyNearest Policy = "nearest"
)

// ParsePolicy accepts "first", "nearest" or "" (PolicyFirst).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyFirst:
		return PolicyFirst, nil
	case PolicyNearest:
		return PolicyNearest, nil
	}
	return "", fmt.Errorf("unknown association policy %q", s)
}

// Association links one scanned slot to its nearest ground-truth slot.
type Association struct {
	GroundTruthID int               `json:"gt_id"`
	ScannedIndex  int               `json:"scanned_index"`
	ScannedCenter orb.Point         `json:"scanned_center"`
	Distance      float64           `json:"distance"`
	Timestamp     slots.Timestamp   `json:"timestamp_us"`
	Scanned       slots.ScannedSlot `json:"-"`
}

// Conflict records an association discarded in favour of another claim on
// the same ground-truth id.
type Conflict struct {
	Kept    Association `json:"kept"`
	Dropped Association `json:"dropped"`
}

// Result is the one-to-one mapping for a single timestamp.
type Result struct {
	Timestamp slots.Timestamp
	// ByGroundTruth holds exactly one association per ground-truth id.
	ByGroundTruth map[int]Association
	// Order lists ground-truth ids in the order they were first claimed.
	Order     []int
	Conflicts []Conflict
}

// Get returns the retained association for id.
func (r Result) Get(id int) (Association, bool) {
	a, ok := r.ByGroundTruth[id]
	return a, ok
}

// Associations returns the retained associations in claim order.
func (r Result) Associations() []Association {
	out := make([]Association, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.ByGroundTruth[id])
	}
	return out
}

// Associate pairs every detected scanned slot with its nearest
// ground-truth slot at ts and resolves claims under policy.
//
// Scanned slots without a detection are ignored. A slot that cannot be
// associated (empty index) is skipped and its error joined into the
// returned error; the Result still holds every association that did
// succeed.
func Associate(ts slots.Timestamp, gt []slots.GroundTruthSlot, scanned []slots.ScannedSlot, policy Policy) (Result, error) {
	return AssociateIndex(ts, NewIndex(gt), scanned, policy)
}

// AssociateIndex is Associate against a prebuilt index.
func AssociateIndex(ts slots.Timestamp, ix *Index, scanned []slots.ScannedSlot, policy Policy) (Result, error) {
	ordered := make([]slots.ScannedSlot, 0, len(scanned))
	for _, s := range scanned {
		if s.Detected() {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	res := Result{
		Timestamp:     ts,
		ByGroundTruth: make(map[int]Association),
	}
	var errs []error
	for _, s := range ordered {
		c := s.Center()
		id, dist, err := ix.Nearest(c)
		if err != nil {
			opsf("ts=%d scanned slot %d skipped: %v", ts, s.Index, err)
			errs = append(errs, fmt.Errorf("scanned slot %d at ts=%d: %w", s.Index, ts, err))
			continue
		}
		a := Association{
			GroundTruthID: id,
			ScannedIndex:  s.Index,
			ScannedCenter: c,
			Distance:      dist,
			Timestamp:     ts,
			Scanned:       s,
		}
		tracef("ts=%d scanned slot %d -> gt %d (%.3f m)", ts, s.Index, id, dist)
		res.claim(a, policy)
	}
	return res, errors.Join(errs...)
}

func (r *Result) claim(a Association, policy Policy) {
	prev, taken := r.ByGroundTruth[a.GroundTruthID]
	if !taken {
		r.ByGroundTruth[a.GroundTruthID] = a
		r.Order = append(r.Order, a.GroundTruthID)
		return
	}

	kept, dropped := prev, a
	if policy == PolicyNearest && a.Distance < prev.Distance-distanceTie {
		kept, dropped = a, prev
	}
	r.ByGroundTruth[a.GroundTruthID] = kept
	r.Conflicts = append(r.Conflicts, Conflict{Kept: kept, Dropped: dropped})
	diagf("ts=%d gt %d: kept scanned slot %d, dropped scanned slot %d",
		r.Timestamp, a.GroundTruthID, kept.ScannedIndex, dropped.ScannedIndex)
}
