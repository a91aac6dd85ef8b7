package evaluation

import (
	"errors"
	"fmt"

	"github.com/banshee-data/parking.report/internal/parking/annotation"
	"github.com/banshee-data/parking.report/internal/parking/association"
	"github.com/banshee-data/parking.report/internal/parking/classify"
	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/banshee-data/parking.report/internal/parking/recording"
	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/banshee-data/parking.report/internal/parking/trigger"
)

// Evaluation is a classification result together with the polygons it
// was computed from.
type Evaluation struct {
	classify.Result
	GroundTruthPolygon geometry.Polygon `json:"gt_polygon"`
	ScannedPolygon     geometry.Polygon `json:"scanned_polygon,omitempty"`
}

// Result is the outcome of evaluating one recording.
type Result struct {
	Recording   string                 `json:"recording"`
	Annotation  string                 `json:"annotation,omitempty"`
	Frames      int                    `json:"frames"`
	Start       slots.Timestamp        `json:"start_ts"`
	End         slots.Timestamp        `json:"end_ts"`
	Triggers    []trigger.Trigger      `json:"triggers"`
	Evaluations []Evaluation           `json:"evaluations"`
	Skipped     []classify.Skip        `json:"skipped,omitempty"`
	Conflicts   []association.Conflict `json:"conflicts,omitempty"`
	Counts      rates.Counts           `json:"counts"`
	Summary     rates.Summary          `json:"summary"`
}

// EvaluateRecording runs the pipeline over rec against the ground truth in
// phase.
//
// Frames are visited in timestamp order. At each frame the trigger
// candidates are either the scanned slots associated to their nearest
// ground-truth slot or the ground-truth slots themselves, depending on
// p.TriggerSource. Each ground-truth id is then classified once, at its
// trigger timestamp, against the association made at that timestamp.
// Geometry failures skip the id and are listed in Result.Skipped.
func EvaluateRecording(rec *recording.Recording, phase *annotation.Phase, p Params) (*Result, error) {
	if rec == nil {
		return nil, errors.New("nil recording")
	}
	if phase == nil {
		return nil, errors.New("nil annotation phase")
	}

	e := &evaluator{
		params:  p,
		phase:   phase,
		indexes: make(map[slots.Timestamp]*association.Index),
		assoc:   make(map[slots.Timestamp]association.Result),
	}

	det := trigger.NewDetector(p.Trigger)
	for _, fr := range rec.Frames {
		det.Observe(trigger.Frame{
			Timestamp:  fr.Timestamp,
			Pose:       fr.Pose,
			Candidates: e.candidates(fr),
		})
	}
	triggers := det.Triggers()
	start, end := rec.Span()
	diagf("%s: %d frames over ts=%d..%d, %d triggers", rec.Name, len(rec.Frames), start, end, len(triggers))

	frames := make(map[slots.Timestamp]recording.Frame, len(triggers))
	for _, tr := range triggers {
		if _, ok := frames[tr.Timestamp]; !ok {
			fr, _ := rec.Frame(tr.Timestamp)
			frames[tr.Timestamp] = fr
		}
	}

	res := &Result{
		Recording: rec.Name,
		Frames:    len(rec.Frames),
		Start:     start,
		End:       end,
		Triggers:  triggers,
	}
	cls := classify.NewClassifier(p.Classify)
	conflictsSeen := make(map[slots.Timestamp]bool)
	evaluated := make(map[int]bool)

	for _, tr := range triggers {
		evaluated[tr.ID] = true
		gt, ok := phase.At(tr.Timestamp).Slot(tr.ID)
		if !ok {
			opsf("%s: gt %d triggered at ts=%d but is not annotated there", rec.Name, tr.ID, tr.Timestamp)
			continue
		}

		ar := e.associate(tr.Timestamp, frames[tr.Timestamp])
		if !conflictsSeen[tr.Timestamp] {
			conflictsSeen[tr.Timestamp] = true
			res.Conflicts = append(res.Conflicts, ar.Conflicts...)
		}

		ev, ok, err := scoreTrigger(cls, gt, tr.Timestamp, ar)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Evaluations = append(res.Evaluations, ev)
		}
	}

	if p.IncludeUntriggered {
		for _, gt := range phase.Latest() {
			if evaluated[gt.ID] {
				continue
			}
			r, err := cls.MarkMissed(gt, 0, false)
			if err != nil {
				return nil, fmt.Errorf("untriggered gt %d: %w", gt.ID, err)
			}
			res.Evaluations = append(res.Evaluations, Evaluation{Result: r, GroundTruthPolygon: gt.Polygon})
		}
	}

	res.Skipped = cls.Skipped()
	res.Counts = cls.Counts()
	res.Summary = rates.Summarize(res.Counts, p.Rates)
	opsf("%s: %s", rec.Name, res.Summary)
	return res, nil
}

// scoreTrigger classifies gt against the association made at ts, or marks
// it missed when nothing claimed it. ok is false when a geometry failure
// skipped the id; cls records the skip.
func scoreTrigger(cls *classify.Classifier, gt slots.GroundTruthSlot, ts slots.Timestamp, ar association.Result) (Evaluation, bool, error) {
	ev := Evaluation{GroundTruthPolygon: gt.Polygon}
	a, ok := ar.Get(gt.ID)
	if !ok {
		r, err := cls.MarkMissed(gt, ts, true)
		if err != nil {
			return ev, false, fmt.Errorf("triggered gt %d: %w", gt.ID, err)
		}
		ev.Result = r
		return ev, true, nil
	}

	r, err := cls.Classify(gt, a)
	switch {
	case errors.Is(err, classify.ErrAlreadyClassified):
		return ev, false, fmt.Errorf("triggered gt %d: %w", gt.ID, err)
	case err != nil:
		return ev, false, nil
	}
	ev.Result = r
	ev.ScannedPolygon = a.Scanned.Polygon
	return ev, true, nil
}

// evaluator caches per-timestamp association work for one recording.
type evaluator struct {
	params  Params
	phase   *annotation.Phase
	indexes map[slots.Timestamp]*association.Index // keyed by snapshot timestamp
	assoc   map[slots.Timestamp]association.Result // keyed by frame timestamp
}

func (e *evaluator) index(snap annotation.Snapshot) *association.Index {
	ix, ok := e.indexes[snap.Timestamp]
	if !ok {
		ix = association.NewIndex(snap.Slots)
		e.indexes[snap.Timestamp] = ix
	}
	return ix
}

// associate returns the association result for fr, computing it once.
func (e *evaluator) associate(ts slots.Timestamp, fr recording.Frame) association.Result {
	if r, ok := e.assoc[ts]; ok {
		return r
	}
	r, err := association.AssociateIndex(ts, e.index(e.phase.At(ts)), fr.Detected(), e.params.Policy)
	if err != nil {
		diagf("ts=%d: %v", ts, err)
	}
	e.assoc[ts] = r
	return r
}

func (e *evaluator) candidates(fr recording.Frame) []trigger.Candidate {
	if e.params.TriggerSource == TriggerGroundTruth {
		snap := e.phase.At(fr.Timestamp)
		out := make([]trigger.Candidate, 0, len(snap.Slots))
		for _, g := range snap.Slots {
			out = append(out, trigger.Candidate{ID: g.ID, Polygon: g.Polygon})
		}
		return out
	}

	ar := e.associate(fr.Timestamp, fr)
	as := ar.Associations()
	out := make([]trigger.Candidate, 0, len(as))
	for _, a := range as {
		out = append(out, trigger.Candidate{ID: a.GroundTruthID, Polygon: a.Scanned.Polygon})
	}
	tracef("ts=%d: %d candidates", fr.Timestamp, len(out))
	return out
}
