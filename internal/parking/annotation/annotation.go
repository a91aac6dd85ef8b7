// Package annotation loads ground-truth parking boxes.
//
// An annotation file is a JSON object keyed by phase name. Each phase is a
// list of snapshots:
//
//	{"ApplicationStarted": [
//	  {"timestamp": 1200000, "parkingBoxes": [
//	    {"objectId": 3, "type": "parallel", "slotCoordinates": [[x, y], ...]}
//	  ]}
//	]}
//
// The ground truth in force at time t is the latest snapshot at or before
// t, or the earliest snapshot when t precedes them all.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/paulmach/orb"
)

var (
	// ErrAnnotationNotFound is returned when no annotation file exists for
	// a recording. It is fatal for that recording.
	ErrAnnotationNotFound = errors.New("annotation not found")
	// ErrPhaseNotFound is returned for a phase missing from the file.
	ErrPhaseNotFound = errors.New("annotation phase not found")
	// ErrMalformedAnnotation is returned for files that cannot be parsed.
	ErrMalformedAnnotation = errors.New("malformed annotation")
)

type fileBox struct {
	ObjectID        int         `json:"objectId"`
	Type            string      `json:"type"`
	SlotCoordinates [][]float64 `json:"slotCoordinates"`
}

type fileSnapshot struct {
	Timestamp    int64     `json:"timestamp"`
	ParkingBoxes []fileBox `json:"parkingBoxes"`
}

// Snapshot is the ground truth valid from Timestamp onwards.
type Snapshot struct {
	Timestamp slots.Timestamp
	Slots     []slots.GroundTruthSlot
}

// Slot returns the slot with id.
func (s Snapshot) Slot(id int) (slots.GroundTruthSlot, bool) {
	for _, g := range s.Slots {
		if g.ID == id {
			return g, true
		}
	}
	return slots.GroundTruthSlot{}, false
}

// Phase is one named, time-ordered list of snapshots.
type Phase struct {
	Name      string
	Snapshots []Snapshot
}

// At returns the snapshot in force at t. An empty phase yields an empty
// snapshot.
func (p *Phase) At(t slots.Timestamp) Snapshot {
	if len(p.Snapshots) == 0 {
		return Snapshot{}
	}
	i := sort.Search(len(p.Snapshots), func(i int) bool { return p.Snapshots[i].Timestamp > t })
	if i == 0 {
		return p.Snapshots[0]
	}
	return p.Snapshots[i-1]
}

// IDs lists every ground-truth id in the phase in order of first
// appearance.
func (p *Phase) IDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, s := range p.Snapshots {
		for _, g := range s.Slots {
			if !seen[g.ID] {
				seen[g.ID] = true
				ids = append(ids, g.ID)
			}
		}
	}
	return ids
}

// Latest returns the most recent definition of every ground-truth id in
// the phase, in IDs order.
func (p *Phase) Latest() []slots.GroundTruthSlot {
	byID := make(map[int]slots.GroundTruthSlot)
	for _, s := range p.Snapshots {
		for _, g := range s.Slots {
			byID[g.ID] = g
		}
	}
	ids := p.IDs()
	out := make([]slots.GroundTruthSlot, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

// Annotation is a parsed annotation file.
type Annotation struct {
	Path   string
	Phases map[string]*Phase
}

// Phase returns the named phase.
func (a *Annotation) Phase(name string) (*Phase, error) {
	p, ok := a.Phases[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPhaseNotFound, name)
	}
	return p, nil
}

// Parse decodes an annotation file.
func Parse(data []byte) (*Annotation, error) {
	var raw map[string][]fileSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnnotation, err)
	}

	a := &Annotation{Phases: make(map[string]*Phase, len(raw))}
	for name, snaps := range raw {
		p := &Phase{Name: name}
		for _, rs := range snaps {
			snap := Snapshot{Timestamp: slots.Timestamp(rs.Timestamp)}
			for _, b := range rs.ParkingBoxes {
				poly := make(geometry.Polygon, 0, len(b.SlotCoordinates))
				for k, xy := range b.SlotCoordinates {
					if len(xy) != 2 {
						return nil, fmt.Errorf("%w: phase %q object %d vertex %d has %d coordinates",
							ErrMalformedAnnotation, name, b.ObjectID, k, len(xy))
					}
					poly = append(poly, orb.Point{xy[0], xy[1]})
				}
				snap.Slots = append(snap.Slots, slots.GroundTruthSlot{
					ID:      b.ObjectID,
					Type:    slots.ParseSlotType(b.Type),
					Polygon: poly,
				})
			}
			p.Snapshots = append(p.Snapshots, snap)
		}
		sort.SliceStable(p.Snapshots, func(i, j int) bool {
			return p.Snapshots[i].Timestamp < p.Snapshots[j].Timestamp
		})
		a.Phases[name] = p
	}
	return a, nil
}

// Load reads and parses the annotation at path.
func Load(fsys fsutil.FileSystem, path string) (*Annotation, error) {
	if !fsys.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrAnnotationNotFound, path)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation: %w", err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.Path = path
	return a, nil
}

// ResolvePath finds the annotation for a recording: <base>.json beside the
// recording first, then <base>.json in annotationDir.
func ResolvePath(fsys fsutil.FileSystem, recordingPath, annotationDir string) (string, error) {
	base := filepath.Base(recordingPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"

	candidates := []string{filepath.Join(filepath.Dir(recordingPath), name)}
	if annotationDir != "" {
		candidates = append(candidates, filepath.Join(annotationDir, name))
	}
	for _, c := range candidates {
		if c == filepath.Clean(recordingPath) {
			continue
		}
		if fsys.Exists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w for %s (tried %s)", ErrAnnotationNotFound, recordingPath, strings.Join(candidates, ", "))
}
