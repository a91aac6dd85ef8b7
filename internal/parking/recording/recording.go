// Package recording loads recorded signal tables into timestamp-indexed
// frames of ego pose and scanned slots.
//
// The table is CSV with one row per timestamp:
//
//	timestamp_us,ego_x,ego_y,ego_yaw,
//	slot0_scenario,slot0_p0_x,slot0_p0_y,...,slot0_p3_x,slot0_p3_y,
//	...
//	slot7_scenario,...,slot7_p3_y
//
// Slot channels may be omitted entirely; a missing channel and an all-zero
// channel both mean "no detection". Rows are sorted by timestamp after
// loading, keeping file order for equal timestamps.
package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/parking/geometry"
	"github.com/banshee-data/parking.report/internal/parking/slots"
	"github.com/paulmach/orb"
)

// ErrMalformedRecording is returned for tables that cannot be parsed.
var ErrMalformedRecording = errors.New("malformed recording")

// Column names.
const (
	ColTimestamp = "timestamp_us"
	ColEgoX      = "ego_x"
	ColEgoY      = "ego_y"
	ColEgoYaw    = "ego_yaw"
)

// ScenarioColumn is the scenario-code column of slot channel i.
func ScenarioColumn(i int) string {
	return fmt.Sprintf("slot%d_scenario", i)
}

// VertexColumns are the x and y columns of vertex j of slot channel i.
func VertexColumns(i, j int) (string, string) {
	return fmt.Sprintf("slot%d_p%d_x", i, j), fmt.Sprintf("slot%d_p%d_y", i, j)
}

// Frame is one row of the table.
type Frame struct {
	Timestamp slots.Timestamp
	Pose      slots.Pose
	// Slots holds one entry per channel present in the table, in channel
	// order, detected or not.
	Slots []slots.ScannedSlot
}

// Detected returns the channels carrying a detection.
func (f Frame) Detected() []slots.ScannedSlot {
	var out []slots.ScannedSlot
	for _, s := range f.Slots {
		if s.Detected() {
			out = append(out, s)
		}
	}
	return out
}

// Recording is a loaded signal table.
type Recording struct {
	Name   string
	Path   string
	Frames []Frame
}

// Frame returns the first frame at ts.
func (r *Recording) Frame(ts slots.Timestamp) (Frame, bool) {
	i := sort.Search(len(r.Frames), func(i int) bool { return r.Frames[i].Timestamp >= ts })
	if i < len(r.Frames) && r.Frames[i].Timestamp == ts {
		return r.Frames[i], true
	}
	return Frame{}, false
}

// Span returns the first and last timestamps.
func (r *Recording) Span() (slots.Timestamp, slots.Timestamp) {
	if len(r.Frames) == 0 {
		return 0, 0
	}
	return r.Frames[0].Timestamp, r.Frames[len(r.Frames)-1].Timestamp
}

// Name derives a recording name from its path: the base name without
// extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads the recording at path through fsys.
func Load(fsys fsutil.FileSystem, path string) (*Recording, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	rec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Name = Name(path)
	rec.Path = path
	return rec, nil
}

type channel struct {
	index    int
	scenario int // column, or -1
	coords   [slots.VerticesPerSlot][2]int
}

type layout struct {
	ts, x, y, yaw int
	channels      []channel
}

// Parse reads a CSV table from r.
func Parse(r io.Reader) (*Recording, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty table", ErrMalformedRecording)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecording, err)
	}
	lay, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	rec := &Recording{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecording, err)
		}
		fr, err := lay.frame(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecording, line, err)
		}
		rec.Frames = append(rec.Frames, fr)
	}

	sort.SliceStable(rec.Frames, func(i, j int) bool {
		return rec.Frames[i].Timestamp < rec.Frames[j].Timestamp
	})
	return rec, nil
}

func parseHeader(header []string) (layout, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	need := func(name string) (int, error) {
		i, ok := cols[name]
		if !ok {
			return 0, fmt.Errorf("%w: missing column %q", ErrMalformedRecording, name)
		}
		return i, nil
	}

	var lay layout
	var err error
	if lay.ts, err = need(ColTimestamp); err != nil {
		return lay, err
	}
	if lay.x, err = need(ColEgoX); err != nil {
		return lay, err
	}
	if lay.y, err = need(ColEgoY); err != nil {
		return lay, err
	}
	if lay.yaw, err = need(ColEgoYaw); err != nil {
		return lay, err
	}

	for i := 0; i < slots.MaxScannedSlots; i++ {
		x0, _ := VertexColumns(i, 0)
		if _, ok := cols[x0]; !ok {
			continue
		}
		ch := channel{index: i, scenario: -1}
		if c, ok := cols[ScenarioColumn(i)]; ok {
			ch.scenario = c
		}
		for j := 0; j < slots.VerticesPerSlot; j++ {
			xn, yn := VertexColumns(i, j)
			if ch.coords[j][0], err = need(xn); err != nil {
				return lay, err
			}
			if ch.coords[j][1], err = need(yn); err != nil {
				return lay, err
			}
		}
		lay.channels = append(lay.channels, ch)
	}
	return lay, nil
}

func (lay layout) frame(row []string) (Frame, error) {
	ts, err := strconv.ParseInt(strings.TrimSpace(row[lay.ts]), 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %v", ColTimestamp, err)
	}
	fr := Frame{Timestamp: slots.Timestamp(ts)}
	if fr.Pose.X, err = number(row[lay.x]); err != nil {
		return Frame{}, fmt.Errorf("%s: %v", ColEgoX, err)
	}
	if fr.Pose.Y, err = number(row[lay.y]); err != nil {
		return Frame{}, fmt.Errorf("%s: %v", ColEgoY, err)
	}
	if fr.Pose.Yaw, err = number(row[lay.yaw]); err != nil {
		return Frame{}, fmt.Errorf("%s: %v", ColEgoYaw, err)
	}
	for _, v := range []float64{fr.Pose.X, fr.Pose.Y, fr.Pose.Yaw} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Frame{}, fmt.Errorf("non-finite pose %+v", fr.Pose)
		}
	}

	for _, ch := range lay.channels {
		s := slots.ScannedSlot{Index: ch.index, Timestamp: fr.Timestamp}
		if ch.scenario >= 0 {
			code, err := number(row[ch.scenario])
			if err != nil {
				return Frame{}, fmt.Errorf("%s: %v", ScenarioColumn(ch.index), err)
			}
			s.ScenarioCode = slots.ScenarioCode(int(code))
		}
		poly := make(geometry.Polygon, slots.VerticesPerSlot)
		for j, c := range ch.coords {
			x, err := number(row[c[0]])
			if err != nil {
				return Frame{}, fmt.Errorf("slot %d vertex %d x: %v", ch.index, j, err)
			}
			y, err := number(row[c[1]])
			if err != nil {
				return Frame{}, fmt.Errorf("slot %d vertex %d y: %v", ch.index, j, err)
			}
			poly[j] = orb.Point{x, y}
		}
		s.Polygon = poly
		fr.Slots = append(fr.Slots, s)
	}
	return fr, nil
}

// number parses a float cell; empty cells read as zero. NaN and Inf are
// accepted here and rejected by geometry validation or the pose check.
func number(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	return strconv.ParseFloat(cell, 64)
}

// Header returns the full column list for all slot channels.
func Header() []string {
	h := []string{ColTimestamp, ColEgoX, ColEgoY, ColEgoYaw}
	for i := 0; i < slots.MaxScannedSlots; i++ {
		h = append(h, ScenarioColumn(i))
		for j := 0; j < slots.VerticesPerSlot; j++ {
			x, y := VertexColumns(i, j)
			h = append(h, x, y)
		}
	}
	return h
}

// Encode writes frames as a full-width table. Channels missing from a
// frame are written as zeros.
func Encode(w io.Writer, frames []Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	for _, fr := range frames {
		row := []string{
			strconv.FormatInt(int64(fr.Timestamp), 10),
			f(fr.Pose.X), f(fr.Pose.Y), f(fr.Pose.Yaw),
		}
		byIndex := make(map[int]slots.ScannedSlot, len(fr.Slots))
		for _, s := range fr.Slots {
			byIndex[s.Index] = s
		}
		for i := 0; i < slots.MaxScannedSlots; i++ {
			s := byIndex[i]
			row = append(row, strconv.Itoa(int(s.ScenarioCode)))
			for j := 0; j < slots.VerticesPerSlot; j++ {
				var pt orb.Point
				if j < len(s.Polygon) {
					pt = s.Polygon[j]
				}
				row = append(row, f(pt[0]), f(pt[1]))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
