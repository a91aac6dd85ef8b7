package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/parking/classify"
	"github.com/banshee-data/parking.report/internal/parking/evaluation"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/banshee-data/parking.report/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(name string) *evaluation.Result {
	gt1 := testutil.PerpendicularBay(2, 10)
	gt2 := testutil.PerpendicularBay(2, 13)
	gt3 := testutil.PerpendicularBay(2, 20)
	evals := []evaluation.Evaluation{
		{
			Result: classify.Result{
				Key:          classify.Key{GroundTruthID: 1, Timestamp: 800000},
				Label:        classify.TruePositive,
				Triggered:    true,
				ScannedIndex: 0,
				OverlapPct:   100,
			},
			GroundTruthPolygon: gt1,
			ScannedPolygon:     gt1,
		},
		{
			Result: classify.Result{
				Key:          classify.Key{GroundTruthID: 2, Timestamp: 1100000},
				Label:        classify.FalsePositive,
				Triggered:    true,
				ScannedIndex: 1,
				OverlapPct:   40,
			},
			GroundTruthPolygon: gt2,
			ScannedPolygon:     testutil.Translate(gt2, 3, 0),
		},
		{
			Result: classify.Result{
				Key:          classify.Key{GroundTruthID: 3, Timestamp: 1800000},
				Label:        classify.FalseNegative,
				Triggered:    true,
				ScannedIndex: -1,
			},
			GroundTruthPolygon: gt3,
		},
	}
	counts := rates.Counts{TP: 1, FP: 1, FN: 1}
	return &evaluation.Result{
		Recording:   name,
		Frames:      251,
		Evaluations: evals,
		Counts:      counts,
		Summary:     rates.Summarize(counts, rates.DefaultThresholds()),
	}
}

func sampleBatch() *evaluation.BatchResult {
	a, b := sampleResult("drive_a"), sampleResult("drive_b")
	total := a.Counts.Add(b.Counts)
	return &evaluation.BatchResult{
		RunID:       "5f0c1f8e-2b1c-4d7a-9d5e-0c9b8f7a6e5d",
		Version:     "dev",
		GeneratedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Outcomes: []evaluation.Outcome{
			{Recording: "drive_a", Path: "/data/drive_a.csv", Result: a},
			{Recording: "drive_c", Path: "/data/drive_c.csv", Error: "annotation file not found"},
			{Recording: "drive_b", Path: "/data/drive_b.csv", Result: b},
		},
		Failed:  1,
		Counts:  total,
		Summary: rates.Summarize(total, rates.DefaultThresholds()),
	}
}

func newMemWriter() (*Writer, *fsutil.MemoryFileSystem) {
	fsys := fsutil.NewMemoryFileSystem()
	return &Writer{FS: fsys, Dir: "/out"}, fsys
}

func TestWriteRecording(t *testing.T) {
	t.Parallel()
	w, fsys := newMemWriter()

	path, err := w.WriteRecording(sampleResult("drive_a"))
	require.NoError(t, err)
	assert.Equal(t, "/out/drive_a.report.json", path)

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)

	var got struct {
		Recording   string `json:"recording"`
		Evaluations []struct {
			GroundTruthID int          `json:"gt_id"`
			Label         string       `json:"label"`
			GTPolygon     [][2]float64 `json:"gt_polygon"`
			Scanned       [][2]float64 `json:"scanned_polygon"`
		} `json:"evaluations"`
		Counts  rates.Counts `json:"counts"`
		Summary struct {
			Missed int     `json:"missed"`
			FNR    float64 `json:"fnr"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "drive_a", got.Recording)
	assert.Equal(t, rates.Counts{TP: 1, FP: 1, FN: 1}, got.Counts)
	assert.Equal(t, 2, got.Summary.Missed, "the FP id is also missed")
	assert.InDelta(t, 200.0/3, got.Summary.FNR, 1e-9)
	require.Len(t, got.Evaluations, 3)
	assert.Equal(t, "TP", got.Evaluations[0].Label)
	assert.Equal(t, [][2]float64{{2, 10}, {7, 10}, {7, 12.5}, {2, 12.5}}, got.Evaluations[0].GTPolygon)
	assert.Empty(t, got.Evaluations[2].Scanned)

	_, err = w.WriteRecording(nil)
	assert.Error(t, err)
}

func TestWriteBatch(t *testing.T) {
	t.Parallel()
	w, fsys := newMemWriter()

	path, err := w.WriteBatch(sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, "/out/batch.json", path)

	files, err := fsys.Glob("/out/*.json")
	require.NoError(t, err)
	want := []string{"/out/batch.json", "/out/drive_a.report.json", "/out/drive_b.report.json"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("report files mismatch (-want +got):\n%s", diff)
	}

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		RunID    string `json:"run_id"`
		Failed   int    `json:"failed"`
		Outcomes []struct {
			Recording string `json:"recording"`
			Error     string `json:"error"`
		} `json:"recordings"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleBatch().RunID, got.RunID)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Outcomes, 3)
	assert.Equal(t, "annotation file not found", got.Outcomes[1].Error)
}

func TestOverlay(t *testing.T) {
	t.Parallel()
	res := sampleResult("drive_a")

	all := []string{"ground truth", "scanned", "intersection"}
	tests := []struct {
		name   string
		ev     evaluation.Evaluation
		layers []string
	}{
		{"true positive", res.Evaluations[0], all},
		{"false positive", res.Evaluations[1], all},
		{"false negative", res.Evaluations[2], all[:1]},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := Overlay(tt.ev)
			require.NoError(t, err)
			assert.Contains(t, p.Title.Text, string(tt.ev.Label))
			assert.Equal(t, tt.layers, layerNames(overlayLayers(tt.ev)))
			assert.InDelta(t, p.X.Max-p.X.Min, p.Y.Max-p.Y.Min, 1e-9, "axes share one scale")
		})
	}

	t.Run("disjoint scan has no intersection", func(t *testing.T) {
		t.Parallel()
		ev := res.Evaluations[1]
		ev.ScannedPolygon = testutil.Translate(ev.GroundTruthPolygon, 20, 0)
		assert.Equal(t, all[:2], layerNames(overlayLayers(ev)))
	})

	t.Run("nothing to draw", func(t *testing.T) {
		t.Parallel()
		_, err := Overlay(evaluation.Evaluation{Result: classify.Result{Key: classify.Key{GroundTruthID: 9}}})
		assert.Error(t, err)
	})
}

func layerNames(ls []layer) []string {
	var out []string
	for _, l := range ls {
		out = append(out, l.name)
	}
	return out
}

func TestWriteOverlays(t *testing.T) {
	t.Parallel()
	w, fsys := newMemWriter()
	res := sampleResult("drive_a")

	n, err := w.WriteOverlays(res)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	path := "/out/drive_a/" + OverlayFile(res.Evaluations[0])
	assert.Equal(t, "/out/drive_a/gt_1_ts_800000.png", path)
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "not a PNG")
}

func TestRateChart(t *testing.T) {
	t.Parallel()
	w, fsys := newMemWriter()

	path, err := w.WriteRateChart(sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, "/out/rates.html", path)

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	for _, want := range []string{"drive_a", "drive_b", "TPR", "FNR", "Classified ids"} {
		assert.True(t, strings.Contains(html, want), "chart missing %q", want)
	}
	assert.NotContains(t, html, "drive_c", "failed recordings have no bars")
}

func TestChartRows(t *testing.T) {
	t.Parallel()
	b := sampleBatch()
	rows := chartRows(b)
	require.Len(t, rows, 3)
	assert.Equal(t, "drive_a", rows[0].name)
	assert.Equal(t, "drive_b", rows[1].name)
	assert.Equal(t, overallLabel, rows[2].name)
	assert.Equal(t, rates.Counts{TP: 2, FP: 2, FN: 2}, rows[2].summary.Counts)
}

func TestCountColumns(t *testing.T) {
	t.Parallel()
	tp, fp, fn := countColumns(chartRows(sampleBatch()))
	require.Len(t, fn, 3)
	for i := range fn {
		assert.Equal(t, 1, tp[i].Value)
		assert.Equal(t, 1, fp[i].Value)
	}
	assert.Equal(t, 2, fn[0].Value, "FN bar shows unmatched plus rejected ids")
	assert.Equal(t, 4, fn[2].Value)
}

func TestSetLogWriters(t *testing.T) {
	var ops bytes.Buffer
	SetLogWriters(&ops, nil, nil)
	defer SetLogWriters(nil, nil, nil)

	w, _ := newMemWriter()
	_, err := w.WriteRecording(sampleResult("drive_a"))
	require.NoError(t, err)
	assert.Contains(t, ops.String(), "[report] ")
	assert.Contains(t, ops.String(), "wrote /out/drive_a.report.json")
}

func TestRound1(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 33.3, round1(100.0/3))
	assert.Equal(t, 66.7, round1(200.0/3))
	assert.Equal(t, 0.0, round1(0))
}

func TestWriter_SanitizesRecordingNames(t *testing.T) {
	t.Parallel()
	w, fsys := newMemWriter()

	res := sampleResult("../../etc/drive a")
	path, err := w.WriteRecording(res)
	require.NoError(t, err)
	assert.Equal(t, "/out/etc_drive_a.report.json", path)

	n, err := w.WriteOverlays(res)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, fsys.Exists("/out/etc_drive_a/gt_2_ts_1100000.png"))
}
