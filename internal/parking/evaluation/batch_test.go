package evaluation

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/monitoring"
	"github.com/banshee-data/parking.report/internal/parking/annotation"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/banshee-data/parking.report/internal/parking/recording"
	"github.com/banshee-data/parking.report/internal/timeutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batchEpoch = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func encodedDrive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, recording.Encode(&buf, syntheticDrive().Frames))
	return buf.Bytes()
}

// newBatchFS lays out three recordings: drive_a with its annotation
// alongside, drive_b with its annotation in the shared directory, and
// drive_c with none.
func newBatchFS(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	csv := encodedDrive(t)
	require.NoError(t, fsys.WriteFile("/data/drive_a.csv", csv, 0o644))
	require.NoError(t, fsys.WriteFile("/data/drive_a.json", []byte(annotationJSON), 0o644))
	require.NoError(t, fsys.WriteFile("/data/drive_b.csv", csv, 0o644))
	require.NoError(t, fsys.WriteFile("/labels/drive_b.json", []byte(annotationJSON), 0o644))
	require.NoError(t, fsys.WriteFile("/data/drive_c.csv", csv, 0o644))
	return fsys
}

func newTestRunner(fsys fsutil.FileSystem) *Runner {
	r := NewRunner(DefaultParams(), "/labels")
	r.FS = fsys
	r.Clock = timeutil.NewMockClock(batchEpoch)
	return r
}

func TestDiscover(t *testing.T) {
	t.Parallel()
	fsys := newBatchFS(t)

	paths, err := Discover(fsys, "/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/drive_a.csv", "/data/drive_b.csv", "/data/drive_c.csv"}, paths)

	paths, err = Discover(fsys, "/nowhere")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRunner_EvaluateFile(t *testing.T) {
	t.Parallel()
	r := newTestRunner(newBatchFS(t))

	res, err := r.EvaluateFile("/data/drive_a.csv")
	require.NoError(t, err)
	assert.Equal(t, "drive_a", res.Recording)
	assert.Equal(t, "/data/drive_a.json", res.Annotation)
	assert.Equal(t, rates.Counts{TP: 1, FP: 1}, res.Counts)

	res, err = r.EvaluateFile("/data/drive_b.csv")
	require.NoError(t, err)
	assert.Equal(t, "/labels/drive_b.json", res.Annotation)

	_, err = r.EvaluateFile("/data/drive_c.csv")
	assert.True(t, errors.Is(err, annotation.ErrAnnotationNotFound), "got %v", err)
}

func TestRunner_EvaluateFileUnknownPhase(t *testing.T) {
	t.Parallel()
	r := newTestRunner(newBatchFS(t))
	r.Params.Phase = "Parked"

	_, err := r.EvaluateFile("/data/drive_a.csv")
	assert.True(t, errors.Is(err, annotation.ErrPhaseNotFound), "got %v", err)
}

func TestRunner_Run(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	fsys := newBatchFS(t)
	require.NoError(t, fsys.WriteFile("/data/drive_d.csv", []byte("not,a,recording\n1,2,3\n"), 0o644))
	r := newTestRunner(fsys)

	paths, err := Discover(fsys, "/data")
	require.NoError(t, err)
	b := r.Run(context.Background(), paths)

	_, err = uuid.Parse(b.RunID)
	assert.NoError(t, err)
	assert.Equal(t, batchEpoch, b.GeneratedAt)
	assert.Equal(t, time.Duration(0), b.Duration)
	assert.NotEmpty(t, b.Version)

	require.Len(t, b.Outcomes, 4)
	assert.Equal(t, 2, b.Failed)
	assert.Nil(t, b.Outcomes[0].Err())
	assert.Nil(t, b.Outcomes[1].Err())
	assert.True(t, errors.Is(b.Outcomes[2].Err(), annotation.ErrAnnotationNotFound))
	assert.Equal(t, "drive_c", b.Outcomes[2].Recording)
	assert.Nil(t, b.Outcomes[2].Result)
	assert.NotEmpty(t, b.Outcomes[3].Error)

	assert.Equal(t, rates.Counts{TP: 2, FP: 2}, b.Counts)
	assert.Equal(t, 50.0, b.Summary.TPR)
}

func TestRunner_RunCancelled(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	r := newTestRunner(newBatchFS(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := r.Run(ctx, []string{"/data/drive_a.csv"})
	assert.Empty(t, b.Outcomes)
	assert.Equal(t, rates.Counts{}, b.Counts)
}
