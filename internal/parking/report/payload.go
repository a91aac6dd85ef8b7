package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/parking.report/internal/fsutil"
	"github.com/banshee-data/parking.report/internal/parking/evaluation"
	"github.com/banshee-data/parking.report/internal/security"
)

// BatchFile is the name of the batch payload within the output directory.
const BatchFile = "batch.json"

// RecordingFile returns the payload file name for a recording.
func RecordingFile(name string) string {
	return security.SanitizeFilename(name) + ".report.json"
}

// Writer writes report artefacts below Dir.
type Writer struct {
	FS  fsutil.FileSystem
	Dir string
}

// NewWriter returns a Writer on the OS filesystem.
func NewWriter(dir string) *Writer {
	return &Writer{FS: fsutil.OSFileSystem{}, Dir: dir}
}

// WriteRecording writes one recording's payload and returns its path.
func (w *Writer) WriteRecording(res *evaluation.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nil result")
	}
	return w.writeJSON(RecordingFile(res.Recording), res)
}

// WriteBatch writes the batch payload and a payload for every successful
// recording in it. It returns the batch payload path.
func (w *Writer) WriteBatch(b *evaluation.BatchResult) (string, error) {
	for _, o := range b.Outcomes {
		if o.Result == nil {
			continue
		}
		if _, err := w.WriteRecording(o.Result); err != nil {
			return "", err
		}
	}
	return w.writeJSON(BatchFile, b)
}

func (w *Writer) writeJSON(name string, v interface{}) (string, error) {
	if err := w.FS.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path, err := w.path(name)
	if err != nil {
		return "", err
	}
	if err := w.FS.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	opsf("wrote %s", path)
	return path, nil
}

// path joins elem below Dir and rejects anything that resolves outside it.
func (w *Writer) path(elem ...string) (string, error) {
	p := filepath.Join(append([]string{w.Dir}, elem...)...)
	if err := security.WithinDirectory(p, w.Dir); err != nil {
		return "", err
	}
	return p, nil
}
