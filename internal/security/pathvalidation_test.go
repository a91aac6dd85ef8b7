package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithinDirectory(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		path    string
		dir     string
		wantErr bool
	}{
		{"direct child", "/out/batch.json", "/out", false},
		{"nested", "/out/drive_a/gt_1_ts_0.png", "/out", false},
		{"unclean dir", "/out/x.json", "/out/./", false},
		{"relative", "kpi-report/x.json", "kpi-report", false},
		{"parent", "/out/../etc/passwd", "/out", true},
		{"sibling prefix", "/outside/x.json", "/out", true},
		{"relative escape", "kpi-report/../../x.json", "kpi-report", true},
		{"dir itself", "/out", "/out", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := WithinDirectory(tt.path, tt.dir)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrPathEscapes), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"drive_a", "drive_a"},
		{"2025-03-14 lot 7", "2025-03-14_lot_7"},
		{"../../etc/passwd", "etc_passwd"},
		{"a//b", "a_b"},
		{"..", "unknown"},
		{"", "unknown"},
		{"__x__", "x"},
		{"Stellplatz-Ä1", "Stellplatz-_1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "SanitizeFilename(%q)", tt.in)
	}
}
