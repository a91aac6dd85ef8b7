package rates

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		num, den int
		want     float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 4, 0},
		{1, 4, 25},
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.num, tt.den), "%d/%d", tt.num, tt.den)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		counts Counts
		want   Summary
	}{
		{
			name:   "empty",
			counts: Counts{},
			want: Summary{
				Thresholds: DefaultThresholds(),
				FPRPassed:  true,
				FNRPassed:  true,
			},
		},
		{
			name:   "all true positives",
			counts: Counts{TP: 10},
			want: Summary{
				Counts:     Counts{TP: 10},
				Thresholds: DefaultThresholds(),
				TPR:        100,
				TPRPassed:  true,
				FPRPassed:  true,
				FNRPassed:  true,
			},
		},
		{
			name:   "rejected associations count as missed",
			counts: Counts{TP: 6, FP: 2, FN: 2},
			want: Summary{
				Counts:     Counts{TP: 6, FP: 2, FN: 2},
				Thresholds: DefaultThresholds(),
				Missed:     4,
				TPR:        60,
				FPR:        25,
				FNR:        40,
			},
		},
		{
			name:   "only misses",
			counts: Counts{FN: 3},
			want: Summary{
				Counts:     Counts{FN: 3},
				Thresholds: DefaultThresholds(),
				Missed:     3,
				FNR:        100,
				FPRPassed:  true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Summarize(tt.counts, DefaultThresholds())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarize_TPRConsistency(t *testing.T) {
	t.Parallel()
	for tp := 0; tp <= 6; tp++ {
		for fn := 0; fn <= 6; fn++ {
			s := Summarize(Counts{TP: tp, FN: fn}, DefaultThresholds())
			want := 0.0
			if tp+fn > 0 {
				want = float64(tp) / float64(tp+fn) * 100
			}
			assert.Equal(t, want, s.TPR, "tp=%d fn=%d", tp, fn)
			if tp+fn > 0 {
				assert.InDelta(t, 100, s.TPR+s.FNR, 1e-9)
			}
		}
	}
}

func TestSummary_Passed(t *testing.T) {
	t.Parallel()
	s := Summarize(Counts{TP: 19, FN: 1}, DefaultThresholds())
	assert.True(t, s.Passed())
	assert.Contains(t, s.String(), "TPR=95.0%")

	s = Summarize(Counts{TP: 19, FN: 1}, Thresholds{TPR: 95, FPR: 10, FNR: 20})
	assert.False(t, s.TPRPassed, "TPR must strictly exceed its threshold")
	assert.False(t, s.Passed())
}

func TestCounts_Add(t *testing.T) {
	t.Parallel()
	c := Counts{TP: 1, FP: 2, FN: 3}.Add(Counts{TP: 4, FP: 5, FN: 6})
	assert.Equal(t, Counts{TP: 5, FP: 7, FN: 9}, c)
	assert.Equal(t, 21, c.Total())
	assert.Equal(t, 16, c.Missed())
}

func TestSummary_MissedSerialized(t *testing.T) {
	t.Parallel()
	s := Summarize(Counts{TP: 1, FP: 1}, DefaultThresholds())
	assert.Equal(t, 1, s.Missed, "a rejected association is missed")
	assert.Equal(t, 50.0, s.FNR)
	assert.Contains(t, s.String(), "FN=1 ")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var got struct {
		Counts Counts  `json:"counts"`
		Missed int     `json:"missed"`
		FNR    float64 `json:"fnr"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 0, got.Counts.FN)
	assert.Equal(t, 1, got.Missed)
	assert.Equal(t, Percent(got.Missed, got.Counts.TP+got.Missed), got.FNR)
}
