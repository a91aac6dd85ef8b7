// Package rates turns classification label counts into KPI percentages
// and pass/fail verdicts.
package rates

import "fmt"

// Counts is the number of evaluated ground-truth ids per label. FN holds
// only ids that were never matched; see Missed for the rate figure.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{TP: c.TP + o.TP, FP: c.FP + o.FP, FN: c.FN + o.FN}
}

// Total is the number of evaluated ground-truth ids.
func (c Counts) Total() int {
	return c.TP + c.FP + c.FN
}

// Missed is the false-negative count used by the rates: ids that were
// never matched plus ids whose only association was rejected.
func (c Counts) Missed() int {
	return c.FN + c.FP
}

// Thresholds bound the three rates, in percent.
type Thresholds struct {
	TPR float64 `json:"tpr"` // TPR must exceed this
	FPR float64 `json:"fpr"` // FPR must stay below this
	FNR float64 `json:"fnr"` // FNR must stay below this
}

// DefaultThresholds returns the thresholds used when no config overrides
// them.
func DefaultThresholds() Thresholds {
	return Thresholds{TPR: 80, FPR: 10, FNR: 20}
}

// Summary is the derived KPI view of a set of counts.
type Summary struct {
	Counts     Counts     `json:"counts"`
	Thresholds Thresholds `json:"thresholds"`

	// Missed is the false-negative total behind TPR and FNR.
	Missed int `json:"missed"`

	TPR float64 `json:"tpr"`
	FPR float64 `json:"fpr"`
	FNR float64 `json:"fnr"`

	TPRPassed bool `json:"tpr_passed"`
	FPRPassed bool `json:"fpr_passed"`
	FNRPassed bool `json:"fnr_passed"`
}

// Passed reports whether all three rates meet their thresholds.
func (s Summary) Passed() bool {
	return s.TPRPassed && s.FPRPassed && s.FNRPassed
}

func (s Summary) String() string {
	return fmt.Sprintf("TP=%d FP=%d FN=%d TPR=%.1f%% FPR=%.1f%% FNR=%.1f%% passed=%t",
		s.Counts.TP, s.Counts.FP, s.Missed, s.TPR, s.FPR, s.FNR, s.Passed())
}

// Summarize computes
//
//	TPR = TP / (TP + FN) × 100
//	FPR = FP / (TP + FP) × 100
//	FNR = FN / (TP + FN) × 100
//
// with FN taken from Counts.Missed and stored in Summary.Missed. A zero
// denominator yields 0 %.
func Summarize(c Counts, t Thresholds) Summary {
	fn := c.Missed()
	s := Summary{
		Counts:     c,
		Thresholds: t,
		Missed:     fn,
		TPR:        Percent(c.TP, c.TP+fn),
		FPR:        Percent(c.FP, c.TP+c.FP),
		FNR:        Percent(fn, c.TP+fn),
	}
	s.TPRPassed = s.TPR > t.TPR
	s.FPRPassed = s.FPR < t.FPR
	s.FNRPassed = s.FNR < t.FNR
	return s
}

// Percent is num/den × 100, or 0 when den is zero.
func Percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}
