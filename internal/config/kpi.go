// Package config loads the KPI evaluation configuration.
//
// Every field is optional: a nil pointer means "use the default", so a
// partial JSON file only overrides what it names. The Get* accessors are
// the only place defaults live besides DefaultConfigPath.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/parking.report/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical KPI defaults file.
const DefaultConfigPath = "config/kpi.defaults.json"

// maxFileSize bounds config files read from disk.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Trigger sources.
const (
	TriggerSourceScanned     = "scanned"
	TriggerSourceGroundTruth = "ground_truth"
)

// KPIConfig is the root configuration for a KPI evaluation run.
type KPIConfig struct {
	// Acceptance thresholds
	ThresholdOverlap                 *float64 `json:"threshold_overlap,omitempty"`     // percent
	ThresholdOrientation             *float64 `json:"threshold_orientation,omitempty"` // degrees
	ThresholdCenterDistanceShortSide *float64 `json:"threshold_center_distance_short_side,omitempty"`
	ThresholdCenterDistanceLongSide  *float64 `json:"threshold_center_distance_long_side,omitempty"`

	// Rate thresholds (percent)
	ThresholdTPR *float64 `json:"threshold_tpr,omitempty"`
	ThresholdFPR *float64 `json:"threshold_fpr,omitempty"`
	ThresholdFNR *float64 `json:"threshold_fnr,omitempty"`

	// Ego vehicle
	VehicleWidth             *float64 `json:"vehicle_width,omitempty"`
	VehicleLength            *float64 `json:"vehicle_length,omitempty"`
	MirrorOffsetLongitudinal *float64 `json:"mirror_offset_longitudinal,omitempty"`
	MirrorOffsetLateral      *float64 `json:"mirror_offset_lateral,omitempty"`
	MirrorClearance          *float64 `json:"mirror_clearance,omitempty"`

	// Geometry tolerances
	CollinearityTolerance  *float64 `json:"collinearity_tolerance,omitempty"`
	HorizontalToleranceDeg *float64 `json:"horizontal_tolerance_deg,omitempty"`
	FitStepDeg             *float64 `json:"fit_step_deg,omitempty"`

	// Evaluation behaviour
	TriggerSource      *string `json:"trigger_source,omitempty"`     // "scanned" or "ground_truth"
	AssociationPolicy  *string `json:"association_policy,omitempty"` // "first" or "nearest"
	AnnotationPhase    *string `json:"annotation_phase,omitempty"`
	IncludeUntriggered *bool   `json:"include_untriggered,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyKPIConfig returns a KPIConfig with all fields set to nil.
func EmptyKPIConfig() *KPIConfig {
	return &KPIConfig{}
}

// DefaultKPIConfig returns a KPIConfig with every field set to its
// default, matching DefaultConfigPath.
func DefaultKPIConfig() *KPIConfig {
	c := EmptyKPIConfig()
	return &KPIConfig{
		ThresholdOverlap:                 ptrFloat64(c.GetThresholdOverlap()),
		ThresholdOrientation:             ptrFloat64(c.GetThresholdOrientation()),
		ThresholdCenterDistanceShortSide: ptrFloat64(c.GetThresholdCenterDistanceShortSide()),
		ThresholdCenterDistanceLongSide:  ptrFloat64(c.GetThresholdCenterDistanceLongSide()),
		ThresholdTPR:                     ptrFloat64(c.GetThresholdTPR()),
		ThresholdFPR:                     ptrFloat64(c.GetThresholdFPR()),
		ThresholdFNR:                     ptrFloat64(c.GetThresholdFNR()),
		VehicleWidth:                     ptrFloat64(c.GetVehicleWidth()),
		VehicleLength:                    ptrFloat64(c.GetVehicleLength()),
		MirrorOffsetLongitudinal:         ptrFloat64(c.GetMirrorOffsetLongitudinal()),
		MirrorOffsetLateral:              ptrFloat64(c.GetMirrorOffsetLateral()),
		MirrorClearance:                  ptrFloat64(c.GetMirrorClearance()),
		CollinearityTolerance:            ptrFloat64(c.GetCollinearityTolerance()),
		HorizontalToleranceDeg:           ptrFloat64(c.GetHorizontalToleranceDeg()),
		FitStepDeg:                       ptrFloat64(c.GetFitStepDeg()),
		TriggerSource:                    ptrString(c.GetTriggerSource()),
		AssociationPolicy:                ptrString(c.GetAssociationPolicy()),
		AnnotationPhase:                  ptrString(c.GetAnnotationPhase()),
		IncludeUntriggered:               ptrBool(c.GetIncludeUntriggered()),
	}
}

// LoadKPIConfig loads a KPIConfig from a JSON file on disk.
func LoadKPIConfig(path string) (*KPIConfig, error) {
	return LoadKPIConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadKPIConfigFS loads a KPIConfig through fsys.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to their defaults, so
// partial configs are safe.
func LoadKPIConfigFS(fsys fsutil.FileSystem, path string) (*KPIConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyKPIConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical KPI defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *KPIConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/parking/evaluation/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadKPIConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *KPIConfig) Validate() error {
	percents := []struct {
		name string
		v    *float64
	}{
		{"threshold_overlap", c.ThresholdOverlap},
		{"threshold_tpr", c.ThresholdTPR},
		{"threshold_fpr", c.ThresholdFPR},
		{"threshold_fnr", c.ThresholdFNR},
	}
	for _, p := range percents {
		if p.v != nil && (*p.v < 0 || *p.v > 100) {
			return fmt.Errorf("%s must be between 0 and 100, got %f", p.name, *p.v)
		}
	}

	positives := []struct {
		name string
		v    *float64
	}{
		{"threshold_orientation", c.ThresholdOrientation},
		{"threshold_center_distance_short_side", c.ThresholdCenterDistanceShortSide},
		{"threshold_center_distance_long_side", c.ThresholdCenterDistanceLongSide},
		{"vehicle_width", c.VehicleWidth},
		{"vehicle_length", c.VehicleLength},
		{"collinearity_tolerance", c.CollinearityTolerance},
	}
	for _, p := range positives {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	if c.MirrorClearance != nil && *c.MirrorClearance < 0 {
		return fmt.Errorf("mirror_clearance must be non-negative, got %f", *c.MirrorClearance)
	}
	if c.MirrorClearance != nil && *c.MirrorClearance > c.GetMirrorOffsetLateral() {
		return fmt.Errorf("mirror_clearance %f exceeds mirror_offset_lateral %f", *c.MirrorClearance, c.GetMirrorOffsetLateral())
	}
	if c.HorizontalToleranceDeg != nil && (*c.HorizontalToleranceDeg <= 0 || *c.HorizontalToleranceDeg >= 45) {
		return fmt.Errorf("horizontal_tolerance_deg must be in (0, 45), got %f", *c.HorizontalToleranceDeg)
	}
	if c.FitStepDeg != nil && (*c.FitStepDeg <= 0 || *c.FitStepDeg > 90) {
		return fmt.Errorf("fit_step_deg must be in (0, 90], got %f", *c.FitStepDeg)
	}

	if c.TriggerSource != nil {
		switch *c.TriggerSource {
		case TriggerSourceScanned, TriggerSourceGroundTruth:
		default:
			return fmt.Errorf("trigger_source must be %q or %q, got %q", TriggerSourceScanned, TriggerSourceGroundTruth, *c.TriggerSource)
		}
	}
	if c.AssociationPolicy != nil {
		switch *c.AssociationPolicy {
		case "first", "nearest":
		default:
			return fmt.Errorf("association_policy must be \"first\" or \"nearest\", got %q", *c.AssociationPolicy)
		}
	}
	if c.AnnotationPhase != nil && *c.AnnotationPhase == "" {
		return fmt.Errorf("annotation_phase must not be empty")
	}

	return nil
}

// GetThresholdOverlap returns the threshold_overlap value or the default.
func (c *KPIConfig) GetThresholdOverlap() float64 {
	if c.ThresholdOverlap == nil {
		return 70
	}
	return *c.ThresholdOverlap
}

// GetThresholdOrientation returns the threshold_orientation value or the default.
func (c *KPIConfig) GetThresholdOrientation() float64 {
	if c.ThresholdOrientation == nil {
		return 5
	}
	return *c.ThresholdOrientation
}

// GetThresholdCenterDistanceShortSide returns the threshold_center_distance_short_side value or the default.
func (c *KPIConfig) GetThresholdCenterDistanceShortSide() float64 {
	if c.ThresholdCenterDistanceShortSide == nil {
		return 0.5
	}
	return *c.ThresholdCenterDistanceShortSide
}

// GetThresholdCenterDistanceLongSide returns the threshold_center_distance_long_side value or the default.
func (c *KPIConfig) GetThresholdCenterDistanceLongSide() float64 {
	if c.ThresholdCenterDistanceLongSide == nil {
		return 1.0
	}
	return *c.ThresholdCenterDistanceLongSide
}

// GetThresholdTPR returns the threshold_tpr value or the default.
func (c *KPIConfig) GetThresholdTPR() float64 {
	if c.ThresholdTPR == nil {
		return 80
	}
	return *c.ThresholdTPR
}

// GetThresholdFPR returns the threshold_fpr value or the default.
func (c *KPIConfig) GetThresholdFPR() float64 {
	if c.ThresholdFPR == nil {
		return 10
	}
	return *c.ThresholdFPR
}

// GetThresholdFNR returns the threshold_fnr value or the default.
func (c *KPIConfig) GetThresholdFNR() float64 {
	if c.ThresholdFNR == nil {
		return 20
	}
	return *c.ThresholdFNR
}

// GetVehicleWidth returns the vehicle_width value or the default.
func (c *KPIConfig) GetVehicleWidth() float64 {
	if c.VehicleWidth == nil {
		return 1.9
	}
	return *c.VehicleWidth
}

// GetVehicleLength returns the vehicle_length value or the default.
func (c *KPIConfig) GetVehicleLength() float64 {
	if c.VehicleLength == nil {
		return 4.7
	}
	return *c.VehicleLength
}

// GetMirrorOffsetLongitudinal returns the mirror_offset_longitudinal value or the default.
func (c *KPIConfig) GetMirrorOffsetLongitudinal() float64 {
	if c.MirrorOffsetLongitudinal == nil {
		return 2.0
	}
	return *c.MirrorOffsetLongitudinal
}

// GetMirrorOffsetLateral returns the mirror_offset_lateral value or the default.
func (c *KPIConfig) GetMirrorOffsetLateral() float64 {
	if c.MirrorOffsetLateral == nil {
		return 1.0
	}
	return *c.MirrorOffsetLateral
}

// GetMirrorClearance returns the mirror_clearance value or the default.
func (c *KPIConfig) GetMirrorClearance() float64 {
	if c.MirrorClearance == nil {
		return 0.1
	}
	return *c.MirrorClearance
}

// GetCollinearityTolerance returns the collinearity_tolerance value or the default.
func (c *KPIConfig) GetCollinearityTolerance() float64 {
	if c.CollinearityTolerance == nil {
		return 0.02
	}
	return *c.CollinearityTolerance
}

// GetHorizontalToleranceDeg returns the horizontal_tolerance_deg value or the default.
func (c *KPIConfig) GetHorizontalToleranceDeg() float64 {
	if c.HorizontalToleranceDeg == nil {
		return 10
	}
	return *c.HorizontalToleranceDeg
}

// GetFitStepDeg returns the fit_step_deg value or the default.
func (c *KPIConfig) GetFitStepDeg() float64 {
	if c.FitStepDeg == nil {
		return 1
	}
	return *c.FitStepDeg
}

// GetTriggerSource returns the trigger_source value or the default.
func (c *KPIConfig) GetTriggerSource() string {
	if c.TriggerSource == nil || *c.TriggerSource == "" {
		return TriggerSourceScanned
	}
	return *c.TriggerSource
}

// GetAssociationPolicy returns the association_policy value or the default.
func (c *KPIConfig) GetAssociationPolicy() string {
	if c.AssociationPolicy == nil || *c.AssociationPolicy == "" {
		return "first"
	}
	return *c.AssociationPolicy
}

// GetAnnotationPhase returns the annotation_phase value or the default.
func (c *KPIConfig) GetAnnotationPhase() string {
	if c.AnnotationPhase == nil || *c.AnnotationPhase == "" {
		return "ApplicationStarted"
	}
	return *c.AnnotationPhase
}

// GetIncludeUntriggered returns the include_untriggered value or the default.
func (c *KPIConfig) GetIncludeUntriggered() bool {
	if c.IncludeUntriggered == nil {
		return false
	}
	return *c.IncludeUntriggered
}
