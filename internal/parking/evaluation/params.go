package evaluation

import (
	"fmt"

	"github.com/banshee-data/parking.report/internal/config"
	"github.com/banshee-data/parking.report/internal/parking/association"
	"github.com/banshee-data/parking.report/internal/parking/classify"
	"github.com/banshee-data/parking.report/internal/parking/rates"
	"github.com/banshee-data/parking.report/internal/parking/trigger"
)

// TriggerSource selects which polygons drive the collinearity trigger.
type TriggerSource string

const (
	// TriggerScanned feeds scanned slots, keyed by their associated
	// ground-truth id.
	TriggerScanned TriggerSource = config.TriggerSourceScanned
	// TriggerGroundTruth feeds the annotated polygons directly.
	TriggerGroundTruth TriggerSource = config.TriggerSourceGroundTruth
)

// Params is the full engine configuration for one evaluation.
type Params struct {
	Classify           classify.Params
	Trigger            trigger.Config
	Rates              rates.Thresholds
	TriggerSource      TriggerSource
	Policy             association.Policy
	Phase              string
	IncludeUntriggered bool
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		Classify:      classify.DefaultParams(),
		Trigger:       trigger.DefaultConfig(),
		Rates:         rates.DefaultThresholds(),
		TriggerSource: TriggerScanned,
		Policy:        association.PolicyFirst,
		Phase:         "ApplicationStarted",
	}
}

// ParamsFromConfig maps a KPIConfig onto engine parameters. Nil fields
// take their defaults.
func ParamsFromConfig(cfg *config.KPIConfig) (Params, error) {
	if cfg == nil {
		cfg = config.EmptyKPIConfig()
	}
	if err := cfg.Validate(); err != nil {
		return Params{}, err
	}
	policy, err := association.ParsePolicy(cfg.GetAssociationPolicy())
	if err != nil {
		return Params{}, err
	}

	p := Params{
		Classify: classify.Params{
			Thresholds: classify.Thresholds{
				OverlapPct:     cfg.GetThresholdOverlap(),
				OrientationDeg: cfg.GetThresholdOrientation(),
				CenterShort:    cfg.GetThresholdCenterDistanceShortSide(),
				CenterLong:     cfg.GetThresholdCenterDistanceLongSide(),
			},
			VehicleWidth:           cfg.GetVehicleWidth(),
			VehicleLength:          cfg.GetVehicleLength(),
			HorizontalToleranceDeg: cfg.GetHorizontalToleranceDeg(),
			FitStepDeg:             cfg.GetFitStepDeg(),
		},
		Trigger: trigger.Config{
			MirrorLongitudinal:     cfg.GetMirrorOffsetLongitudinal(),
			MirrorLateral:          cfg.GetMirrorOffsetLateral(),
			MirrorClearance:        cfg.GetMirrorClearance(),
			CollinearityTolerance:  cfg.GetCollinearityTolerance(),
			HorizontalToleranceDeg: cfg.GetHorizontalToleranceDeg(),
		},
		Rates: rates.Thresholds{
			TPR: cfg.GetThresholdTPR(),
			FPR: cfg.GetThresholdFPR(),
			FNR: cfg.GetThresholdFNR(),
		},
		TriggerSource:      TriggerSource(cfg.GetTriggerSource()),
		Policy:             policy,
		Phase:              cfg.GetAnnotationPhase(),
		IncludeUntriggered: cfg.GetIncludeUntriggered(),
	}
	switch p.TriggerSource {
	case TriggerScanned, TriggerGroundTruth:
	default:
		return Params{}, fmt.Errorf("unknown trigger source %q", p.TriggerSource)
	}
	return p, nil
}
