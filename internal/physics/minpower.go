package physics

import (
	"math"
	"strings"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/units"
)

// SafetyMargin is the fixed 15% reserve applied on top of the
// calculated requirement.
const SafetyMargin = 1.15

// ReferenceDepthM is the standard working depth the depth factor is
// normalized against.
const ReferenceDepthM = 0.25

// soilPowerFactor scales the implement base requirement by soil type.
var soilPowerFactor = map[string]float64{
	"clay":  1.3,
	"loam":  1.0,
	"sandy": 0.8,
	"rocky": 1.5,
}

// PowerFactors are the multipliers that produced a requirement.
type PowerFactors struct {
	Soil         float64 `json:"soil"`
	Slope        float64 `json:"slope"`
	Depth        float64 `json:"depth"`
	SafetyMargin float64 `json:"safety_margin"`
}

// PowerRequirement is the output of the minimum-power formula.
type PowerRequirement struct {
	CalculatedHP float64      `json:"calculated_power_hp"` // pre-margin
	MinimumHP    float64      `json:"minimum_power_hp"`
	Factors      PowerFactors `json:"factors"`
}

// SoilPowerFactor returns the soil multiplier, defaulting to loam for
// unknown labels.
func SoilPowerFactor(soil string) float64 {
	if f, ok := soilPowerFactor[strings.ToLower(strings.TrimSpace(soil))]; ok {
		return f
	}
	return 1.0
}

// MinimumPower computes the minimum engine power an implement demands
// on a given terrain: base HP scaled by soil, slope and depth factors,
// plus the fixed safety margin.
func MinimumPower(baseHP float64, soil string, slopePct, depthM float64) (*PowerRequirement, error) {
	if math.IsNaN(baseHP) || math.IsInf(baseHP, 0) || baseHP <= 0 {
		return nil, apperr.Validationf("power_requirement_hp", "la potencia base del implemento debe ser mayor a 0")
	}
	if math.IsNaN(slopePct) || math.IsInf(slopePct, 0) {
		return nil, apperr.Validationf("slope_pct", "la pendiente no es un número válido")
	}
	if math.IsNaN(depthM) || math.IsInf(depthM, 0) || depthM <= 0 {
		return nil, apperr.Validationf("working_depth_m", "la profundidad de trabajo debe ser mayor a 0")
	}

	fSoil := SoilPowerFactor(soil)
	fSlope := 1 + (slopePct/100)*0.5
	fDepth := depthM / ReferenceDepthM

	calculated := baseHP * fSoil * fSlope * fDepth
	minimum := calculated * SafetyMargin

	return &PowerRequirement{
		CalculatedHP: units.Round2(calculated),
		MinimumHP:    units.Round2(minimum),
		Factors: PowerFactors{
			Soil:         fSoil,
			Slope:        units.Round2(fSlope),
			Depth:        units.Round2(fDepth),
			SafetyMargin: SafetyMargin,
		},
	}, nil
}
