// Package terrain normalizes terrain attributes and derives the hard
// requirements a parcel imposes on machinery. Soil labels arrive in
// Spanish or English; normalization happens here, never in scoring.
package terrain

import (
	"strings"

	"github.com/softcane/agropower/internal/units"
)

// SoilType is the canonical soil enum.
type SoilType string

const (
	SoilClay    SoilType = "clay"
	SoilLoam    SoilType = "loam"
	SoilSandy   SoilType = "sandy"
	SoilRocky   SoilType = "rocky"
	SoilWetClay SoilType = "wet_clay"
)

// SlopeClass buckets the slope gradient.
type SlopeClass string

const (
	SlopeFlat    SlopeClass = "FLAT"
	SlopeRolling SlopeClass = "ROLLING"
	SlopeSteep   SlopeClass = "STEEP"
)

// Slope classification boundaries in percent.
const (
	rollingBoundaryPct = 5.0
	steepBoundaryPct   = 15.0
)

// soilAliases maps Spanish and English labels to the canonical enum.
var soilAliases = map[string]SoilType{
	"clay":            SoilClay,
	"arcilla":         SoilClay,
	"arcilloso":       SoilClay,
	"loam":            SoilLoam,
	"franco":          SoilLoam,
	"limoso":          SoilLoam,
	"sandy":           SoilSandy,
	"sand":            SoilSandy,
	"arena":           SoilSandy,
	"arenoso":         SoilSandy,
	"rocky":           SoilRocky,
	"rocoso":          SoilRocky,
	"pedregoso":       SoilRocky,
	"wet_clay":        SoilWetClay,
	"wet clay":        SoilWetClay,
	"arcilla_humeda":  SoilWetClay,
	"arcilla humeda":  SoilWetClay,
	"arcilla húmeda":  SoilWetClay,
	"arcilloso_humedo": SoilWetClay,
}

// soilDifficulty scores how demanding a soil is to work, 0..100.
var soilDifficulty = map[SoilType]float64{
	SoilSandy:   20,
	SoilLoam:    40,
	SoilClay:    70,
	SoilRocky:   85,
	SoilWetClay: 95,
}

// Analysis is the derived view of a parcel.
type Analysis struct {
	Soil               SoilType   `json:"soil_type"`
	SlopeClass         SlopeClass `json:"slope_class"`
	SlopePct           float64    `json:"slope_pct"`
	SlopeDegrees       float64    `json:"slope_degrees"`
	SoilDifficulty     float64    `json:"soil_difficulty"`
	CombinedDifficulty float64    `json:"combined_difficulty"`
	Requires4WD        bool       `json:"requires_4wd"`
	RequiresTrack      bool       `json:"requires_track"`
}

// NormalizeSoil resolves a raw soil label to the canonical enum.
// Unknown labels normalize to loam.
func NormalizeSoil(label string) SoilType {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, "-", "_")
	if soil, ok := soilAliases[key]; ok {
		return soil
	}
	return SoilLoam
}

// ClassifySlope buckets a slope gradient. Descent counts like ascent:
// the machine still has to hold the grade.
func ClassifySlope(slopePct float64) SlopeClass {
	abs := slopePct
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < rollingBoundaryPct:
		return SlopeFlat
	case abs < steepBoundaryPct:
		return SlopeRolling
	default:
		return SlopeSteep
	}
}

// Analyze derives the full analysis for a parcel.
func Analyze(soilLabel string, slopePct float64) Analysis {
	soil := NormalizeSoil(soilLabel)
	class := ClassifySlope(slopePct)

	absSlope := slopePct
	if absSlope < 0 {
		absSlope = -absSlope
	}

	diff := soilDifficulty[soil]
	combined := units.Clamp(0.6*diff+0.4*min(40, 2*absSlope), 0, 100)

	return Analysis{
		Soil:               soil,
		SlopeClass:         class,
		SlopePct:           slopePct,
		SlopeDegrees:       units.Round2(units.SlopePctToDegrees(slopePct)),
		SoilDifficulty:     diff,
		CombinedDifficulty: units.Round2(combined),
		Requires4WD:        class == SlopeSteep,
		RequiresTrack:      soil == SoilWetClay || (soil == SoilClay && class == SlopeSteep),
	}
}
