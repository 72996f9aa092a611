// Package physics implements the tractive power model: the ordered
// power-loss pipeline and the minimum-power formula for implements.
// All calculators are pure; invalid numeric inputs are rejected with a
// field-named validation error, every other input saturates rather
// than failing.
package physics

import (
	"math"
	"strings"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/units"
)

// KgfMSPerHP converts kgf·m/s into mechanical horsepower.
const KgfMSPerHP = 274.4

// Defaults applied when the caller leaves an optional input unset.
const (
	DefaultTemperatureC     = 15.0
	DefaultSlippagePct      = 10.0
	DefaultTransmissionLoss = 0.13
	DefaultConeIndex        = 35.0
)

// soilConeIndex maps canonical soil labels to an empirical cone index.
var soilConeIndex = map[string]float64{
	"clay":  45,
	"loam":  35,
	"sandy": 25,
	"firm":  50,
	"soft":  20,
}

// ConeIndexForSoil returns the cone index for a soil label, falling
// back to the default for unknown soils.
func ConeIndexForSoil(soil string) float64 {
	if cn, ok := soilConeIndex[strings.ToLower(strings.TrimSpace(soil))]; ok {
		return cn
	}
	return DefaultConeIndex
}

// RollingCoefficient derives the rolling-resistance coefficient from
// the soil cone index.
func RollingCoefficient(cn float64) float64 {
	return 1.2/cn + 0.04
}

// LossInput is one (tractor, terrain, speed, load) tuple.
type LossInput struct {
	EngineHP               float64
	AltitudeM              float64
	TemperatureC           float64
	TotalWeightKG          float64 // tractor mass plus carried load
	SoilConeIndex          float64
	SlopePct               float64 // negative on descent
	SpeedKmh               float64
	SlippagePct            float64
	TransmissionLossFactor float64
}

// LossBreakdown is the per-source HP decomposition. All fields are
// rounded to two decimals at this boundary.
type LossBreakdown struct {
	AltitudeHP      float64 `json:"altitude_hp"`
	TemperatureHP   float64 `json:"temperature_hp"`
	TransmissionHP  float64 `json:"transmission_hp"`
	RollingHP       float64 `json:"rolling_resistance_hp"`
	SlopeHP         float64 `json:"slope_hp"`
	SlippageHP      float64 `json:"slippage_hp"`
	TotalHP         float64 `json:"total_hp"`
	GrossHP         float64 `json:"gross_hp"`
	NetHP           float64 `json:"net_hp"`
	EfficiencyPct   float64 `json:"efficiency_pct"`
	RollingCoeff    float64 `json:"rolling_coefficient"`
	SlopeAngleDeg   float64 `json:"slope_angle_degrees"`
}

// AtmosphericHP is the combined altitude plus temperature loss. The
// persisted altitude column carries this combined figure.
func (b *LossBreakdown) AtmosphericHP() float64 {
	return units.Round2(b.AltitudeHP + b.TemperatureHP)
}

func validateLossInput(in LossInput) error {
	checks := []struct {
		field string
		value float64
		ok    bool
	}{
		{"engine_power_hp", in.EngineHP, in.EngineHP > 0},
		{"altitude_m", in.AltitudeM, in.AltitudeM >= 0},
		{"temperature_c", in.TemperatureC, true}, // sub-zero temperatures are valid
		{"total_weight_kg", in.TotalWeightKG, in.TotalWeightKG > 0},
		{"soil_cone_index", in.SoilConeIndex, in.SoilConeIndex > 0},
		{"slope_pct", in.SlopePct, true}, // descent is negative
		{"working_speed_kmh", in.SpeedKmh, in.SpeedKmh >= 0},
		{"slippage_pct", in.SlippagePct, in.SlippagePct >= 0 && in.SlippagePct <= 100},
		{"transmission_loss_factor", in.TransmissionLossFactor, in.TransmissionLossFactor >= 0 && in.TransmissionLossFactor < 1},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return apperr.Validationf(c.field, "el campo %s no es un número válido", c.field)
		}
		if !c.ok {
			return apperr.Validationf(c.field, "el campo %s está fuera de rango", c.field)
		}
	}
	return nil
}

// ComputeLoss runs the power-loss pipeline. The step order is part of
// the contract: every stage consumes the power remaining after the
// previous ones.
func ComputeLoss(in LossInput) (*LossBreakdown, error) {
	if err := validateLossInput(in); err != nil {
		return nil, err
	}

	altLoss := in.EngineHP * math.Max(0, in.AltitudeM/300) * 0.01
	tempLoss := in.EngineHP * math.Max(0, (in.TemperatureC-DefaultTemperatureC)/5) * 0.01
	pAtm := in.EngineHP - altLoss - tempLoss

	transLoss := pAtm * in.TransmissionLossFactor
	pWheels := pAtm - transLoss

	theta := units.DegToRad(units.SlopePctToDegrees(in.SlopePct))
	vms := units.KmhToMs(in.SpeedKmh)
	mu := RollingCoefficient(in.SoilConeIndex)

	rollLoss := (mu * in.TotalWeightKG * math.Cos(theta) * vms) / KgfMSPerHP
	slopeLoss := math.Max(0, in.TotalWeightKG*math.Sin(theta)*vms/KgfMSPerHP)

	pBeforeSlip := pWheels - rollLoss - slopeLoss
	slipLoss := math.Max(0, pBeforeSlip) * (in.SlippagePct / 100)
	net := math.Max(0, pBeforeSlip-slipLoss)

	total := altLoss + tempLoss + transLoss + rollLoss + slopeLoss + slipLoss

	return &LossBreakdown{
		AltitudeHP:     units.Round2(altLoss),
		TemperatureHP:  units.Round2(tempLoss),
		TransmissionHP: units.Round2(transLoss),
		RollingHP:      units.Round2(rollLoss),
		SlopeHP:        units.Round2(slopeLoss),
		SlippageHP:     units.Round2(slipLoss),
		TotalHP:        units.Round2(total),
		GrossHP:        units.Round2(in.EngineHP),
		NetHP:          units.Round2(net),
		EfficiencyPct:  units.Round2(100 * net / in.EngineHP),
		RollingCoeff:   units.Round2(mu),
		SlopeAngleDeg:  units.Round2(units.SlopePctToDegrees(in.SlopePct)),
	}, nil
}
