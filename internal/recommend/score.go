package recommend

import (
	"log/slog"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/softcane/agropower/internal/config"
	"github.com/softcane/agropower/internal/models"
	"github.com/softcane/agropower/internal/terrain"
	"github.com/softcane/agropower/internal/units"
)

// Component weights. They sum to 100.
const (
	WeightEfficiency   = 30.0
	WeightTraction     = 25.0
	WeightSoil         = 20.0
	WeightEconomic     = 15.0
	WeightAvailability = 10.0
)

// Fit classifications by utilization.
const (
	FitOptimal     = "OPTIMAL"
	FitGood        = "GOOD"
	FitOverpowered = "OVERPOWERED"
	FitExcessive   = "EXCESSIVE"
)

// Score is a candidate's weighted evaluation.
type Score struct {
	Total          float64           `json:"total"`
	Breakdown      models.ScoreParts `json:"breakdown"`
	Classification string            `json:"classification"`
	Utilization    float64           `json:"utilization"`
}

// ScoringPolicy carries the runtime-tunable scoring inputs resolved
// for one request.
type ScoringPolicy struct {
	PreferredTire string
	economic      *govaluate.EvaluableExpression
}

// NewScoringPolicy resolves the runtime policy for a work type. A
// malformed economic expression is logged and ignored; scoring then
// uses the built-in formula.
func NewScoringPolicy(rp *config.RuntimePolicy, workType string, logger *slog.Logger) *ScoringPolicy {
	if rp == nil {
		rp = config.DefaultRuntimePolicy()
	}
	sp := &ScoringPolicy{PreferredTire: rp.PreferredTire(workType)}
	if rp.EconomicExpression != "" {
		expr, err := govaluate.NewEvaluableExpression(rp.EconomicExpression)
		if err != nil {
			if logger != nil {
				logger.Warn("ignoring malformed economic expression", "error", err)
			}
		} else {
			sp.economic = expr
		}
	}
	return sp
}

// tractionBonus is the base bonus by traction type and slope class,
// before normalization into the 0..25 range.
var tractionBonus = map[string]map[terrain.SlopeClass]float64{
	models.Traction4x4: {
		terrain.SlopeFlat:    5,
		terrain.SlopeRolling: 15,
		terrain.SlopeSteep:   25,
	},
	models.TractionTrack: {
		terrain.SlopeFlat:    0,
		terrain.SlopeRolling: 20,
		terrain.SlopeSteep:   30,
	},
	models.Traction4x2: {
		terrain.SlopeFlat:    10,
		terrain.SlopeRolling: 0,
		terrain.SlopeSteep:   -50,
	},
}

func scoreEfficiency(tractorHP, requiredHP float64) float64 {
	r := tractorHP / requiredHP
	switch {
	case r <= 1.0:
		return WeightEfficiency
	case r <= 1.3:
		// linear from 30 at r=1 down to 15 at r=1.3
		return units.Round2(WeightEfficiency - (r-1)/0.3*15)
	default:
		return units.Round2(max(0, 15-30*(r-1.3)))
	}
}

func scoreTraction(traction string, class terrain.SlopeClass) float64 {
	bonus := tractionBonus[traction][class]
	return units.Round2(units.Clamp((bonus+50)/80*WeightTraction, 0, WeightTraction))
}

func scoreSoil(tr models.Tractor, traction string, an terrain.Analysis, preferredTire string) float64 {
	score := 10.0
	tire := strings.ToLower(tr.TireType)
	switch {
	case preferredTire == "track" && traction == models.TractionTrack:
		score = 20
	case preferredTire == "reinforced" && (strings.Contains(tire, "reinforced") || strings.Contains(tire, "reforzad")):
		score = 18
	case preferredTire == "standard" && traction != models.TractionTrack:
		score = 16
	}
	if an.CombinedDifficulty > 70 && traction != models.TractionTrack {
		score *= 0.7
	}
	return units.Round2(score)
}

func (sp *ScoringPolicy) scoreEconomic(tr models.Tractor, requiredHP float64, logger *slog.Logger) float64 {
	if sp != nil && sp.economic != nil {
		fuel := 0.0
		if tr.FuelConsumptionLPH != nil {
			fuel = *tr.FuelConsumptionLPH
		}
		result, err := sp.economic.Evaluate(map[string]interface{}{
			"required_hp": requiredHP,
			"tractor_hp":  tr.EnginePowerHP,
			"fuel_lph":    fuel,
		})
		if err == nil {
			if v, ok := result.(float64); ok {
				return units.Round2(units.Clamp(v, 0, WeightEconomic))
			}
		}
		if logger != nil {
			logger.Warn("economic expression evaluation failed, using built-in formula", "error", err)
		}
	}

	if tr.FuelConsumptionLPH != nil {
		lph := *tr.FuelConsumptionLPH
		return units.Round2(units.Clamp((1-(lph-5)/20)*WeightEconomic, 0, WeightEconomic))
	}
	// power as proxy: tighter fit scores better
	return units.Round2(units.Clamp(requiredHP/tr.EnginePowerHP*WeightEconomic, 0, WeightEconomic))
}

func scoreAvailability(status string) float64 {
	switch strings.ToLower(status) {
	case models.StatusAvailable, models.StatusActive:
		return WeightAvailability
	case models.StatusInUse, models.StatusMaintenance:
		return 5
	case models.StatusUnavailable, models.StatusInactive:
		return 0
	default:
		return WeightAvailability
	}
}

// Classify buckets the power utilization of a candidate.
func Classify(utilization float64) string {
	switch {
	case utilization >= 85:
		return FitOptimal
	case utilization >= 70:
		return FitGood
	case utilization >= 50:
		return FitOverpowered
	default:
		return FitExcessive
	}
}

// ScoreCandidate computes the weighted score of one tractor against a
// power requirement and terrain analysis.
func (sp *ScoringPolicy) ScoreCandidate(tr models.Tractor, requiredHP float64, an terrain.Analysis, logger *slog.Logger) Score {
	traction := models.NormalizeTraction(tr.TractionType)

	parts := models.ScoreParts{
		Efficiency:   scoreEfficiency(tr.EnginePowerHP, requiredHP),
		Traction:     scoreTraction(traction, an.SlopeClass),
		Soil:         scoreSoil(tr, traction, an, sp.PreferredTire),
		Economic:     sp.scoreEconomic(tr, requiredHP, logger),
		Availability: scoreAvailability(tr.Status),
	}

	util := units.Round2(100 * requiredHP / tr.EnginePowerHP)

	return Score{
		Total:          units.Round2(parts.Efficiency + parts.Traction + parts.Soil + parts.Economic + parts.Availability),
		Breakdown:      parts,
		Classification: Classify(util),
		Utilization:    util,
	}
}
