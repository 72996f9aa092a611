// Package recommend implements the matchmaking core: candidate
// filtering under the steep-slope safety rule, the five-component
// weighted scorer, and the recommendation orchestrator.
package recommend

import (
	"github.com/softcane/agropower/internal/models"
	"github.com/softcane/agropower/internal/terrain"
)

// FilterOptions tune the candidate cascade.
type FilterOptions struct {
	// IncludeUnavailable skips the availability predicate.
	IncludeUnavailable bool
}

// FilterOutcome reports the surviving candidates in input order plus
// per-rule elimination counts.
type FilterOutcome struct {
	Candidates []models.Tractor

	EliminatedByPower        int
	EliminatedBySafety       int
	EliminatedByAvailability int
}

// availableForWork reports whether a tractor status passes the
// availability predicate. Both catalog conventions are accepted.
func availableForWork(status string) bool {
	return status == models.StatusAvailable || status == models.StatusActive
}

// FilterCandidates applies the three predicates in order: power
// threshold, the steep-slope traction rule, availability. Sorting is
// the scorer's job; input order is preserved.
func FilterCandidates(tractors []models.Tractor, requiredHP float64, an terrain.Analysis, opts FilterOptions) FilterOutcome {
	out := FilterOutcome{Candidates: make([]models.Tractor, 0, len(tractors))}

	for _, tr := range tractors {
		if tr.EnginePowerHP < requiredHP {
			out.EliminatedByPower++
			continue
		}

		traction := models.NormalizeTraction(tr.TractionType)
		if an.Requires4WD && traction != models.Traction4x4 && traction != models.TractionTrack {
			out.EliminatedBySafety++
			continue
		}

		if !opts.IncludeUnavailable && !availableForWork(tr.Status) {
			out.EliminatedByAvailability++
			continue
		}

		out.Candidates = append(out.Candidates, tr)
	}

	return out
}

// EliminationReason names the rule that emptied the candidate set, in
// the order the cascade ran. Empty when candidates survived.
func (o FilterOutcome) EliminationReason(totalTractors int) string {
	if len(o.Candidates) > 0 {
		return ""
	}
	switch {
	case totalTractors == 0:
		return "no hay tractores en el catálogo"
	case o.EliminatedByPower == totalTractors:
		return "ningún tractor alcanza la potencia mínima requerida"
	case o.EliminatedByAvailability > 0 && o.EliminatedBySafety == 0:
		return "los tractores compatibles no están disponibles"
	case o.EliminatedBySafety > 0 && o.EliminatedByAvailability == 0:
		return "la pendiente exige tracción 4x4 u oruga y ningún candidato la cumple"
	default:
		return "ningún tractor cumple los requisitos de potencia, seguridad y disponibilidad"
	}
}
