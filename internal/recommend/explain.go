package recommend

import (
	"fmt"

	"github.com/softcane/agropower/internal/models"
)

var componentPhrases = map[string]string{
	"efficiency":   "su eficiencia en el uso de la potencia",
	"traction":     "su tracción adecuada para la pendiente del terreno",
	"soil":         "su adaptación al tipo de suelo",
	"economic":     "su economía de operación",
	"availability": "su disponibilidad inmediata",
}

var classificationPhrases = map[string]string{
	FitOptimal:     "un aprovechamiento óptimo del motor",
	FitGood:        "un buen aprovechamiento del motor",
	FitOverpowered: "una potencia superior a la necesaria",
	FitExcessive:   "una potencia muy superior a la requerida",
}

// dominantComponent returns the highest-scoring component relative to
// its weight. Ties resolve in weight order, heaviest first, so the
// result is deterministic.
func dominantComponent(parts models.ScoreParts) string {
	ratios := []struct {
		name  string
		ratio float64
	}{
		{"efficiency", parts.Efficiency / WeightEfficiency},
		{"traction", parts.Traction / WeightTraction},
		{"soil", parts.Soil / WeightSoil},
		{"economic", parts.Economic / WeightEconomic},
		{"availability", parts.Availability / WeightAvailability},
	}
	best := ratios[0]
	for _, r := range ratios[1:] {
		if r.ratio > best.ratio {
			best = r
		}
	}
	return best.name
}

// Explain synthesizes the one-sentence Spanish explanation for a
// ranked candidate.
func Explain(tractorName string, score Score) string {
	return fmt.Sprintf("%s destaca por %s, con %s.",
		tractorName,
		componentPhrases[dominantComponent(score.Breakdown)],
		classificationPhrases[score.Classification],
	)
}
