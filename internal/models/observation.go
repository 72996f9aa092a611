package models

import "encoding/json"

// ScoreParts is the five-component score breakdown.
type ScoreParts struct {
	Efficiency   float64 `json:"efficiency"`
	Traction     float64 `json:"traction"`
	Soil         float64 `json:"soil"`
	Economic     float64 `json:"economic"`
	Availability float64 `json:"availability"`
}

// ObservationScore pairs the total with its breakdown.
type ObservationScore struct {
	Total     float64    `json:"total"`
	Breakdown ScoreParts `json:"breakdown"`
}

// ObservationSnapshot captures the inputs the score was computed from.
type ObservationSnapshot struct {
	TractorName        string  `json:"tractor_name"`
	EnginePowerHP      float64 `json:"engine_power_hp"`
	TractionType       string  `json:"traction_type"`
	RequiredHP         float64 `json:"required_hp"`
	SlopeClass         string  `json:"slope_class"`
	CombinedDifficulty float64 `json:"combined_difficulty"`
}

// Observation is the typed shape of recommendation.observations.
type Observation struct {
	Rank           int                 `json:"rank"`
	Score          ObservationScore    `json:"score"`
	Compatibility  float64             `json:"compatibility"`
	Classification string              `json:"classification"`
	Explanation    string              `json:"explanation"`
	Snapshot       ObservationSnapshot `json:"snapshot"`

	// Raw carries the original payload when an older row does not
	// decode into this shape.
	Raw string `json:"raw,omitempty"`
}

// EncodeObservation serializes an observation for the write path.
func EncodeObservation(o Observation) ([]byte, error) {
	return json.Marshal(o)
}

// DecodeObservation is the best-effort reader for observation blobs.
// Rows written by older versions fall back to {raw: <payload>}.
func DecodeObservation(raw []byte) Observation {
	var o Observation
	if err := json.Unmarshal(raw, &o); err != nil || o.Rank == 0 {
		return Observation{Raw: string(raw)}
	}
	return o
}
