// Package models defines the persisted entities and the observation
// snapshot written with each recommendation.
package models

import (
	"strings"
	"time"
)

// Traction types, normalized.
const (
	Traction4x4   = "4x4"
	Traction4x2   = "4x2"
	TractionTrack = "track"
)

// Tractor statuses.
const (
	StatusAvailable   = "available"
	StatusActive      = "active"
	StatusInUse       = "in_use"
	StatusMaintenance = "maintenance"
	StatusInactive    = "inactive"
	StatusUnavailable = "unavailable"
)

// Query types.
const (
	QueryPowerLoss      = "power_loss"
	QueryRecommendation = "recommendation"
	QueryMinimumPower   = "minimum_power"
)

// Work types for recommendations.
var WorkTypes = []string{"tillage", "planting", "harvesting", "transport", "general"}

// Terrain is a parcel of land owned by a user.
type Terrain struct {
	TerrainID    int64    `db:"terrain_id" json:"terrain_id"`
	OwnerUserID  int64    `db:"owner_user_id" json:"owner_user_id"`
	Name         string   `db:"name" json:"name"`
	AltitudeM    float64  `db:"altitude_m" json:"altitude_m"`
	SlopePct     float64  `db:"slope_pct" json:"slope_pct"`
	SoilType     string   `db:"soil_type" json:"soil_type"`
	TemperatureC *float64 `db:"temperature_c" json:"temperature_c,omitempty"`
	Status       string   `db:"status" json:"status"`
}

// Temperature returns the terrain temperature, defaulting to the
// 15 °C reference when unset.
func (t *Terrain) Temperature() float64 {
	if t.TemperatureC == nil {
		return 15
	}
	return *t.TemperatureC
}

// Tractor is a catalog machine.
type Tractor struct {
	TractorID          int64    `db:"tractor_id" json:"tractor_id"`
	Name               string   `db:"name" json:"name"`
	Brand              string   `db:"brand" json:"brand"`
	Model              string   `db:"model" json:"model"`
	EnginePowerHP      float64  `db:"engine_power_hp" json:"engine_power_hp"`
	WeightKG           float64  `db:"weight_kg" json:"weight_kg"`
	TractionForceKN    float64  `db:"traction_force_kn" json:"traction_force_kn"`
	TractionType       string   `db:"traction_type" json:"traction_type"`
	TireType           string   `db:"tire_type" json:"tire_type"`
	FuelConsumptionLPH *float64 `db:"fuel_consumption_lph" json:"fuel_consumption_lph,omitempty"`
	Status             string   `db:"status" json:"status"`
}

// NormalizeTraction resolves a raw traction label to the canonical
// enum. Unknown labels resolve to 4x2, the safe assumption for the
// steep-slope rule.
func NormalizeTraction(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "4x4", "4wd", "awd", "doble traccion", "doble tracción":
		return Traction4x4
	case "track", "tracks", "oruga", "orugas", "crawler":
		return TractionTrack
	default:
		return Traction4x2
	}
}

// Implement is a catalog implement (plow, harrow, seeder, ...).
type Implement struct {
	ImplementID        int64    `db:"implement_id" json:"implement_id"`
	ImplementName      string   `db:"implement_name" json:"implement_name"`
	ImplementType      string   `db:"implement_type" json:"implement_type"`
	PowerRequirementHP float64  `db:"power_requirement_hp" json:"power_requirement_hp"`
	WorkingWidthM      float64  `db:"working_width_m" json:"working_width_m"`
	WorkingDepthCM     *float64 `db:"working_depth_cm" json:"working_depth_cm,omitempty"`
	Status             string   `db:"status" json:"status"`
}

// WorkingDepthM returns the implement's working depth in meters, or 0
// when unset.
func (i *Implement) WorkingDepthM() float64 {
	if i.WorkingDepthCM == nil {
		return 0
	}
	return *i.WorkingDepthCM / 100
}

// Query is the parent record of a single computation.
type Query struct {
	QueryID     int64     `db:"query_id" json:"query_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	TerrainID   int64     `db:"terrain_id" json:"terrain_id"`
	TractorID   int64     `db:"tractor_id" json:"tractor_id"`
	ImplementID *int64    `db:"implement_id" json:"implement_id,omitempty"`
	QueryType   string    `db:"query_type" json:"query_type"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PowerLossRecord is the persisted HP decomposition, 1:1 child of a
// query. The altitude column carries the combined atmospheric loss so
// the stored components sum to the total.
type PowerLossRecord struct {
	PowerLossID    int64   `db:"power_loss_id" json:"power_loss_id"`
	QueryID        int64   `db:"query_id" json:"query_id"`
	SlopeHP        float64 `db:"slope_hp_loss" json:"slope_hp_loss"`
	AltitudeHP     float64 `db:"altitude_hp_loss" json:"altitude_hp_loss"`
	RollingHP      float64 `db:"rolling_resistance_hp_loss" json:"rolling_resistance_hp_loss"`
	SlippageHP     float64 `db:"slippage_hp_loss" json:"slippage_hp_loss"`
	TransmissionHP float64 `db:"transmission_hp_loss" json:"transmission_hp_loss"`
	TotalHP        float64 `db:"total_hp_loss" json:"total_hp_loss"`
	GrossHP        float64 `db:"gross_hp" json:"gross_hp"`
	NetHP          float64 `db:"net_hp" json:"net_hp"`
	EfficiencyPct  float64 `db:"efficiency_pct" json:"efficiency_pct"`
}

// Recommendation is a ranked child of a recommendation query.
type Recommendation struct {
	RecommendationID   int64     `db:"recommendation_id" json:"recommendation_id"`
	QueryID            int64     `db:"query_id" json:"query_id"`
	UserID             int64     `db:"user_id" json:"user_id"`
	TerrainID          int64     `db:"terrain_id" json:"terrain_id"`
	TractorID          int64     `db:"tractor_id" json:"tractor_id"`
	ImplementID        int64     `db:"implement_id" json:"implement_id"`
	CompatibilityScore float64   `db:"compatibility_score" json:"compatibility_score"`
	Observations       []byte    `db:"observations" json:"-"`
	WorkType           string    `db:"work_type" json:"work_type"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// QueryHistory is the audit row written with every computation.
type QueryHistory struct {
	HistoryID   int64     `db:"history_id" json:"history_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	QueryID     int64     `db:"query_id" json:"query_id"`
	ActionType  string    `db:"action_type" json:"action_type"`
	Description string    `db:"description" json:"description"`
	ResultJSON  []byte    `db:"result_json" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
