// Package guard validates request payloads and enforces terrain
// ownership before any computation or write happens.
package guard

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/models"
)

// MsgTerrainNotAccessible is the uniform answer for a terrain that is
// missing, inactive or owned by someone else. One shape for all three
// cases so callers cannot enumerate other users' terrains.
const MsgTerrainNotAccessible = "Terreno no encontrado o no accesible"

// Int64 is an ID field that accepts both JSON numbers and numeric
// strings on the wire.
type Int64 int64

func (v *Int64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// tolerate "12.0" style payloads
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return err
		}
		n = int64(f)
	}
	*v = Int64(n)
	return nil
}

// Float64 is a measurement field that accepts both JSON numbers and
// numeric strings on the wire.
type Float64 float64

func (v *Float64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*v = Float64(f)
	return nil
}

// PowerLossRequest is the power-loss calculation payload.
type PowerLossRequest struct {
	TractorID       Int64    `json:"tractor_id" validate:"required,gt=0"`
	TerrainID       Int64    `json:"terrain_id" validate:"required,gt=0"`
	WorkingSpeedKmh Float64  `json:"working_speed_kmh" validate:"required,gt=0,lt=40"`
	CarriedWeightKG Float64  `json:"carried_objects_weight_kg" validate:"gte=0"`
	SlippagePct     *Float64 `json:"slippage_percent" validate:"omitempty,gte=0,lte=100"`
}

// RecommendationRequest is the recommendation generation payload.
type RecommendationRequest struct {
	TerrainID          Int64    `json:"terrain_id" validate:"required,gt=0"`
	ImplementID        Int64    `json:"implement_id" validate:"required,gt=0"`
	WorkingDepthM      *Float64 `json:"working_depth_m" validate:"omitempty,gt=0,lte=1"`
	WorkType           string   `json:"work_type" validate:"omitempty,oneof=tillage planting harvesting transport general"`
	IncludeUnavailable bool     `json:"include_unavailable"`
}

// MinimumPowerRequest is the minimum-power calculation payload.
type MinimumPowerRequest struct {
	ImplementID   Int64    `json:"implement_id" validate:"required,gt=0"`
	TerrainID     Int64    `json:"terrain_id" validate:"required,gt=0"`
	WorkingDepthM *Float64 `json:"working_depth_m" validate:"omitempty,gt=0,lte=1"`
}

// fieldMessages maps json field name and failed tag to the Spanish
// message surfaced on the wire.
var fieldMessages = map[string]map[string]string{
	"tractor_id": {
		"required": "el tractor es obligatorio",
		"gt":       "el identificador del tractor debe ser un entero positivo",
	},
	"terrain_id": {
		"required": "el terreno es obligatorio",
		"gt":       "el identificador del terreno debe ser un entero positivo",
	},
	"implement_id": {
		"required": "el implemento es obligatorio",
		"gt":       "el identificador del implemento debe ser un entero positivo",
	},
	"working_speed_kmh": {
		"required": "la velocidad de trabajo es obligatoria",
		"gt":       "la velocidad de trabajo debe ser mayor a 0 km/h",
		"lt":       "la velocidad de trabajo debe ser menor a 40 km/h",
	},
	"carried_objects_weight_kg": {
		"gte": "el peso transportado no puede ser negativo",
	},
	"slippage_percent": {
		"gte": "el patinaje debe estar entre 0 y 100",
		"lte": "el patinaje debe estar entre 0 y 100",
	},
	"working_depth_m": {
		"gt":  "la profundidad de trabajo debe ser mayor a 0 m",
		"lte": "la profundidad de trabajo no puede superar 1.0 m",
	},
	"work_type": {
		"oneof": "tipo de trabajo inválido",
	},
}

// TerrainReader is the catalog read the guard needs.
type TerrainReader interface {
	GetTerrain(ctx context.Context, id int64) (*models.Terrain, error)
}

// Guard validates payloads and resolves terrains under the ownership
// rule.
type Guard struct {
	terrains TerrainReader
	validate *validator.Validate
}

// New creates a guard over a terrain reader.
func New(terrains TerrainReader) *Guard {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Guard{terrains: terrains, validate: v}
}

// Check validates a request struct and translates violations into a
// single validation error carrying every failed field.
func (g *Guard) Check(req any) error {
	err := g.validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.Validation, "solicitud inválida", err)
	}

	fields := make(map[string]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		msg := fieldMessages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "valor inválido para " + fe.Field()
		}
		if first == "" {
			first = msg
		}
		fields[fe.Field()] = msg
	}
	return &apperr.Error{Kind: apperr.Validation, Message: first, Fields: fields}
}

// TerrainForUser loads a terrain and enforces ownership: the terrain
// must exist, be active, and belong to the caller. Admins bypass the
// ownership check. All denials share one message and status.
func (g *Guard) TerrainForUser(ctx context.Context, terrainID int64, ident auth.Identity) (*models.Terrain, error) {
	terr, err := g.terrains.GetTerrain(ctx, terrainID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.NotFoundf(MsgTerrainNotAccessible)
		}
		return nil, err
	}

	if terr.Status != "active" {
		return nil, apperr.NotFoundf(MsgTerrainNotAccessible)
	}
	if terr.OwnerUserID != ident.UserID && !ident.IsAdmin() {
		return nil, apperr.NotFoundf(MsgTerrainNotAccessible)
	}
	return terr, nil
}
