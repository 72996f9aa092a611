package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/models"
)

const terrainColumns = `terrain_id, owner_user_id, name, altitude_m, slope_pct, soil_type, temperature_c, status`

// GetTerrain loads one terrain by ID.
func (s *Store) GetTerrain(ctx context.Context, id int64) (*models.Terrain, error) {
	var t models.Terrain
	err := s.db.GetContext(ctx, &t,
		`SELECT `+terrainColumns+` FROM terrain WHERE terrain_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Terreno no encontrado o no accesible")
	}
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return &t, nil
}

const tractorColumns = `tractor_id, name, brand, model, engine_power_hp, weight_kg, traction_force_kn, traction_type, tire_type, fuel_consumption_lph, status`

// GetTractor loads one tractor by ID.
func (s *Store) GetTractor(ctx context.Context, id int64) (*models.Tractor, error) {
	var t models.Tractor
	err := s.db.GetContext(ctx, &t,
		`SELECT `+tractorColumns+` FROM tractor WHERE tractor_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Tractor no encontrado")
	}
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return &t, nil
}

// ListTractors returns the whole catalog in ID order, so downstream
// tie-breaking is stable.
func (s *Store) ListTractors(ctx context.Context) ([]models.Tractor, error) {
	var ts []models.Tractor
	err := s.db.SelectContext(ctx, &ts,
		`SELECT `+tractorColumns+` FROM tractor ORDER BY tractor_id`)
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return ts, nil
}

const implementColumns = `implement_id, implement_name, implement_type, power_requirement_hp, working_width_m, working_depth_cm, status`

// GetImplement loads one implement by ID.
func (s *Store) GetImplement(ctx context.Context, id int64) (*models.Implement, error) {
	var im models.Implement
	err := s.db.GetContext(ctx, &im,
		`SELECT `+implementColumns+` FROM implement WHERE implement_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("Implemento no encontrado")
	}
	if err != nil {
		return nil, apperr.FromPG(err)
	}
	return &im, nil
}
