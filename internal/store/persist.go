package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/metrics"
	"github.com/softcane/agropower/internal/models"
	"github.com/softcane/agropower/internal/physics"
	"github.com/softcane/agropower/internal/recommend"
)

const insertQuery = `
	INSERT INTO query (user_id, terrain_id, tractor_id, implement_id, query_type, status)
	VALUES ($1, $2, $3, $4, $5, 'completed')
	RETURNING query_id`

const insertHistory = `
	INSERT INTO query_history (user_id, query_id, action_type, description, result_json)
	VALUES ($1, $2, $3, $4, $5)`

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

// withTx runs fn inside a transaction, rolling back on any error so the
// three-table write is all-or-nothing.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.FromPG(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.FromPG(err)
	}
	return nil
}

// SaveRecommendation persists one recommendation result: the parent
// query row, up to the persist limit of ranked children with their
// observation blobs, and the audit row.
func (s *Store) SaveRecommendation(ctx context.Context, ident auth.Identity, res *recommend.Result) (int64, error) {
	if len(res.Recommendations) == 0 {
		return 0, fmt.Errorf("store: nothing to persist")
	}

	obs := res.Observations()
	summaryJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "error al serializar el resumen", err)
	}

	var queryID int64
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		top := res.Recommendations[0].Tractor.TractorID
		if err := tx.GetContext(ctx, &queryID, insertQuery,
			ident.UserID, res.Terrain.TerrainID, nullID(top), nullID(res.Implement.ImplementID),
			models.QueryRecommendation); err != nil {
			return apperr.FromPG(err)
		}

		for i, o := range obs {
			blob, err := models.EncodeObservation(o)
			if err != nil {
				return apperr.Wrap(apperr.Internal, "error al serializar la observación", err)
			}
			rc := res.Recommendations[i]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recommendation
					(query_id, user_id, terrain_id, tractor_id, implement_id,
					 compatibility_score, observations, work_type)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				queryID, ident.UserID, res.Terrain.TerrainID, rc.Tractor.TractorID,
				res.Implement.ImplementID, rc.Score.Total, blob, res.WorkType,
			); err != nil {
				return apperr.FromPG(err)
			}
		}

		desc := fmt.Sprintf("Recomendación generada para terreno %d: %d candidatos, mejor %s",
			res.Terrain.TerrainID, len(res.Recommendations), res.Summary.TopTractor)
		if _, err := tx.ExecContext(ctx, insertHistory,
			ident.UserID, queryID, models.QueryRecommendation, desc, summaryJSON); err != nil {
			return apperr.FromPG(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.QueriesPersisted.WithLabelValues(models.QueryRecommendation).Inc()
	s.logger.Info("recommendation persisted",
		"query_id", queryID, "user_id", ident.UserID, "candidates", len(obs))
	return queryID, nil
}

// SavePowerLoss persists one power-loss computation: parent query, the
// 1:1 decomposition child and the audit row. The altitude column
// carries the combined atmospheric loss so the components sum to the
// total.
func (s *Store) SavePowerLoss(ctx context.Context, ident auth.Identity, tractorID, terrainID int64, b *physics.LossBreakdown) (int64, error) {
	resultJSON, err := json.Marshal(b)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "error al serializar el resultado", err)
	}

	var queryID int64
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &queryID, insertQuery,
			ident.UserID, terrainID, nullID(tractorID), nil, models.QueryPowerLoss); err != nil {
			return apperr.FromPG(err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO power_loss
				(query_id, slope_hp_loss, altitude_hp_loss, rolling_resistance_hp_loss,
				 slippage_hp_loss, transmission_hp_loss, total_hp_loss,
				 gross_hp, net_hp, efficiency_pct)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			queryID, b.SlopeHP, b.AtmosphericHP(), b.RollingHP,
			b.SlippageHP, b.TransmissionHP, b.TotalHP,
			b.GrossHP, b.NetHP, b.EfficiencyPct,
		); err != nil {
			return apperr.FromPG(err)
		}

		desc := fmt.Sprintf("Cálculo de pérdida de potencia: %.2f HP netos de %.2f HP", b.NetHP, b.GrossHP)
		if _, err := tx.ExecContext(ctx, insertHistory,
			ident.UserID, queryID, models.QueryPowerLoss, desc, resultJSON); err != nil {
			return apperr.FromPG(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.QueriesPersisted.WithLabelValues(models.QueryPowerLoss).Inc()
	s.logger.Info("power loss persisted", "query_id", queryID, "user_id", ident.UserID)
	return queryID, nil
}

// SaveMinimumPower persists a minimum-power calculation. It has no
// dedicated child table: the parent query plus the audit row carrying
// the full requirement are enough to reproduce it.
func (s *Store) SaveMinimumPower(ctx context.Context, ident auth.Identity, terrainID, implementID int64, req *physics.PowerRequirement) (int64, error) {
	resultJSON, err := json.Marshal(req)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "error al serializar el resultado", err)
	}

	var queryID int64
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &queryID, insertQuery,
			ident.UserID, terrainID, nullID(0), nullID(implementID), models.QueryMinimumPower); err != nil {
			return apperr.FromPG(err)
		}

		desc := fmt.Sprintf("Potencia mínima calculada: %.2f HP", req.MinimumHP)
		if _, err := tx.ExecContext(ctx, insertHistory,
			ident.UserID, queryID, models.QueryMinimumPower, desc, resultJSON); err != nil {
			return apperr.FromPG(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.QueriesPersisted.WithLabelValues(models.QueryMinimumPower).Inc()
	return queryID, nil
}
