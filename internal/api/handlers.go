package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/config"
	"github.com/softcane/agropower/internal/guard"
	"github.com/softcane/agropower/internal/metrics"
	"github.com/softcane/agropower/internal/models"
	"github.com/softcane/agropower/internal/physics"
	"github.com/softcane/agropower/internal/recommend"
	"github.com/softcane/agropower/internal/store"
)

// Gateway is the persistence surface the handlers depend on. The
// store satisfies it; tests substitute fakes.
type Gateway interface {
	GetTerrain(ctx context.Context, id int64) (*models.Terrain, error)
	GetTractor(ctx context.Context, id int64) (*models.Tractor, error)
	GetImplement(ctx context.Context, id int64) (*models.Implement, error)
	ListTractors(ctx context.Context) ([]models.Tractor, error)

	SaveRecommendation(ctx context.Context, ident auth.Identity, res *recommend.Result) (int64, error)
	SavePowerLoss(ctx context.Context, ident auth.Identity, tractorID, terrainID int64, b *physics.LossBreakdown) (int64, error)
	SaveMinimumPower(ctx context.Context, ident auth.Identity, terrainID, implementID int64, req *physics.PowerRequirement) (int64, error)

	ListHistory(ctx context.Context, userID int64, page, limit int, queryType string) (*store.Page[models.QueryHistory], error)
	ListRecommendations(ctx context.Context, userID int64, page, limit int, workType string) (*store.Page[models.Recommendation], error)
	GetRecommendation(ctx context.Context, id int64, ident auth.Identity) (*models.Recommendation, error)

	Ping(ctx context.Context) error
}

// Handlers holds the wired request handlers.
type Handlers struct {
	gw     Gateway
	guard  *guard.Guard
	engine *recommend.Engine
	cfg    *config.Config
	logger *slog.Logger

	// dryRun skips all persistence; responses carry queryId 0.
	dryRun bool
}

// NewHandlers wires the handler set.
func NewHandlers(gw Gateway, g *guard.Guard, engine *recommend.Engine, cfg *config.Config, logger *slog.Logger, dryRun bool) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{gw: gw, guard: g, engine: engine, cfg: cfg, logger: logger, dryRun: dryRun}
}

func (h *Handlers) devMode() bool {
	return h.cfg.RunMode == config.RunModeDevelopment
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, h.devMode(), h.logger)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.Validation, "el cuerpo de la solicitud no es JSON válido", err)
	}
	return nil
}

// PowerLoss handles POST /api/calculations/power-loss.
func (h *Handlers) PowerLoss(w http.ResponseWriter, r *http.Request) {
	var req guard.PowerLossRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.guard.Check(req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Server.PowerLossTimeout())
	defer cancel()
	ident := identityFrom(ctx)

	terr, err := h.guard.TerrainForUser(ctx, int64(req.TerrainID), ident)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tractor, err := h.gw.GetTractor(ctx, int64(req.TractorID))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	slippage := physics.DefaultSlippagePct
	if req.SlippagePct != nil {
		slippage = float64(*req.SlippagePct)
	}

	start := time.Now()
	breakdown, err := physics.ComputeLoss(physics.LossInput{
		EngineHP:               tractor.EnginePowerHP,
		AltitudeM:              terr.AltitudeM,
		TemperatureC:           terr.Temperature(),
		TotalWeightKG:          tractor.WeightKG + float64(req.CarriedWeightKG),
		SoilConeIndex:          physics.ConeIndexForSoil(terr.SoilType),
		SlopePct:               terr.SlopePct,
		SpeedKmh:               float64(req.WorkingSpeedKmh),
		SlippagePct:            slippage,
		TransmissionLossFactor: physics.DefaultTransmissionLoss,
	})
	metrics.ComputationDuration.WithLabelValues("power_loss").Observe(time.Since(start).Seconds())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var queryID int64
	if !h.dryRun {
		queryID, err = h.gw.SavePowerLoss(ctx, ident, tractor.TractorID, terr.TerrainID, breakdown)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}

	respondSuccess(w, http.StatusOK, map[string]any{
		"queryId":   queryID,
		"powerLoss": breakdown,
		"tractor":   tractor,
		"terrain":   terr,
	})
}

// MinimumPower handles POST /api/calculations/minimum-power.
func (h *Handlers) MinimumPower(w http.ResponseWriter, r *http.Request) {
	var req guard.MinimumPowerRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.guard.Check(req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Server.PowerLossTimeout())
	defer cancel()
	ident := identityFrom(ctx)

	terr, err := h.guard.TerrainForUser(ctx, int64(req.TerrainID), ident)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	impl, err := h.gw.GetImplement(ctx, int64(req.ImplementID))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	depth := 0.0
	if req.WorkingDepthM != nil {
		depth = float64(*req.WorkingDepthM)
	}
	if depth <= 0 {
		depth = impl.WorkingDepthM()
	}
	if depth <= 0 {
		depth = physics.ReferenceDepthM
	}

	start := time.Now()
	requirement, err := physics.MinimumPower(impl.PowerRequirementHP, terr.SoilType, terr.SlopePct, depth)
	metrics.ComputationDuration.WithLabelValues("minimum_power").Observe(time.Since(start).Seconds())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var queryID int64
	if !h.dryRun {
		queryID, err = h.gw.SaveMinimumPower(ctx, ident, terr.TerrainID, impl.ImplementID, requirement)
		if err != nil {
			h.fail(w, r, err)
			return
		}
	}

	respondSuccess(w, http.StatusOK, map[string]any{
		"queryId":          queryID,
		"powerRequirement": requirement,
		"implement":        impl,
		"terrain":          terr,
	})
}

// GenerateRecommendation handles POST /api/recommendations/generate.
func (h *Handlers) GenerateRecommendation(w http.ResponseWriter, r *http.Request) {
	var req guard.RecommendationRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.guard.Check(req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Server.RecommendationTimeout())
	defer cancel()
	ident := identityFrom(ctx)

	depth := 0.0
	if req.WorkingDepthM != nil {
		depth = float64(*req.WorkingDepthM)
	}

	start := time.Now()
	res, err := h.engine.Recommend(ctx, recommend.Request{
		Ident:              ident,
		TerrainID:          int64(req.TerrainID),
		ImplementID:        int64(req.ImplementID),
		WorkingDepthM:      depth,
		WorkType:           req.WorkType,
		IncludeUnavailable: req.IncludeUnavailable,
	})
	metrics.ComputationDuration.WithLabelValues("recommendation").Observe(time.Since(start).Seconds())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if !h.dryRun && len(res.Recommendations) > 0 {
		queryID, err := h.gw.SaveRecommendation(ctx, ident, res)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		res.QueryID = queryID
	}

	respondSuccess(w, http.StatusOK, res)
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// CalculationsHistory handles GET /api/calculations/history.
func (h *Handlers) CalculationsHistory(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	page, limit := pagination(r)

	result, err := h.gw.ListHistory(r.Context(), ident.UserID, page, limit, r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result)
}

// RecommendationsHistory handles GET /api/recommendations/history.
func (h *Handlers) RecommendationsHistory(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	page, limit := pagination(r)

	result, err := h.gw.ListRecommendations(r.Context(), ident.UserID, page, limit, r.URL.Query().Get("work_type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result)
}

// GetRecommendation handles GET /api/recommendations/{id}.
func (h *Handlers) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, apperr.Validationf("id", "el identificador debe ser un entero positivo"))
		return
	}

	rec, err := h.gw.GetRecommendation(r.Context(), id, identityFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]any{
		"recommendation": rec,
		"observation":    models.DecodeObservation(rec.Observations),
	})
}

// Healthz handles GET /healthz, probing the database.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.gw.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
