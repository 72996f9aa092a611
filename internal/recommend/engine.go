package recommend

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/config"
	"github.com/softcane/agropower/internal/metrics"
	"github.com/softcane/agropower/internal/models"
	"github.com/softcane/agropower/internal/physics"
	"github.com/softcane/agropower/internal/terrain"
)

// MaxRanked is how many candidates the response carries.
const MaxRanked = 5

// Catalog is the read side the engine pulls implements and tractors from.
type Catalog interface {
	GetImplement(ctx context.Context, id int64) (*models.Implement, error)
	ListTractors(ctx context.Context) ([]models.Tractor, error)
}

// TerrainAccess resolves a terrain while enforcing ownership.
type TerrainAccess interface {
	TerrainForUser(ctx context.Context, terrainID int64, ident auth.Identity) (*models.Terrain, error)
}

// PolicyLoader supplies the current runtime scoring policy.
type PolicyLoader func() *config.RuntimePolicy

// Engine composes power requirement, terrain analysis, filtering and
// scoring into a ranked recommendation.
type Engine struct {
	catalog  Catalog
	terrains TerrainAccess
	policy   PolicyLoader
	logger   *slog.Logger
}

// NewEngine creates a recommendation engine.
func NewEngine(catalog Catalog, terrains TerrainAccess, policy PolicyLoader, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = config.DefaultRuntimePolicy
	}
	return &Engine{catalog: catalog, terrains: terrains, policy: policy, logger: logger}
}

// Request is one recommendation request after guard validation.
type Request struct {
	Ident              auth.Identity
	TerrainID          int64
	ImplementID        int64
	WorkingDepthM      float64 // 0 when unset
	WorkType           string
	IncludeUnavailable bool
}

// RankedCandidate is one scored tractor in the response.
type RankedCandidate struct {
	Rank        int            `json:"rank"`
	Tractor     models.Tractor `json:"tractor"`
	Score       Score          `json:"score"`
	Explanation string         `json:"explanation"`
}

// Summary aggregates the outcome of one request.
type Summary struct {
	TopScore        float64 `json:"topScore"`
	TopTractor      string  `json:"topTractor,omitempty"`
	TotalCandidates int     `json:"totalCandidates"`
	CompatibleCount int     `json:"compatibleCount"`
	PersistedCount  int     `json:"persistedCount"`
	Reason          string  `json:"reason,omitempty"`
}

// Result is the structured recommendation outcome. QueryID is filled
// in after persistence.
type Result struct {
	QueryID          int64                     `json:"queryId"`
	WorkType         string                    `json:"work_type"`
	Implement        *models.Implement         `json:"implement"`
	Terrain          *models.Terrain           `json:"terrain"`
	Analysis         terrain.Analysis          `json:"analysis"`
	PowerRequirement *physics.PowerRequirement `json:"powerRequirement"`
	Recommendations  []RankedCandidate         `json:"recommendations"`
	Summary          Summary                   `json:"summary"`

	// PersistLimit is how many top candidates the gateway writes.
	PersistLimit int `json:"-"`
}

// Observations builds the typed snapshots persisted with the query,
// one per candidate up to the persist limit.
func (r *Result) Observations() []models.Observation {
	limit := min(r.PersistLimit, len(r.Recommendations))
	obs := make([]models.Observation, 0, limit)
	for _, rc := range r.Recommendations[:limit] {
		obs = append(obs, models.Observation{
			Rank: rc.Rank,
			Score: models.ObservationScore{
				Total:     rc.Score.Total,
				Breakdown: rc.Score.Breakdown,
			},
			Compatibility:  rc.Score.Total,
			Classification: rc.Score.Classification,
			Explanation:    rc.Explanation,
			Snapshot: models.ObservationSnapshot{
				TractorName:        rc.Tractor.Name,
				EnginePowerHP:      rc.Tractor.EnginePowerHP,
				TractionType:       models.NormalizeTraction(rc.Tractor.TractionType),
				RequiredHP:         r.PowerRequirement.MinimumHP,
				SlopeClass:         string(r.Analysis.SlopeClass),
				CombinedDifficulty: r.Analysis.CombinedDifficulty,
			},
		})
	}
	return obs
}

// Recommend runs the full pipeline. Terrain, implement and the tractor
// catalog are fetched in parallel; everything after that is pure
// computation.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	var (
		terr     *models.Terrain
		impl     *models.Implement
		tractors []models.Tractor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := e.terrains.TerrainForUser(gctx, req.TerrainID, req.Ident)
		terr = t
		return err
	})
	g.Go(func() error {
		i, err := e.catalog.GetImplement(gctx, req.ImplementID)
		impl = i
		return err
	})
	g.Go(func() error {
		ts, err := e.catalog.ListTractors(gctx)
		tractors = ts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	depth := req.WorkingDepthM
	if depth <= 0 {
		depth = impl.WorkingDepthM()
	}
	if depth <= 0 {
		depth = physics.ReferenceDepthM
	}

	requirement, err := physics.MinimumPower(impl.PowerRequirementHP, terr.SoilType, terr.SlopePct, depth)
	if err != nil {
		return nil, err
	}

	an := terrain.Analyze(terr.SoilType, terr.SlopePct)

	outcome := FilterCandidates(tractors, requirement.MinimumHP, an, FilterOptions{
		IncludeUnavailable: req.IncludeUnavailable,
	})
	metrics.CandidatesFiltered.WithLabelValues("power").Add(float64(outcome.EliminatedByPower))
	metrics.CandidatesFiltered.WithLabelValues("safety").Add(float64(outcome.EliminatedBySafety))
	metrics.CandidatesFiltered.WithLabelValues("availability").Add(float64(outcome.EliminatedByAvailability))

	policy := e.policy()
	result := &Result{
		WorkType:         normalizeWorkType(req.WorkType),
		Implement:        impl,
		Terrain:          terr,
		Analysis:         an,
		PowerRequirement: requirement,
		PersistLimit:     policy.MaxPersisted,
		Summary: Summary{
			TotalCandidates: len(tractors),
			CompatibleCount: len(outcome.Candidates),
		},
	}

	if len(outcome.Candidates) == 0 {
		result.Recommendations = []RankedCandidate{}
		result.Summary.Reason = outcome.EliminationReason(len(tractors))
		e.logger.Info("no compatible tractors",
			"terrain_id", req.TerrainID,
			"implement_id", req.ImplementID,
			"required_hp", requirement.MinimumHP,
			"reason", result.Summary.Reason,
		)
		return result, nil
	}

	sp := NewScoringPolicy(policy, result.WorkType, e.logger)
	ranked := make([]RankedCandidate, 0, len(outcome.Candidates))
	for _, tr := range outcome.Candidates {
		score := sp.ScoreCandidate(tr, requirement.MinimumHP, an, e.logger)
		ranked = append(ranked, RankedCandidate{Tractor: tr, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if a.Score.Breakdown.Efficiency != b.Score.Breakdown.Efficiency {
			return a.Score.Breakdown.Efficiency > b.Score.Breakdown.Efficiency
		}
		if a.Score.Breakdown.Availability != b.Score.Breakdown.Availability {
			return a.Score.Breakdown.Availability > b.Score.Breakdown.Availability
		}
		return a.Tractor.TractorID < b.Tractor.TractorID
	})

	if len(ranked) > MaxRanked {
		ranked = ranked[:MaxRanked]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].Explanation = Explain(ranked[i].Tractor.Name, ranked[i].Score)
		metrics.CompatibilityScore.WithLabelValues(result.WorkType).Observe(ranked[i].Score.Total)
	}

	result.Recommendations = ranked
	result.Summary.TopScore = ranked[0].Score.Total
	result.Summary.TopTractor = ranked[0].Tractor.Name
	result.Summary.PersistedCount = min(policy.MaxPersisted, len(ranked))

	return result, nil
}

func normalizeWorkType(wt string) string {
	for _, known := range models.WorkTypes {
		if wt == known {
			return wt
		}
	}
	return "general"
}
