package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/softcane/agropower/internal/apperr"
	"github.com/softcane/agropower/internal/auth"
	"github.com/softcane/agropower/internal/config"
	"github.com/softcane/agropower/internal/guard"
	"github.com/softcane/agropower/internal/models"
	"github.com/softcane/agropower/internal/physics"
	"github.com/softcane/agropower/internal/recommend"
	"github.com/softcane/agropower/internal/store"
)

type fakeGateway struct {
	terrains   map[int64]*models.Terrain
	tractors   map[int64]*models.Tractor
	implements map[int64]*models.Implement

	savedPowerLoss      int
	savedRecommendation int
	lastResult          *recommend.Result
}

func (f *fakeGateway) GetTerrain(_ context.Context, id int64) (*models.Terrain, error) {
	if t, ok := f.terrains[id]; ok {
		return t, nil
	}
	return nil, apperr.NotFoundf("Terreno no encontrado o no accesible")
}

func (f *fakeGateway) GetTractor(_ context.Context, id int64) (*models.Tractor, error) {
	if t, ok := f.tractors[id]; ok {
		return t, nil
	}
	return nil, apperr.NotFoundf("Tractor no encontrado")
}

func (f *fakeGateway) GetImplement(_ context.Context, id int64) (*models.Implement, error) {
	if im, ok := f.implements[id]; ok {
		return im, nil
	}
	return nil, apperr.NotFoundf("Implemento no encontrado")
}

func (f *fakeGateway) ListTractors(_ context.Context) ([]models.Tractor, error) {
	var out []models.Tractor
	for _, t := range f.tractors {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeGateway) SaveRecommendation(_ context.Context, _ auth.Identity, res *recommend.Result) (int64, error) {
	f.savedRecommendation++
	f.lastResult = res
	return 42, nil
}

func (f *fakeGateway) SavePowerLoss(_ context.Context, _ auth.Identity, _, _ int64, _ *physics.LossBreakdown) (int64, error) {
	f.savedPowerLoss++
	return 43, nil
}

func (f *fakeGateway) SaveMinimumPower(_ context.Context, _ auth.Identity, _, _ int64, _ *physics.PowerRequirement) (int64, error) {
	return 44, nil
}

func (f *fakeGateway) ListHistory(_ context.Context, _ int64, page, limit int, _ string) (*store.Page[models.QueryHistory], error) {
	return &store.Page[models.QueryHistory]{Items: []models.QueryHistory{}, Page: 1, Limit: 10}, nil
}

func (f *fakeGateway) ListRecommendations(_ context.Context, _ int64, page, limit int, _ string) (*store.Page[models.Recommendation], error) {
	return &store.Page[models.Recommendation]{Items: []models.Recommendation{}, Page: 1, Limit: 10}, nil
}

func (f *fakeGateway) GetRecommendation(_ context.Context, id int64, ident auth.Identity) (*models.Recommendation, error) {
	if id != 5 {
		return nil, apperr.NotFoundf("Recomendación no encontrada")
	}
	if ident.UserID != 10 && !ident.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "No tiene acceso a esta recomendación")
	}
	return &models.Recommendation{RecommendationID: 5, UserID: 10, CompatibilityScore: 90}, nil
}

func (f *fakeGateway) Ping(_ context.Context) error { return nil }

type testServer struct {
	handler http.Handler
	signer  *auth.Signer
	gw      *fakeGateway
}

func newTestServer(t *testing.T, dryRun bool) *testServer {
	t.Helper()

	gw := &fakeGateway{
		terrains: map[int64]*models.Terrain{
			7: {TerrainID: 7, OwnerUserID: 10, Name: "Lote Norte", AltitudeM: 1500, SlopePct: 12, SoilType: "clay", Status: "active"},
			8: {TerrainID: 8, OwnerUserID: 20, Name: "Ajeno", SoilType: "loam", Status: "active"},
		},
		tractors: map[int64]*models.Tractor{
			1: {TractorID: 1, Name: "JD 6100", EnginePowerHP: 150, WeightKG: 4000, TractionType: "4x4", Status: models.StatusAvailable},
		},
		implements: map[int64]*models.Implement{
			4: {ImplementID: 4, ImplementName: "Arado", PowerRequirementHP: 80, Status: "active"},
		},
	}

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080, RecommendationTimeoutSeconds: 15, PowerLossTimeoutSeconds: 10},
		RunMode: config.RunModeProduction,
	}

	signer, err := auth.NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g := guard.New(gw)
	engine := recommend.NewEngine(gw, g, config.DefaultRuntimePolicy, logger)
	h := NewHandlers(gw, g, engine, cfg, logger, dryRun)

	return &testServer{handler: NewRouter(h, signer, cfg, logger), signer: signer, gw: gw}
}

func (ts *testServer) request(t *testing.T, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		token, err := ts.signer.Mint(userID, auth.RoleStandard)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestUnauthenticatedRequests(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.request(t, http.MethodPost, "/api/calculations/power-loss", `{}`, 0)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env["success"] != false {
		t.Errorf("success flag should be false")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calculations/history", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec2 := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Errorf("bad token status: got %d, want 401", rec2.Code)
	}
}

func TestPowerLossEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.request(t, http.MethodPost, "/api/calculations/power-loss",
		`{"tractor_id":1,"terrain_id":7,"working_speed_kmh":8,"carried_objects_weight_kg":0}`, 10)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d\n%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data := env["data"].(map[string]any)
	if data["queryId"] != float64(43) {
		t.Errorf("queryId: got %v, want 43", data["queryId"])
	}
	pl := data["powerLoss"].(map[string]any)
	total := pl["total_hp"].(float64)
	sum := pl["slope_hp"].(float64) + pl["altitude_hp"].(float64) + pl["temperature_hp"].(float64) +
		pl["rolling_resistance_hp"].(float64) + pl["slippage_hp"].(float64) + pl["transmission_hp"].(float64)
	if diff := total - sum; diff > 0.011 || diff < -0.011 {
		t.Errorf("loss components do not sum to total: %v vs %v", sum, total)
	}
	if ts.gw.savedPowerLoss != 1 {
		t.Errorf("persistence calls: got %d, want 1", ts.gw.savedPowerLoss)
	}
}

func TestPowerLossValidationBoundaries(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.request(t, http.MethodPost, "/api/calculations/power-loss",
		`{"tractor_id":1,"terrain_id":7,"working_speed_kmh":40,"carried_objects_weight_kg":0}`, 10)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("speed 40 status: got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "menor a 40") {
		t.Errorf("speed message should contain 'menor a 40': %s", rec.Body.String())
	}

	rec = ts.request(t, http.MethodPost, "/api/calculations/power-loss",
		`{"tractor_id":1,"terrain_id":7,"working_speed_kmh":39.9,"carried_objects_weight_kg":0}`, 10)
	if rec.Code != http.StatusOK {
		t.Errorf("speed 39.9 status: got %d, want 200\n%s", rec.Code, rec.Body.String())
	}
}

func TestOwnershipUniformity(t *testing.T) {
	ts := newTestServer(t, false)

	// terrain 8 belongs to user 20; terrain 99999999 does not exist.
	// User 10 gets byte-identical denials for both.
	bodies := make([]string, 0, 2)
	for _, terrainID := range []string{"8", "99999999"} {
		rec := ts.request(t, http.MethodPost, "/api/calculations/power-loss",
			`{"tractor_id":1,"terrain_id":`+terrainID+`,"working_speed_kmh":8,"carried_objects_weight_kg":0}`, 10)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("terrain %s status: got %d, want 404", terrainID, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env["message"] != "Terreno no encontrado o no accesible" {
			t.Errorf("terrain %s message: got %v", terrainID, env["message"])
		}
		bodies = append(bodies, rec.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Errorf("denial shapes differ:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestMinimumPowerEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.request(t, http.MethodPost, "/api/calculations/minimum-power",
		`{"implement_id":4,"terrain_id":7,"working_depth_m":0.30}`, 10)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d\n%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data := env["data"].(map[string]any)
	pr := data["powerRequirement"].(map[string]any)
	// base 80 · clay 1.3 · slope 1.06 · depth 1.2 · margin 1.15
	if got := pr["minimum_power_hp"].(float64); got < 150 || got > 155 {
		t.Errorf("minimum_power_hp out of expected range: %v", got)
	}
	if data["queryId"] != float64(44) {
		t.Errorf("queryId: got %v, want 44", data["queryId"])
	}

	rec = ts.request(t, http.MethodPost, "/api/calculations/minimum-power",
		`{"implement_id":4,"terrain_id":7,"working_depth_m":1.5}`, 10)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("depth 1.5 status: got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1.0") {
		t.Errorf("depth message should reference the 1.0 limit: %s", rec.Body.String())
	}
}

func TestGenerateRecommendationEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.request(t, http.MethodPost, "/api/recommendations/generate",
		`{"terrain_id":7,"implement_id":4,"work_type":"tillage"}`, 10)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d\n%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	data := env["data"].(map[string]any)
	if data["queryId"] == float64(0) {
		t.Error("persisted result should carry a query id")
	}
	recs := data["recommendations"].([]any)
	if len(recs) != 1 {
		t.Fatalf("recommendations: got %d, want 1", len(recs))
	}
	first := recs[0].(map[string]any)
	if first["rank"] != float64(1) || first["explanation"] == "" {
		t.Errorf("first candidate incomplete: %v", first)
	}
	if ts.gw.savedRecommendation != 1 {
		t.Errorf("persistence calls: got %d, want 1", ts.gw.savedRecommendation)
	}
}

func TestDryRunSkipsPersistence(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.request(t, http.MethodPost, "/api/calculations/power-loss",
		`{"tractor_id":1,"terrain_id":7,"working_speed_kmh":8,"carried_objects_weight_kg":0}`, 10)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d\n%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env["data"].(map[string]any)["queryId"] != float64(0) {
		t.Error("dry run should answer queryId 0")
	}
	if ts.gw.savedPowerLoss != 0 {
		t.Errorf("dry run persisted %d times", ts.gw.savedPowerLoss)
	}
}

func TestGetRecommendationOwnership(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.request(t, http.MethodGet, "/api/recommendations/5", "", 10)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status: got %d\n%s", rec.Code, rec.Body.String())
	}

	rec = ts.request(t, http.MethodGet, "/api/recommendations/5", "", 99)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger status: got %d, want 403", rec.Code)
	}

	rec = ts.request(t, http.MethodGet, "/api/recommendations/404", "", 10)
	if rec.Code != http.StatusNotFound {
		t.Errorf("absent status: got %d, want 404", rec.Code)
	}

	rec = ts.request(t, http.MethodGet, "/api/recommendations/abc", "", 10)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status: got %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, false)
	rec := ts.request(t, http.MethodGet, "/healthz", "", 0)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", rec.Code)
	}
}
