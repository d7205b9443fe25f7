package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agency_ops/database"
	"agency_ops/lock"
	"agency_ops/models"
	"agency_ops/repository"
	"agency_ops/services"
)

type testEnv struct {
	db  *gorm.DB
	app *fiber.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	commissions := NewCommissionHandler(
		services.NewCommissionService(repository.NewCommissionRepository(db), lock.NewLocalLocker(), nil), nil)
	rules := NewRuleHandler(services.NewRuleService(repository.NewRuleRepository(db), nil, nil), nil)
	metrics := NewMetricHandler(services.NewMetricService(repository.NewMetricRepository(db), nil), nil)

	app := fiber.New()
	app.Post("/api/commissions/calculate", commissions.Calculate)
	app.Get("/api/commissions", commissions.List)
	app.Get("/api/commissions/summary", commissions.Summary)
	app.Get("/api/commission-rules", rules.List)
	app.Get("/api/commission-rules/coverage", rules.Coverage)
	app.Get("/api/commission-rules/:id", rules.Get)
	app.Post("/api/commission-rules", rules.Create)
	app.Put("/api/commission-rules/:id", rules.Update)
	app.Delete("/api/commission-rules/:id", rules.Delete)
	app.Put("/api/commission-rules/:id/activate", rules.Activate)
	app.Put("/api/commission-rules/:id/deactivate", rules.Deactivate)
	app.Put("/api/metrics", metrics.Record)

	return &testEnv{db: db, app: app}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (e *testEnv) seedAgency(t *testing.T) {
	t.Helper()
	manager := "M1"
	require.NoError(t, e.db.Create(&models.TeamMember{ID: "M1", Name: "Marina", Role: "TRAFFIC", IsActive: true}).Error)
	require.NoError(t, e.db.Create(&models.Client{ID: "C1", CompanyName: "Acme Store", TrafficManagerID: &manager}).Error)
	_, err := database.SeedDefaultRules(e.db)
	require.NoError(t, err)
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error
}

func TestCalculateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedAgency(t)

	status, body := env.do(t, http.MethodPut, "/api/metrics", map[string]interface{}{
		"client_id": "C1", "month": "2024-03", "roas": "5.0", "media_spend": 20000, "revenue": 100000,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{"month": "2024-03"})
	require.Equal(t, http.StatusOK, status, string(body))

	var result services.CalculationResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 1, result.Calculated)
	assert.Equal(t, "2024-03", result.Month)
	require.Len(t, result.Commissions, 1)
	assert.True(t, result.Commissions[0].Amount.Equal(decimal.NewFromInt(8000)), "amount = %s", result.Commissions[0].Amount)
	assert.True(t, result.Commissions[0].Percentage.Equal(decimal.NewFromInt(8)))
	require.NotNil(t, result.Commissions[0].TeamMember)
	assert.Equal(t, "Marina", result.Commissions[0].TeamMember.Name)

	// rerun is idempotent
	status, body = env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{"month": "2024-03"})
	require.Equal(t, http.StatusOK, status, string(body))
	var count int64
	require.NoError(t, env.db.Model(&models.Commission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	status, body = env.do(t, http.MethodGet, "/api/commissions?month=2024-03", nil)
	require.Equal(t, http.StatusOK, status)
	var list []models.Commission
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	status, body = env.do(t, http.MethodGet, "/api/commissions/summary?month=2024-03", nil)
	require.Equal(t, http.StatusOK, status)
	var summary services.CommissionSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(8000)))
	require.Len(t, summary.TeamMembers, 1)
}

func TestCalculateEndpoint_Errors(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(t, body), "month is required")

	status, body = env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{"month": "2024-13"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(t, body), "YYYY-MM")

	// valid month, but no rule configured
	status, body = env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{"month": "2024-03"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no active commission rules configured", errorMessage(t, body))

	req := httptest.NewRequest(http.MethodPost, "/api/commissions/calculate", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalculateEndpoint_StoreFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.seedAgency(t)
	require.NoError(t, env.db.Migrator().DropTable(&models.Commission{}))

	status, body := env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{"month": "2024-03"})
	assert.Equal(t, http.StatusOK, status, "no metrics means nothing to write")

	require.NoError(t, env.db.Create(&models.ClientMetric{
		ClientID: "C1", Month: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Roas: decimal.NewFromInt(5), MediaSpend: decimal.NewFromInt(1), Revenue: decimal.NewFromInt(10),
	}).Error)

	status, body = env.do(t, http.MethodPost, "/api/commissions/calculate", map[string]string{"month": "2024-03"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", errorMessage(t, body))
}

func TestRuleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/commission-rules", map[string]interface{}{
		"name": "Level 1", "min_roas": 3, "max_roas": 5, "percentage": 5,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		Data models.CommissionRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	id := created.Data.ID
	assert.True(t, created.Data.IsActive)

	status, body = env.do(t, http.MethodPost, "/api/commission-rules", map[string]interface{}{
		"name": "Broken", "min_roas": 5, "max_roas": 3, "percentage": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.ErrMaxRoasNotAboveMin.Error(), errorMessage(t, body))

	status, _ = env.do(t, http.MethodPut, "/api/commission-rules/"+id+"/deactivate", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/commission-rules?active=true", nil)
	require.Equal(t, http.StatusOK, status)
	var listed struct {
		Data []models.CommissionRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Empty(t, listed.Data)

	status, _ = env.do(t, http.MethodPut, "/api/commission-rules/"+id+"/activate", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/commission-rules/coverage", nil)
	require.Equal(t, http.StatusOK, status)
	var coverage services.TierCoverage
	require.NoError(t, json.Unmarshal(body, &coverage))
	assert.Equal(t, 1, coverage.RuleCount)
	assert.False(t, coverage.StartsAtZero)
	assert.False(t, coverage.Complete)

	status, _ = env.do(t, http.MethodPut, "/api/commission-rules/"+id, map[string]interface{}{
		"name": "Level 1", "min_roas": 0, "percentage": 6,
	})
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/commission-rules/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Data models.CommissionRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Nil(t, got.Data.MaxRoas)
	assert.True(t, got.Data.Percentage.Equal(decimal.NewFromInt(6)))

	status, _ = env.do(t, http.MethodDelete, "/api/commission-rules/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
	status, body = env.do(t, http.MethodGet, "/api/commission-rules/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "commission rule not found", errorMessage(t, body))
}

func TestMetricEndpoint_Errors(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPut, "/api/metrics", map[string]interface{}{"month": "2024-03"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.do(t, http.MethodPut, "/api/metrics", map[string]interface{}{"client_id": "ghost", "month": "2024-03"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "client not found", errorMessage(t, body))
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	app := fiber.New()
	app.Get("/health", NewHealthHandler(env.db, client).Check)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload.Status)
	assert.Equal(t, map[string]string{"database": "up", "redis": "up"}, payload.Checks)

	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { down.Close() })
	app.Get("/health-down", NewHealthHandler(env.db, down).Check)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health-down", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
