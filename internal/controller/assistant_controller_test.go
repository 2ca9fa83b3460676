package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pharmacy-assistant-be/internal/dto"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/internal/pkg/serverutils"
	"pharmacy-assistant-be/internal/repository/memory"
	"pharmacy-assistant-be/internal/service"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInventory struct{}

func (stubInventory) Search(_ context.Context, term string, _ int) ([]inventory.Product, error) {
	if strings.EqualFold(term, "amoxil") {
		return []inventory.Product{{ID: "2", Name: "Amoxil", GenericName: "Amoxicillin", DosageForm: "capsule", Strength: "500mg", CategoryName: "Antibiotics", Stock: 40, Price: 12}}, nil
	}
	return nil, nil
}

func newTestApp(checks map[string]HealthCheck) *fiber.App {
	log := logger.NewNopLogger()
	exec := pipeline.NewExecutor(pipeline.Deps{Inventory: stubInventory{}, Logger: log})
	svc := service.NewAssistantService(exec, memory.NewSessionRepository(time.Minute), nil, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewAssistantController(svc).RegisterRoutes(api)
	NewHealthController(checks).RegisterRoutes(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestQueryEndpoint(t *testing.T) {
	app := newTestApp(nil)

	tests := []struct {
		name     string
		body     string
		status   int
		contains string
	}{
		{"stock check", `{"intent":"stock_check","text":"is Amoxil in stock?"}`, 200, "Amoxil 500mg"},
		{"prescription refusal is 200", `{"intent":"dosage","drugName":"Amoxil","text":"dosage for Amoxil"}`, 200, "physician"},
		{"greeting", `{"intent":"other","text":"hello"}`, 200, `"sources":[]`},
		{"bad intent", `{"intent":"diagnose","text":"hello"}`, 400, "intent"},
		{"bad source", `{"text":"is Amoxil in stock?","sources":["the_internet"]}`, 400, "sources"},
		{"neither text nor drug", `{"intent":"dosage"}`, 400, "text"},
		{"blank text", `{"text":"   "}`, 400, "Either text or drugName"},
		{"malformed body", `{"text":`, 400, "Invalid request body"},
		{"too many recent drugs", `{"text":"aspirin dosage","sessionContext":{"recentDrugs":["a","b","c","d","e","f"]}}`, 400, "recentDrugs"},
		{"oversized recent drug", `{"text":"aspirin dosage","sessionContext":{"recentDrugs":["` + strings.Repeat("w", 121) + `"]}}`, 400, "recentDrugs[0]"},
		{"bounded session context", `{"text":"hello","sessionContext":{"recentDrugs":["warfarin 5mg"]}}`, 200, "response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, "POST", "/api/assistant/v1/query", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, string(body), tt.contains)
		})
	}
}

func TestQueryEnvelopeShape(t *testing.T) {
	app := newTestApp(nil)

	status, body := do(t, app, "POST", "/api/assistant/v1/query", `{"intent":"stock_check","text":"is Amoxil in stock?"}`)
	require.Equal(t, 200, status)

	var env dto.AssistantQueryResponse
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, []string{inventory.SourceLabel}, env.Sources)
	require.NotNil(t, env.SuggestedSessionContext)
	assert.Equal(t, "amoxil", env.SuggestedSessionContext.DrugName())
	assert.NotContains(t, string(body), "internal_db")
}

func TestSessionEndpoints(t *testing.T) {
	app := newTestApp(nil)

	status, body := do(t, app, "POST", "/api/assistant/v1/sessions", "")
	require.Equal(t, 201, status)
	var created serverutils.BaseResponse[dto.SessionResponse]
	require.NoError(t, json.Unmarshal(body, &created))
	id := created.Data.SessionId
	require.NotEmpty(t, id)

	status, _ = do(t, app, "POST", "/api/assistant/v1/query", `{"text":"paracetamol dosage for a child","sessionId":"`+id+`"}`)
	require.Equal(t, 200, status)

	status, body = do(t, app, "GET", "/api/assistant/v1/sessions/"+id, "")
	require.Equal(t, 200, status)
	var got serverutils.BaseResponse[dto.SessionResponse]
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "paracetamol", got.Data.SessionContext.DrugName())

	status, _ = do(t, app, "DELETE", "/api/assistant/v1/sessions/"+id, "")
	assert.Equal(t, 200, status)
	status, _ = do(t, app, "GET", "/api/assistant/v1/sessions/"+id, "")
	assert.Equal(t, 404, status)

	status, _ = do(t, app, "GET", "/api/assistant/v1/sessions/not-a-uuid", "")
	assert.Equal(t, 400, status)
}

func TestHealthEndpoints(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	status, _ := do(t, newTestApp(map[string]HealthCheck{"database": down}), "GET", "/api/healthz", "")
	assert.Equal(t, 200, status)

	status, body := do(t, newTestApp(map[string]HealthCheck{"database": ok, "sessions": ok}), "GET", "/api/readyz", "")
	assert.Equal(t, 200, status)
	assert.Contains(t, string(body), `"status":"ok"`)

	status, body = do(t, newTestApp(map[string]HealthCheck{"database": down, "sessions": ok}), "GET", "/api/readyz", "")
	assert.Equal(t, 503, status)
	assert.Contains(t, string(body), "connection refused")
}
