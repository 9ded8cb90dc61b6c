package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamhq/vivah/internal/metrics"
	"github.com/sangamhq/vivah/pkg/adapters/memory"
	"github.com/sangamhq/vivah/pkg/registry"
	"github.com/sangamhq/vivah/pkg/session"
	"github.com/sangamhq/vivah/pkg/wizard"
)

func newTestServer(t *testing.T) (http.Handler, *memory.Backend) {
	t.Helper()
	backend := memory.NewBackend()
	sessions := session.NewManager(registry.Matrimonial(), memory.NewStore(),
		session.WithControllerOptions(wizard.WithBackend(backend.Services())))
	return NewHandler(sessions, nil, nil), backend
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func accountBody() SubmitRequest {
	return SubmitRequest{
		StepIndex: 1,
		Values: map[string]any{
			"name":             "Asha Kulkarni",
			"phone":            "9876543210",
			"email":            "asha@example.com",
			"gender":           "Female",
			"password":         "s3cret-password",
			"confirm_password": "s3cret-password",
		},
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefdata(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/refdata/states", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	states := decode[map[string][]string](t, rec)
	assert.Contains(t, states["states"], "Goa")

	rec = doJSON(t, h, http.MethodGet, "/v1/refdata/states/Goa/districts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	districts := decode[map[string][]string](t, rec)
	assert.Contains(t, districts["districts"], "North Goa")

	rec = doJSON(t, h, http.MethodGet, "/v1/refdata/states/Goa/districts/North%20Goa/cities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cities := decode[map[string][]string](t, rec)
	assert.Contains(t, cities["cities"], "Panaji")

	rec = doJSON(t, h, http.MethodGet, "/v1/refdata/states/Atlantis/districts", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/refdata/states/Goa/districts/Pune/cities", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/refdata/enums", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	enums := decode[map[string][]string](t, rec)
	assert.Contains(t, enums["genders"], "Female")
	assert.Contains(t, enums["marital_statuses"], "Never Married")
}

func TestGetWizard_Fresh(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/wizards/w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[WizardResponse](t, rec)
	assert.Equal(t, "w1", resp.WizardID)
	assert.Equal(t, 1, resp.StepIndex)
	assert.Equal(t, 4, resp.TotalSteps)
	assert.Equal(t, "account", resp.StepName)
	assert.Contains(t, resp.StepFields, "email")
	assert.False(t, resp.Complete)
}

func TestSubmit_Success(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/wizards/w1/submit", accountBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[WizardResponse](t, rec)
	assert.Equal(t, 2, resp.StepIndex)
	assert.Equal(t, "personal", resp.StepName)
	assert.NotEmpty(t, resp.Fields["account_id"])
	assert.NotContains(t, resp.Fields, "password")
}

func TestSubmit_ValidationError(t *testing.T) {
	h, _ := newTestServer(t)

	body := accountBody()
	body.Values["phone"] = "123"
	rec := doJSON(t, h, http.MethodPost, "/v1/wizards/w1/submit", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "phone", resp.Fields[0].Field)
}

func TestSubmit_Conflict(t *testing.T) {
	h, backend := newTestServer(t)

	_, err := backend.CreateAccount(context.Background(),
		registry.AccountID("asha@example.com"), "asha@example.com", "other-password", "Someone Else")
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/v1/wizards/w1/submit", accountBody())
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	assert.Contains(t, resp.Error, "already registered")
}

func TestSubmit_WrongStepIndex(t *testing.T) {
	h, _ := newTestServer(t)

	body := accountBody()
	body.StepIndex = 3
	rec := doJSON(t, h, http.MethodPost, "/v1/wizards/w1/submit", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit_InvalidBody(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/wizards/w1/submit", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackAndReset(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/wizards/w1/submit", accountBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/wizards/w1/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[WizardResponse](t, rec)
	assert.Equal(t, 1, resp.StepIndex)
	// Answers survive back-navigation for re-display.
	assert.Equal(t, "Asha Kulkarni", resp.Fields["name"])

	rec = doJSON(t, h, http.MethodPost, "/v1/wizards/w1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[WizardResponse](t, rec)
	assert.Equal(t, 1, resp.StepIndex)
	assert.Empty(t, resp.Fields)
}

func TestActiveWizardsGauge(t *testing.T) {
	backend := memory.NewBackend()
	sessions := session.NewManager(registry.Matrimonial(), memory.NewStore(),
		session.WithControllerOptions(wizard.WithBackend(backend.Services())))
	m := metrics.New()
	h := NewHandler(sessions, nil, m)

	rec := doJSON(t, h, http.MethodPost, "/v1/wizards/w1/submit", accountBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveWizards))

	// Reset clears the only snapshot, so the gauge drops back to zero.
	rec = doJSON(t, h, http.MethodPost, "/v1/wizards/w1/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveWizards))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/wizards/w1/submit", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
