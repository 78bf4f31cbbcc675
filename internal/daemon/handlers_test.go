package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mackenziebowes/CanadaSpends/internal/breakdown"
	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestService(t, Config{})
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestService(t, Config{})
	const id = "0b5a8f3c-2e44-4c4e-9a59-1a0a1d3e6c11"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestTaxEndpoint(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/tax?income=100000&province=Alberta")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[TaxResponse](t, rec)
	assert.Equal(t, tax.ProvinceAlberta, got.Province)
	assert.False(t, got.Fallback)
	assert.InDelta(t, tax.TotalTax(100000, "alberta").TotalTax, got.TotalTax, 1e-6)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	rec = get(t, s.Handler(), "/v1/tax?income=100000&province=alberta")
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
}

func TestTaxEndpointFallsBackToOntario(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/tax?income=50000&province=quebec")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[TaxResponse](t, rec)
	assert.True(t, got.Fallback)
	assert.Equal(t, tax.ProvinceOntario, got.Province)
	assert.InDelta(t, tax.TotalTax(50000, "ontario").TotalTax, got.TotalTax, 1e-6)
}

func TestTaxEndpointUsesConfiguredDefaults(t *testing.T) {
	s := newTestService(t, Config{Province: "alberta", Income: 75000})

	got := decode[TaxResponse](t, get(t, s.Handler(), "/v1/tax"))
	assert.Equal(t, tax.ProvinceAlberta, got.Province)
	assert.Equal(t, 75000.0, got.GrossIncome)
}

func TestTaxEndpointRejectsBadIncome(t *testing.T) {
	s := newTestService(t, Config{})

	for _, q := range []string{"-5", "abc", "NaN", "Inf"} {
		rec := get(t, s.Handler(), "/v1/tax?income="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "income", q)
	}
}

func TestBreakdownEndpoint(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/breakdown?income=100000&province=ontario")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[breakdown.Breakdown](t, rec)

	want, err := breakdown.CalculateForIncome(100000, "ontario", breakdown.DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, want.Province, got.Province)
	assert.InDelta(t, want.TransferAmount, got.TransferAmount, 1e-6)
	assert.Len(t, got.CombinedChartData, len(want.CombinedChartData))
	assert.InDelta(t, got.TaxCalculation.TotalTax, breakdown.Sum(got.CombinedSpending), 1e-6)
}

func TestBreakdownEndpointCombined(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/breakdown?income=60000&province=alberta&combined=true&threshold=0")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]breakdown.SpendingCategory](t, rec)
	require.NotEmpty(t, got)

	// Other always comes last, whatever its size.
	last := len(got) - 1
	assert.Equal(t, breakdown.OtherCategory, got[last].Name)
	for i := 1; i < last; i++ {
		assert.GreaterOrEqual(t, got[i-1].Amount, got[i].Amount, got[i].Name)
	}
}

func TestBreakdownEndpointErrors(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/breakdown?province=quebec")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "quebec")

	rec = get(t, s.Handler(), "/v1/breakdown?combined=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s.Handler(), "/v1/breakdown?threshold=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBudgetEndpoint(t *testing.T) {
	s := newTestService(t, Config{Live: true})

	rec := get(t, s.Handler(), "/v1/budget?reduction=Health:5")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "spending_data")
	assert.Contains(t, raw, "revenue_data")

	got := decode[BudgetResponse](t, rec)
	assert.Equal(t, 5.0, got.Reductions[budget.CategoryHealth])
	assert.Equal(t, 0.0, got.Reductions[budget.CategoryPublicSafety])

	want := budget.Summarize(budget.FederalSpending(), budget.FederalRevenue(), got.Reductions)
	assert.InDelta(t, want.Spending, got.Spending, 1e-6)
	assert.InDelta(t, want.Deficit, got.Deficit, 1e-6)
}

func TestBudgetEndpointWithoutTrees(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/budget?trees=false&live=false")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "spending_data")
	assert.NotContains(t, raw, "revenue_data")

	got := decode[BudgetResponse](t, rec)
	assert.Equal(t, budget.DefaultPreliminaryReduction, got.Reductions[budget.CategoryHealth])
}

func TestBudgetEndpointRejectsInvalidReduction(t *testing.T) {
	s := newTestService(t, Config{})

	for _, q := range []string{"reduction=Health:20", "reduction=Nowhere:5", "reduction=Health:2.3", "live=sometimes"} {
		rec := get(t, s.Handler(), "/v1/budget?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestJurisdictionsEndpoint(t *testing.T) {
	s := newTestService(t, Config{})

	got := decode[[]model.JurisdictionStats](t, get(t, s.Handler(), "/v1/jurisdictions"))
	assert.Empty(t, got)

	s.pollOnce(context.Background())

	got = decode[[]model.JurisdictionStats](t, get(t, s.Handler(), "/v1/jurisdictions"))
	assert.Len(t, got, 4)

	got = decode[[]model.JurisdictionStats](t, get(t, s.Handler(), "/v1/jurisdictions?province=Ontario"))
	assert.Len(t, got, 3)

	got = decode[[]model.JurisdictionStats](t, get(t, s.Handler(), "/v1/jurisdictions?kind=municipal"))
	require.Len(t, got, 2)
	assert.Equal(t, "municipal", got[0].Kind)
}

func TestJurisdictionEndpoint(t *testing.T) {
	s := newTestService(t, Config{})

	rec := get(t, s.Handler(), "/v1/jurisdictions/ontario")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[JurisdictionResponse](t, rec)
	assert.Equal(t, "Ontario", got.Jurisdiction.Name)
	require.Len(t, got.Departments, 2)
	assert.Equal(t, "health", got.Departments[0].Slug)
	assert.InDelta(t, 68.0, got.Departments[0].SharePercent, 1e-9)

	rec = get(t, s.Handler(), "/v1/jurisdictions/ontario/toronto")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[JurisdictionResponse](t, rec)
	assert.Equal(t, "Toronto", got.Jurisdiction.Name)
	assert.Empty(t, got.Departments)

	rec = get(t, s.Handler(), "/v1/jurisdictions/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJurisdictionEndpointBudget(t *testing.T) {
	s := newTestService(t, Config{})

	got := decode[JurisdictionResponse](t, get(t, s.Handler(), "/v1/jurisdictions/ontario"))
	assert.Nil(t, got.Budget)

	rec := get(t, s.Handler(), "/v1/jurisdictions/ontario?budget=true")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[JurisdictionResponse](t, rec)
	require.NotNil(t, got.Budget)
	assert.InDelta(t, 12.0, got.Budget.Spending, 1e-9)
	assert.InDelta(t, 10.0, got.Budget.Revenue, 1e-9)
	assert.InDelta(t, 2.0, got.Budget.Deficit, 1e-9)

	// Sankey names fall into the Other category.
	rec = get(t, s.Handler(), "/v1/jurisdictions/ontario?budget=true&reduction=Other+Federal+Programs:10")
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[JurisdictionResponse](t, rec)
	require.NotNil(t, got.Budget)
	assert.InDelta(t, 10.8, got.Budget.Spending, 1e-9)

	rec = get(t, s.Handler(), "/v1/jurisdictions/ontario?budget=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusAndEventsEndpoints(t *testing.T) {
	s := newTestService(t, Config{})
	s.pollOnce(context.Background())

	st := decode[Status](t, get(t, s.Handler(), "/v1/status"))
	assert.Equal(t, 4, st.Summary.Jurisdictions)
	assert.Equal(t, int64(1), st.PollCount)
	assert.Equal(t, 10, st.PollIntervalSec)

	events := decode[[]Event](t, get(t, s.Handler(), "/v1/events"))
	require.Len(t, events, 1)
	assert.Equal(t, "snapshot", events[0].Type)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestService(t, Config{RateLimit: 2})

	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/healthz").Code)

	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decode[map[string]string](t, rec)["error"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(breakdown.ErrUnsupportedProvince))
	assert.Equal(t, http.StatusBadRequest, statusFor(budget.ErrInvalidReduction))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
