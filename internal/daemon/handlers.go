package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mackenziebowes/CanadaSpends/internal/breakdown"
	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
	"github.com/mackenziebowes/CanadaSpends/internal/tax"
)

// errBadRequest marks query parameter errors.
var errBadRequest = errors.New("bad request")

// TaxResponse is served at /v1/tax. Fallback is set when the requested
// province is not modeled and Ontario rates were used.
type TaxResponse struct {
	Province tax.Province `json:"province"`
	Fallback bool         `json:"fallback"`
	tax.Calculation
}

// BudgetResponse is served at /v1/budget. The trees are omitted with trees=false.
type BudgetResponse struct {
	budget.Summary
	Reductions   budget.Reductions `json:"reductions"`
	SpendingData *budget.Node      `json:"spending_data,omitempty"`
	RevenueData  *budget.Node      `json:"revenue_data,omitempty"`
}

// JurisdictionResponse is served at /v1/jurisdictions/{slug}.
type JurisdictionResponse struct {
	source.Data
	Departments []model.DepartmentStats `json:"departments"`
	Budget      *budget.Summary         `json:"budget,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, breakdown.ErrUnsupportedProvince),
		errors.Is(err, budget.ErrInvalidReduction):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrJurisdictionNotFound),
		errors.Is(err, source.ErrDepartmentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

// cached serves key from the response cache, or computes, stores and
// serves the value returned by compute.
func (s *Service) cached(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	if body, ok := s.cache.Get(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		_, _ = w.Write([]byte(body))
		return
	}

	v, err := compute()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data = append(data, '\n')
	if err := s.cache.Set(r.Context(), key, string(data), s.cfg.CacheTTL); err != nil {
		s.logger.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(data)
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative number", errBadRequest, name)
	}
	return v, nil
}

func boolParam(q url.Values, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", errBadRequest, name)
	}
	return v, nil
}

func (s *Service) province(q url.Values) string {
	if p := strings.ToLower(strings.TrimSpace(q.Get("province"))); p != "" {
		return p
	}
	return s.cfg.Province
}

func (s *Service) income(q url.Values) (float64, error) {
	return floatParam(q, "income", s.cfg.Income)
}

func (s *Service) handleTax(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	income, err := s.income(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	province := s.province(q)

	key := fmt.Sprintf("tax:%s:%.2f", province, income)
	s.cached(w, r, key, func() (any, error) {
		p, ok := tax.ParseProvince(province)
		if !ok {
			p = tax.ProvinceOntario
		}
		return TaxResponse{
			Province:    p,
			Fallback:    !ok,
			Calculation: tax.TotalTax(income, province),
		}, nil
	})
}

func (s *Service) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	income, err := s.income(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	threshold, err := floatParam(q, "threshold", s.cfg.Threshold)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	combined, err := boolParam(q, "combined", false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	province := s.province(q)

	key := fmt.Sprintf("breakdown:%s:%.2f:%.2f:%t", province, income, threshold, combined)
	s.cached(w, r, key, func() (any, error) {
		b, err := breakdown.CalculateForIncome(income, province, threshold)
		if err != nil {
			return nil, err
		}
		if combined {
			return b.CombinedSpending, nil
		}
		return b, nil
	})
}

// reductionsFor resolves the reductions for a budget request: the configured
// defaults, or the defaults for the requested live state, overlaid with any
// reduction parameters.
func (s *Service) reductionsFor(q url.Values) (budget.Reductions, error) {
	base := s.cfg.Reductions.Clone()
	if q.Has("live") {
		live, err := boolParam(q, "live", s.cfg.Live)
		if err != nil {
			return nil, err
		}
		base = budget.DefaultReductions(live)
	}

	overrides, err := budget.ParseReductions(q["reduction"])
	if err != nil {
		return nil, err
	}
	merged := base.Merge(overrides)
	return merged, merged.Validate()
}

// reductionsKey renders r in category order for use in cache keys.
func reductionsKey(r budget.Reductions) string {
	parts := make([]string, 0, len(r))
	for c, v := range r {
		parts = append(parts, fmt.Sprintf("%s=%g", c, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (s *Service) handleBudget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reductions, err := s.reductionsFor(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	trees, err := boolParam(q, "trees", true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	key := fmt.Sprintf("budget:%t:%s", trees, reductionsKey(reductions))
	s.cached(w, r, key, func() (any, error) {
		sum := budget.Summarize(budget.FederalSpending(), budget.FederalRevenue(), reductions)
		resp := BudgetResponse{Summary: sum, Reductions: reductions}
		if trees {
			resp.SpendingData = &sum.SpendingData
			resp.RevenueData = &sum.RevenueData
		}
		return resp, nil
	})
}

func (s *Service) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()

	if p := r.URL.Query().Get("province"); p != "" {
		stats = pipeline.FilterByProvince(stats, p)
	}
	if k := r.URL.Query().Get("kind"); k != "" {
		stats = pipeline.FilterByKind(stats, source.Kind(strings.ToLower(k)))
	}
	if stats == nil {
		stats = []model.JurisdictionStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Service) handleJurisdiction(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(r.PathValue("slug"), "/")

	data, err := source.Load(s.cfg.DataDir, slug)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	depts, err := source.ExpandedDepartments(s.cfg.DataDir, slug)
	if err != nil {
		s.logger.Warn("departments unavailable", zap.String("slug", slug), zap.Error(err))
	}

	resp := JurisdictionResponse{
		Data:        data,
		Departments: pipeline.TopDepartments(depts, 0),
	}

	q := r.URL.Query()
	withBudget, err := boolParam(q, "budget", false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if withBudget {
		reductions, err := s.reductionsFor(q)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sum := data.Summarize(reductions)
		resp.Budget = &sum
	}

	writeJSON(w, http.StatusOK, resp)
}
