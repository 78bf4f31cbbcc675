package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/config"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
)

const testSankey = `{"total":12,"spending":12,"revenue":10,
"spending_data":{"name":"Spending","children":[{"name":"Health Research","amount":7},{"name":"Roads","amount":5}]},
"revenue_data":{"name":"Revenue","children":[{"name":"Taxes","amount":10}]}}`

func writeJurisdiction(t *testing.T, root, rel, name string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	summary := `{"name":"` + name + `","financialYear":"2024","totalProvincialSpending":1}`
	if err := os.WriteFile(filepath.Join(dir, "summary.json"), []byte(summary), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sankey.json"), []byte(testSankey), 0o600); err != nil {
		t.Fatal(err)
	}
}

func testDataDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeJurisdiction(t, root, "provincial/ontario", "Ontario")
	writeJurisdiction(t, root, "municipal/ontario/toronto", "Toronto")
	writeJurisdiction(t, root, "municipal/ontario/ottawa", "Ottawa")
	writeJurisdiction(t, root, "municipal/alberta/calgary", "Calgary")
	return root
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true"})
	want := []string{"daemon", "--addr", ":9000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("filterDetachArg = %v, want %v", got, want)
	}
}

func TestPIDRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	if err := writePID(path, 4242); err != nil {
		t.Fatalf("writePID: %v", err)
	}
	pid, err := readPID(path)
	if err != nil || pid != 4242 {
		t.Fatalf("readPID = %d, %v", pid, err)
	}

	st := daemonRuntimeState{PID: 4242, Addr: "127.0.0.1:9", StartedAt: time.Now().UTC().Truncate(time.Second)}
	if err := writeState(statePath(path), st); err != nil {
		t.Fatalf("writeState: %v", err)
	}
	got, err := readState(statePath(path))
	if err != nil || !got.StartedAt.Equal(st.StartedAt) || got.Addr != st.Addr {
		t.Fatalf("readState = %+v, %v", got, err)
	}
}

func TestEnsureDaemonNotRunningWithoutPIDFile(t *testing.T) {
	if err := ensureDaemonNotRunning(filepath.Join(t.TempDir(), "missing.pid")); err != nil {
		t.Fatalf("ensureDaemonNotRunning: %v", err)
	}
}

func TestPersonalPrefersFlags(t *testing.T) {
	cfg := config.DefaultConfig()

	province, income, err := personal(cfg)
	if err != nil || province != "ontario" || income != 100000 {
		t.Fatalf("defaults = %q %v %v", province, income, err)
	}

	flagProvince = "alberta"
	if err := rootCmd.PersistentFlags().Set("income", "50000"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		flagProvince = ""
		flagIncome = 0
		rootCmd.PersistentFlags().Lookup("income").Changed = false
	})

	province, income, err = personal(cfg)
	if err != nil || province != "alberta" || income != 50000 {
		t.Fatalf("flags = %q %v %v", province, income, err)
	}
}

func TestDaemonConfigFromConfig(t *testing.T) {
	t.Setenv(config.DataDirEnv, "")
	cfg := config.DefaultConfig()
	cfg.Budget.Live = false
	cfg.Budget.Reductions = map[string]float64{"Health": 2.5}
	cfg.General.DataDir = "/srv/data"

	dcfg, err := daemonConfig(cfg)
	if err != nil {
		t.Fatalf("daemonConfig: %v", err)
	}
	if dcfg.Addr != cfg.Daemon.Addr || dcfg.Interval != 30*time.Second || dcfg.RateWindow != time.Minute {
		t.Fatalf("daemon config = %+v", dcfg)
	}
	if dcfg.DataDir != "/srv/data" {
		t.Fatalf("data dir = %q", dcfg.DataDir)
	}
	if got := dcfg.Reductions.For(budget.CategoryHealth); got != 2.5 {
		t.Fatalf("health reduction = %v, want 2.5", got)
	}
	if got := dcfg.Reductions.For(budget.CategoryPublicSafety); got != budget.DefaultPreliminaryReduction {
		t.Fatalf("public safety reduction = %v, want %v", got, budget.DefaultPreliminaryReduction)
	}
}

func TestDaemonConfigRejectsBadReductions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Budget.Reductions = map[string]float64{"Health": 40}
	if _, err := daemonConfig(cfg); err == nil {
		t.Fatal("expected error for out-of-range reduction")
	}
}

func TestMunicipalityRows(t *testing.T) {
	groups, err := source.MunicipalitiesByProvince(testDataDir(t))
	if err != nil {
		t.Fatalf("MunicipalitiesByProvince: %v", err)
	}

	want := [][]string{
		{"Alberta", "Calgary", "alberta/calgary"},
		{"---"},
		{"Ontario", "Ottawa", "ontario/ottawa"},
		{"", "Toronto", "ontario/toronto"},
	}
	if got := municipalityRows(groups, ""); !reflect.DeepEqual(got, want) {
		t.Fatalf("municipalityRows = %v, want %v", got, want)
	}

	got := municipalityRows(groups, "Ontario")
	if len(got) != 2 || got[0][1] != "Ottawa" {
		t.Fatalf("filtered rows = %v", got)
	}
}

func TestBudgetTreesForJurisdiction(t *testing.T) {
	dir := testDataDir(t)
	prevDir, prevJur := flagDataDir, flagBudgetJur
	t.Cleanup(func() { flagDataDir, flagBudgetJur = prevDir, prevJur })
	flagDataDir = dir

	flagBudgetJur = "ontario"
	name, spending, revenue, err := budgetTrees(config.DefaultConfig())
	if err != nil {
		t.Fatalf("budgetTrees: %v", err)
	}
	if name != "Ontario" {
		t.Fatalf("name = %q", name)
	}
	s := budget.Summarize(spending, revenue, budget.DefaultReductions(true))
	if s.Spending != 12 || s.Revenue != 10 {
		t.Fatalf("summary spending %v revenue %v", s.Spending, s.Revenue)
	}

	flagBudgetJur = "nowhere"
	_, _, _, err = budgetTrees(config.DefaultConfig())
	if !errors.Is(err, source.ErrJurisdictionNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if !strings.Contains(err.Error(), "toronto") {
		t.Fatalf("error should list available slugs: %v", err)
	}
}

func TestUnreducible(t *testing.T) {
	spending := budget.Parent("Spending", budget.Leaf("Health Research", 1, 1))
	r := budget.Reductions{budget.CategoryHealth: 5, budget.CategoryPublicSafety: 5, budget.CategoryCulture: 0}

	got := unreducible(spending, r)
	if want := []string{string(budget.CategoryPublicSafety)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unreducible = %v, want %v", got, want)
	}
}
