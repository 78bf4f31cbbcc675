package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

const fixtureSankey = `{"total":12,"spending":12,"revenue":10,
"spending_data":{"name":"Spending","children":[{"name":"Health","amount":7},{"name":"Education","amount":5}]},
"revenue_data":{"name":"Revenue","children":[{"name":"Taxes","amount":10}]}}`

func writeFile(tb testing.TB, root, rel, contents string) {
	tb.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o600); err != nil {
		tb.Fatal(err)
	}
}

func writeJurisdiction(tb testing.TB, root, dir, name string, spending float64) {
	tb.Helper()
	writeFile(tb, root, dir+"/summary.json", fmt.Sprintf(
		`{"name":%q,"financialYear":"2024","totalProvincialSpending":%v,"population":1000000}`,
		name, spending))
	writeFile(tb, root, dir+"/sankey.json", fixtureSankey)
}

func writeFixture(tb testing.TB) string {
	tb.Helper()
	root := tb.TempDir()
	writeJurisdiction(tb, root, "provincial/ontario/2024", "Ontario", 214.4)
	writeJurisdiction(tb, root, "provincial/alberta", "Alberta", 73.2)
	writeJurisdiction(tb, root, "municipal/ontario/toronto", "Toronto", 17.1)
	writeJurisdiction(tb, root, "municipal/ontario/ottawa", "Ottawa", 4.6)
	writeFile(tb, root, "provincial/ontario/2024/departments/health.json", `{"name":"Health","totalSpending":85}`)
	writeFile(tb, root, "provincial/ontario/2024/departments/education.json", `{"name":"Education","totalSpending":40}`)
	return root
}

// newTestService returns a service over a fresh fixture tree. It is closed
// when the test ends.
func newTestService(tb testing.TB, cfg Config) *Service {
	tb.Helper()
	if cfg.DataDir == "" {
		cfg.DataDir = writeFixture(tb)
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	s := New(cfg, zap.NewNop(), nil)
	tb.Cleanup(s.Close)
	return s
}
