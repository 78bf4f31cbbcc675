package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
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

// writeJurisdiction writes a summary with the given spending plus a sankey.
func writeJurisdiction(tb testing.TB, root, dir, name string, spending float64) {
	tb.Helper()
	writeFile(tb, root, dir+"/summary.json", fmt.Sprintf(
		`{"name":%q,"financialYear":"2024","totalProvincialSpending":%v,"totalEmployees":100.4,"debtInterest":1.5,"population":1000000,"ministries":[{"name":"A","totalSpending":1}]}`,
		name, spending))
	writeFile(tb, root, dir+"/sankey.json", fixtureSankey)
}

// writeFixture builds a small data tree with two provinces and two municipalities.
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
