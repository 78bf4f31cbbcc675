package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
)

// writeFile creates path under root with the given contents.
func writeFile(t *testing.T, root, path, contents string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
}

const testSankey = `{
  "total": 210.5,
  "spending": 210.5,
  "revenue": 205,
  "spending_data": {"name": "Spending", "children": [
    {"name": "Health", "children": [{"name": "Hospitals", "amount": 80}, {"name": "OHIP", "amount": 30}]},
    {"name": "Education", "amount": 100.5}
  ]},
  "revenue_data": {"name": "Revenue", "children": [{"name": "Personal Income Tax", "amount": 205}]}
}`

// writeJurisdiction creates a summary and sankey under dir (relative to root).
func writeJurisdiction(t *testing.T, root, dir, name string) {
	t.Helper()
	writeFile(t, root, dir+"/summary.json", `{"name":"`+name+`","financialYear":"2023-24","totalProvincialSpending":210.5,"totalEmployees":1200,"debtInterest":14.1,"netDebt":null,"totalDebt":400}`)
	writeFile(t, root, dir+"/sankey.json", testSankey)
}

func TestParseJurisdiction(t *testing.T) {
	root := t.TempDir()
	writeJurisdiction(t, root, "provincial/ontario/2024", "Ontario")

	data, err := Load(root, "ontario")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	j := data.Jurisdiction
	if j.Slug != "ontario" || j.Name != "Ontario" {
		t.Errorf("jurisdiction = %q/%q, want ontario/Ontario", j.Slug, j.Name)
	}
	if j.TotalProvincialSpending != 210.5 {
		t.Errorf("TotalProvincialSpending = %v, want 210.5", j.TotalProvincialSpending)
	}
	if j.NetDebt != 0 {
		t.Errorf("NetDebt = %v, want 0 for null", j.NetDebt)
	}
	if got := data.Sankey.SpendingData.Total(); got != 210.5 {
		t.Errorf("spending total = %v, want 210.5", got)
	}
}

func TestParseJurisdiction_MunicipalSlugIsLastSegment(t *testing.T) {
	root := t.TempDir()
	writeJurisdiction(t, root, "municipal/ontario/toronto", "City of Toronto")

	data, err := Load(root, "ontario/toronto")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Jurisdiction.Slug != "toronto" {
		t.Errorf("Slug = %q, want toronto", data.Jurisdiction.Slug)
	}
}

func TestParseJurisdiction_MissingSankey(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "provincial/alberta/summary.json", `{"name":"Alberta"}`)

	_, err := Load(root, "alberta")
	if err == nil {
		t.Fatal("expected error for missing sankey.json")
	}
	if errors.Is(err, ErrJurisdictionNotFound) {
		t.Errorf("missing sankey reported as missing jurisdiction: %v", err)
	}
}

func TestParseJurisdiction_Malformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "provincial/alberta/summary.json", `{"name":`)
	writeFile(t, root, "provincial/alberta/sankey.json", `{}`)

	if _, err := Load(root, "alberta"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_NotFound(t *testing.T) {
	root := t.TempDir()
	if _, err := Load(root, "atlantis"); !errors.Is(err, ErrJurisdictionNotFound) {
		t.Errorf("err = %v, want ErrJurisdictionNotFound", err)
	}
}

func TestDepartments(t *testing.T) {
	root := t.TempDir()
	writeJurisdiction(t, root, "provincial/ontario", "Ontario")
	writeFile(t, root, "provincial/ontario/departments/health.json", `{"name":"Ministry of Health","totalSpending":80,"categories":[{"name":"Hospitals","amount":50}]}`)
	writeFile(t, root, "provincial/ontario/departments/education.json", `{"name":"Ministry of Education","totalSpending":100}`)
	writeFile(t, root, "provincial/ontario/departments/README.md", `notes`)

	slugs := DepartmentSlugs(root, "ontario")
	if len(slugs) != 2 {
		t.Fatalf("DepartmentSlugs = %v, want 2 entries", slugs)
	}

	d, err := ParseDepartment(root, "ontario", "health")
	if err != nil {
		t.Fatalf("ParseDepartment: %v", err)
	}
	if d.Slug != "health" || d.Name != "Ministry of Health" || len(d.Categories) != 1 {
		t.Errorf("department = %+v", d)
	}

	_, err = ParseDepartment(root, "ontario", "defence")
	if !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("err = %v, want ErrDepartmentNotFound", err)
	}
	_, err = ParseDepartment(root, "ontario", "../summary")
	if !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("traversal err = %v, want ErrDepartmentNotFound", err)
	}

	all, err := ExpandedDepartments(root, "ontario")
	if err != nil {
		t.Fatalf("ExpandedDepartments: %v", err)
	}
	if len(all) != 2 || all[0].Slug != "education" {
		t.Errorf("ExpandedDepartments order = %+v, want education first", all)
	}
}

func TestDepartmentSlugs_None(t *testing.T) {
	root := t.TempDir()
	writeJurisdiction(t, root, "provincial/ontario", "Ontario")

	if got := DepartmentSlugs(root, "ontario"); got != nil {
		t.Errorf("DepartmentSlugs = %v, want nil", got)
	}
	if got := DepartmentSlugs(root, "atlantis"); got != nil {
		t.Errorf("DepartmentSlugs(unknown) = %v, want nil", got)
	}
}

func TestDepartmentHref(t *testing.T) {
	if got := DepartmentHref("ontario", "health", ""); got != "/ontario/departments/health" {
		t.Errorf("got %q", got)
	}
	if got := DepartmentHref("ontario", "health", "fr"); got != "/fr/ontario/departments/health" {
		t.Errorf("got %q", got)
	}
}

func TestSankeyToTree(t *testing.T) {
	root := t.TempDir()
	writeJurisdiction(t, root, "provincial/ontario", "Ontario")
	data, err := Load(root, "ontario")
	if err != nil {
		t.Fatal(err)
	}

	tree := data.Sankey.SpendingTree()
	if tree.Type != budget.NodeParent || len(tree.Children) != 2 {
		t.Fatalf("tree = %+v", tree)
	}
	edu := tree.Children[1]
	if edu.Type != budget.NodeLeaf || edu.Amount2024 != 100.5 || edu.Amount2025 != 100.5 {
		t.Errorf("education leaf = %+v", edu)
	}
	if got := budget.Total(tree, false); got != 210.5 {
		t.Errorf("Total = %v, want 210.5", got)
	}

	empty := SankeyToTree(SankeyNode{Name: "Nothing"})
	if empty.Type != budget.NodeEmpty {
		t.Errorf("empty node type = %v", empty.Type)
	}
}
