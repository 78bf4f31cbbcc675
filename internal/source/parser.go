// Package source discovers and parses jurisdiction spending data files.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDepartmentNotFound is returned when a department file does not exist.
var ErrDepartmentNotFound = errors.New("department data not found")

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func readSummary(path string) (Summary, error) {
	var s Summary
	err := readJSON(path, &s)
	return s, err
}

// ParseJurisdiction reads the summary and sankey files of a discovered
// jurisdiction. A missing sankey file is an error.
func ParseJurisdiction(df DiscoveredJurisdiction) (Data, error) {
	key := df.Key()
	if !fileExists(df.SummaryPath()) {
		return Data{}, fmt.Errorf("%q: %w", key, ErrJurisdictionNotFound)
	}
	if !fileExists(df.SankeyPath()) {
		return Data{}, fmt.Errorf("sankey data not found for jurisdiction %q", key)
	}

	summary, err := readSummary(df.SummaryPath())
	if err != nil {
		return Data{}, fmt.Errorf("parsing data files for jurisdiction %s: %w", key, err)
	}
	var sankey Sankey
	if err := readJSON(df.SankeyPath(), &sankey); err != nil {
		return Data{}, fmt.Errorf("parsing data files for jurisdiction %s: %w", key, err)
	}

	return Data{
		Jurisdiction: Jurisdiction{Slug: df.Slug, Summary: summary},
		Sankey:       sankey,
	}, nil
}

// Load finds and parses the jurisdiction named by slug.
func Load(dataDir, slug string) (Data, error) {
	df, err := Find(dataDir, slug)
	if err != nil {
		return Data{}, err
	}
	return ParseJurisdiction(df)
}

// ParseDepartment reads departments/<department>.json for a jurisdiction.
func ParseDepartment(dataDir, jurisdiction, department string) (Department, error) {
	path, err := FindDataPath(dataDir, jurisdiction)
	if err != nil {
		return Department{}, err
	}
	if department == "" || strings.ContainsAny(department, `/\`) {
		return Department{}, fmt.Errorf("%q for jurisdiction %s: %w", department, jurisdiction, ErrDepartmentNotFound)
	}

	file := filepath.Join(path, DepartmentsDir, department+".json")
	if !fileExists(file) {
		return Department{}, fmt.Errorf("%q for jurisdiction %s: %w", department, jurisdiction, ErrDepartmentNotFound)
	}

	var d Department
	if err := readJSON(file, &d); err != nil {
		return Department{}, fmt.Errorf("parsing department data for %s in %s: %w", department, jurisdiction, err)
	}
	d.Slug = department
	return d, nil
}

// DepartmentSlugs lists the department files of a jurisdiction. It returns
// nil when the jurisdiction or its departments folder does not exist.
func DepartmentSlugs(dataDir, jurisdiction string) []string {
	path, err := FindDataPath(dataDir, jurisdiction)
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(filepath.Join(path, DepartmentsDir))
	if err != nil {
		return nil
	}

	var slugs []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".json"))
	}
	return slugs
}

// ExpandedDepartments parses every department of a jurisdiction, largest
// spending first.
func ExpandedDepartments(dataDir, jurisdiction string) ([]Department, error) {
	slugs := DepartmentSlugs(dataDir, jurisdiction)
	out := make([]Department, 0, len(slugs))
	for _, slug := range slugs {
		d, err := ParseDepartment(dataDir, jurisdiction, slug)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpending > out[j].TotalSpending })
	return out, nil
}

// DepartmentHref returns the site path of a department page, with an
// optional locale prefix.
func DepartmentHref(jurisdiction, department, locale string) string {
	path := "/" + jurisdiction + "/departments/" + department
	if locale != "" {
		return "/" + locale + path
	}
	return path
}
