package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrJurisdictionNotFound is returned when no data folder matches a slug.
var ErrJurisdictionNotFound = errors.New("jurisdiction data not found")

// AvailableYears returns the 4-digit year folders under dir that contain a
// summary.json, latest first.
func AvailableYears(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var years []int
	for _, e := range entries {
		if !e.IsDir() || !isYear(e.Name()) {
			continue
		}
		if !fileExists(filepath.Join(dir, e.Name(), SummaryFile)) {
			continue
		}
		y, _ := strconv.Atoi(e.Name())
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]string, len(years))
	for i, y := range years {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// LatestYear returns the most recent year folder under dir with a summary.json.
func LatestYear(dir string) (string, bool) {
	years := AvailableYears(dir)
	if len(years) == 0 {
		return "", false
	}
	return years[0], true
}

// DataPath returns the folder holding a jurisdiction's data files: the latest
// year folder, or dir itself when there are no year folders.
func DataPath(dir string) string {
	if y, ok := LatestYear(dir); ok {
		return filepath.Join(dir, y)
	}
	return dir
}

func isYear(name string) bool {
	if len(name) != 4 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// discover returns the jurisdiction rooted at dir, if it has a summary.json.
func discover(dir string, kind Kind, province, slug string) (DiscoveredJurisdiction, bool) {
	path := DataPath(dir)
	if !fileExists(filepath.Join(path, SummaryFile)) {
		return DiscoveredJurisdiction{}, false
	}
	d := DiscoveredJurisdiction{
		Path:     path,
		Root:     dir,
		Kind:     kind,
		Province: province,
		Slug:     slug,
	}
	if path != dir {
		d.Year = filepath.Base(path)
	}
	return d, true
}

// ScanDir discovers every jurisdiction under dataDir. Provincial entries come
// first, then municipal entries grouped by province, each in directory order.
// A missing data directory yields no entries and no error.
func ScanDir(dataDir string) ([]DiscoveredJurisdiction, error) {
	var found []DiscoveredJurisdiction

	provincialDir := filepath.Join(dataDir, string(KindProvincial))
	provinces, err := subdirs(provincialDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", provincialDir, err)
	}
	for _, p := range provinces {
		if d, ok := discover(filepath.Join(provincialDir, p), KindProvincial, p, p); ok {
			found = append(found, d)
		}
	}

	municipalDir := filepath.Join(dataDir, string(KindMunicipal))
	provinces, err = subdirs(municipalDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", municipalDir, err)
	}
	for _, p := range provinces {
		munis, err := subdirs(filepath.Join(municipalDir, p))
		if err != nil {
			continue
		}
		for _, m := range munis {
			if d, ok := discover(filepath.Join(municipalDir, p, m), KindMunicipal, p, m); ok {
				found = append(found, d)
			}
		}
	}

	return found, nil
}

// Find resolves a jurisdiction slug. The slug may name a province
// ("ontario"), a municipality with its province ("ontario/toronto"), or a
// bare municipality ("toronto"), which is searched for across provinces.
func Find(dataDir, slug string) (DiscoveredJurisdiction, error) {
	parts := strings.Split(strings.Trim(slug, "/"), "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return DiscoveredJurisdiction{}, fmt.Errorf("%q: %w", slug, ErrJurisdictionNotFound)
		}
	}

	switch len(parts) {
	case 1:
		name := parts[0]
		if d, ok := discover(filepath.Join(dataDir, string(KindProvincial), name), KindProvincial, name, name); ok {
			return d, nil
		}
		municipalDir := filepath.Join(dataDir, string(KindMunicipal))
		provinces, _ := subdirs(municipalDir)
		for _, p := range provinces {
			if d, ok := discover(filepath.Join(municipalDir, p, name), KindMunicipal, p, name); ok {
				return d, nil
			}
		}

	case 2:
		p, m := parts[0], parts[1]
		if d, ok := discover(filepath.Join(dataDir, string(KindMunicipal), p, m), KindMunicipal, p, m); ok {
			return d, nil
		}
	}

	return DiscoveredJurisdiction{}, fmt.Errorf("%q: %w", slug, ErrJurisdictionNotFound)
}

// FindDataPath returns the data folder for a jurisdiction slug. See Find.
func FindDataPath(dataDir, slug string) (string, error) {
	d, err := Find(dataDir, slug)
	if err != nil {
		return "", err
	}
	return d.Path, nil
}

// JurisdictionSlugs lists provincial slugs followed by bare municipal slugs.
func JurisdictionSlugs(dataDir string) ([]string, error) {
	found, err := ScanDir(dataDir)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(found))
	for _, d := range found {
		slugs = append(slugs, d.Slug)
	}
	return slugs, nil
}

// CountByKind returns the number of discovered jurisdictions of each kind.
func CountByKind(found []DiscoveredJurisdiction) map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range found {
		counts[d.Kind]++
	}
	return counts
}
