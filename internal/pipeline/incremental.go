package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
	"github.com/mackenziebowes/CanadaSpends/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Removed   int
}

// LoadWithCache discovers jurisdictions, diffs their summary files against
// the cache, parses only changed ones, and returns the combined result set.
// Cached jurisdictions whose data no longer exists, and tracked summary files
// that are no longer current, are dropped from the cache.
func LoadWithCache(ctx context.Context, dataDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredJurisdiction
	unchanged := make(map[string]struct{})
	for _, f := range files {
		info, err := os.Stat(f.SummaryPath())
		if err != nil {
			continue
		}
		cached, ok := tracked[f.SummaryPath()]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged[f.Key()] = struct{}{}
		} else {
			toReparse = append(toReparse, f)
		}
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	cached, err := cache.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading cached jurisdictions: %w", err)
	}
	current := make(map[string]struct{}, len(files))
	for _, f := range files {
		current[f.Key()] = struct{}{}
	}
	for _, j := range cached {
		if _, ok := unchanged[j.Key]; ok {
			result.Jurisdictions = append(result.Jurisdictions, j)
			result.ParsedFiles++
			continue
		}
		if _, ok := current[j.Key]; !ok {
			if err := cache.Delete(j.Key); err == nil {
				result.Removed++
			}
		}
	}
	// A jurisdiction whose latest year moved keeps its key but leaves the old
	// summary tracked.
	live := make(map[string]struct{}, len(files))
	for _, f := range files {
		live[f.SummaryPath()] = struct{}{}
	}
	for path := range tracked {
		if _, ok := live[path]; !ok {
			_ = cache.DeleteFileTracker(path)
		}
	}

	if progressFn != nil && result.CacheHits > 0 {
		progressFn(result.CacheHits, result.TotalFiles)
	}

	results, err := parseAll(ctx, dataDir, toReparse, result.CacheHits, result.TotalFiles, progressFn)
	if err != nil {
		return nil, err
	}

	for i, pr := range results {
		f := toReparse[i]
		if pr.err != nil {
			result.FileErrors = append(result.FileErrors, FileError{Key: f.Key(), Path: f.Path, Err: pr.err})
			continue
		}
		result.ParsedFiles++
		result.Jurisdictions = append(result.Jurisdictions, pr.stats)

		info, err := os.Stat(f.SummaryPath())
		if err == nil {
			_ = cache.SaveJurisdiction(pr.stats, info.ModTime().UnixNano(), info.Size())
		}
	}

	sortByScanOrder(result.Jurisdictions, files)
	return result, nil
}

// sortByScanOrder restores discovery order after merging cached and fresh stats.
func sortByScanOrder(stats []model.JurisdictionStats, files []source.DiscoveredJurisdiction) {
	order := make(map[string]int, len(files))
	for i, f := range files {
		order[f.Key()] = i
	}
	sort.SliceStable(stats, func(i, j int) bool { return order[stats[i].Key] < order[stats[j].Key] })
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "canadaspends")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "canadaspends")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "jurisdictions.db")
}
