package pipeline

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/source"
)

// FileError records a jurisdiction that failed to parse.
type FileError struct {
	Key  string
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Jurisdictions []model.JurisdictionStats
	TotalFiles    int
	ParsedFiles   int
	FileErrors    []FileError
}

// ProgressFunc is called during loading to report progress.
// current is the number of jurisdictions processed so far, total is the total count.
type ProgressFunc func(current, total int)

type parseResult struct {
	stats model.JurisdictionStats
	err   error
}

// Stats parses a discovered jurisdiction into its headline numbers.
func Stats(dataDir string, df source.DiscoveredJurisdiction) (model.JurisdictionStats, error) {
	data, err := source.ParseJurisdiction(df)
	if err != nil {
		return model.JurisdictionStats{}, err
	}
	j := data.Jurisdiction

	name := j.Name
	if name == "" {
		name = df.Slug
	}

	return model.JurisdictionStats{
		Key:            df.Key(),
		Slug:           df.Slug,
		Name:           name,
		Kind:           string(df.Kind),
		Province:       df.Province,
		Year:           df.Year,
		FinancialYear:  j.FinancialYear,
		FilePath:       df.SummaryPath(),
		Spending:       j.TotalProvincialSpending,
		Employees:      int64(math.Round(j.TotalEmployees)),
		DebtInterest:   j.DebtInterest,
		NetDebt:        j.NetDebt,
		TotalDebt:      j.TotalDebt,
		Population:     int64(math.Round(j.Population)),
		Departments:    len(source.DepartmentSlugs(dataDir, df.Key())),
		Ministries:     len(j.Ministries),
		SankeySpending: data.Sankey.SpendingData.Total(),
		SankeyRevenue:  data.Sankey.RevenueData.Total(),
	}, nil
}

func workers(n int) int {
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		w = 4
	}
	if w > n {
		w = n
	}
	return w
}

// parseAll parses files in parallel on a bounded errgroup. Results are
// returned in input order. Per-file errors are captured, not propagated.
func parseAll(ctx context.Context, dataDir string, files []source.DiscoveredJurisdiction, done int, total int, progressFn ProgressFunc) ([]parseResult, error) {
	results := make([]parseResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(len(files)))

	var processed atomic.Int64
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats, err := Stats(dataDir, files[i])
			results[i] = parseResult{stats: stats, err: err}
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n)+done, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Load discovers and parses every jurisdiction under dataDir.
func Load(ctx context.Context, dataDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results, err := parseAll(ctx, dataDir, files, 0, len(files), progressFn)
	if err != nil {
		return nil, err
	}

	for i, pr := range results {
		if pr.err != nil {
			result.FileErrors = append(result.FileErrors, FileError{Key: files[i].Key(), Path: files[i].Path, Err: pr.err})
			continue
		}
		result.ParsedFiles++
		result.Jurisdictions = append(result.Jurisdictions, pr.stats)
	}

	return result, nil
}
