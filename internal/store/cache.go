// Package store provides a SQLite-backed cache for parsed jurisdiction data.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mackenziebowes/CanadaSpends/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed jurisdiction caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveJurisdiction stores parsed stats and the tracking info of their summary file.
func (c *Cache) SaveJurisdiction(j model.JurisdictionStats, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = tx.Exec(`INSERT OR REPLACE INTO jurisdictions
		(key, slug, name, kind, province, year, financial_year, file_path,
		 spending, employees, debt_interest, net_debt, total_debt, population,
		 departments, ministries, sankey_spending, sankey_revenue, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Key, j.Slug, j.Name, j.Kind, j.Province, j.Year, j.FinancialYear, j.FilePath,
		j.Spending, j.Employees, j.DebtInterest, j.NetDebt, j.TotalDebt, j.Population,
		j.Departments, j.Ministries, j.SankeySpending, j.SankeyRevenue, now,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, j.FilePath, mtimeNs, sizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LoadAll reads all cached jurisdictions, ordered by key.
func (c *Cache) LoadAll() ([]model.JurisdictionStats, error) {
	rows, err := c.db.Query(`SELECT
		key, slug, name, kind, province, year, financial_year, file_path,
		spending, employees, debt_interest, net_debt, total_debt, population,
		departments, ministries, sankey_spending, sankey_revenue
		FROM jurisdictions ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.JurisdictionStats
	for rows.Next() {
		var j model.JurisdictionStats
		var year, financialYear sql.NullString
		err := rows.Scan(
			&j.Key, &j.Slug, &j.Name, &j.Kind, &j.Province, &year, &financialYear, &j.FilePath,
			&j.Spending, &j.Employees, &j.DebtInterest, &j.NetDebt, &j.TotalDebt, &j.Population,
			&j.Departments, &j.Ministries, &j.SankeySpending, &j.SankeyRevenue,
		)
		if err != nil {
			return nil, err
		}
		if year.Valid {
			j.Year = year.String
		}
		if financialYear.Valid {
			j.FinancialYear = financialYear.String
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Delete removes a cached jurisdiction and the tracking entry of its summary file.
func (c *Cache) Delete(key string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`DELETE FROM file_tracker WHERE file_path IN
		(SELECT file_path FROM jurisdictions WHERE key = ?)`, key)
	if err != nil {
		return err
	}
	if _, err = tx.Exec("DELETE FROM jurisdictions WHERE key = ?", key); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteFileTracker removes a file tracking entry.
func (c *Cache) DeleteFileTracker(filePath string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// Count returns the number of cached jurisdictions.
func (c *Cache) Count() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM jurisdictions").Scan(&count)
	return count, err
}
