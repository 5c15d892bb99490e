package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xyproto/unzip"
)

// ImportCSV ingests a daily bar dump into the store's table. Expected
// header: ts_code,trade_date,open,high,low,close[,pct_chg]. Existing rows
// for the same (ts_code, trade_date) are replaced. Returns the number of
// rows written.
func (s *Store) ImportCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("data: import %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("data: import %s: read header: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"ts_code", "trade_date", "open", "high", "low", "close"} {
		if _, ok := col[name]; !ok {
			return 0, fmt.Errorf("data: import %s: missing column %q", path, name)
		}
	}
	pctIdx, hasPct := col["pct_chg"]

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
INSERT OR REPLACE INTO %q (ts_code, trade_date, open, high, low, close, pct_chg)
VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, fmt.Errorf("data: import %s row %d: %w", path, n+2, err)
		}
		open, high, low, closePx, err := parseOHLC(row, col)
		if err != nil {
			return n, fmt.Errorf("data: import %s row %d: %w", path, n+2, err)
		}
		var pct any
		if hasPct && pctIdx < len(row) && strings.TrimSpace(row[pctIdx]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[pctIdx]), 64)
			if err != nil {
				return n, fmt.Errorf("data: import %s row %d: pct_chg: %w", path, n+2, err)
			}
			pct = v
		}
		_, err = stmt.Exec(
			strings.TrimSpace(row[col["ts_code"]]),
			strings.TrimSpace(row[col["trade_date"]]),
			open, high, low, closePx, pct,
		)
		if err != nil {
			return n, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, err
	}
	return n, nil
}

// ImportArchive extracts a zip of CSV dumps into a scratch directory and
// imports every .csv inside. Returns the total rows written.
func (s *Store) ImportArchive(path string) (int, error) {
	tmp, err := os.MkdirTemp("", "quant-import-*")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(tmp)

	if err := unzip.Extract(path, tmp); err != nil {
		return 0, fmt.Errorf("data: extract %s: %w", path, err)
	}

	total := 0
	err = filepath.WalkDir(tmp, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".csv") {
			return nil
		}
		n, err := s.ImportCSV(p)
		total += n
		return err
	})
	return total, err
}

func parseOHLC(row []string, col map[string]int) (open, high, low, closePx float64, err error) {
	get := func(name string) (float64, error) {
		i := col[name]
		if i >= len(row) {
			return 0, fmt.Errorf("short row, missing %s", name)
		}
		return strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	}
	if open, err = get("open"); err != nil {
		return
	}
	if high, err = get("high"); err != nil {
		return
	}
	if low, err = get("low"); err != nil {
		return
	}
	closePx, err = get("close")
	return
}
