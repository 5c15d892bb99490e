// Package data reads daily bars from the SQLite store maintained by the
// upstream sync pipeline, and imports local CSV dumps into it. One row per
// (ts_code, trade_date), dates stored as yyyymmdd text.
package data

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quant/backtest"
)

// DefaultTable is the daily bar table the sync pipeline writes.
const DefaultTable = "daily"

const dateLayout = "20060102"

// Store is a read-mostly handle on one daily bar table.
type Store struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the bar database. An empty table name selects
// DefaultTable.
func Open(path, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", path, err)
	}
	return &Store{db: db, table: table}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the bar table and its index when missing.
func (s *Store) EnsureSchema() error {
	_, err := s.db.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %q (
	ts_code TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	pct_chg REAL,
	PRIMARY KEY (ts_code, trade_date)
);
CREATE INDEX IF NOT EXISTS idx_%s_date ON %q (trade_date);`, s.table, s.table, s.table))
	if err != nil {
		return fmt.Errorf("data: ensure schema: %w", err)
	}
	return nil
}

// Bars returns the symbol's bars in [start, end] sorted ascending by date.
// A zero end leaves the range open.
func (s *Store) Bars(symbol string, start, end time.Time) ([]backtest.Bar, error) {
	where := []string{"ts_code = ?", "trade_date >= ?"}
	args := []any{symbol, start.Format(dateLayout)}
	if !end.IsZero() {
		where = append(where, "trade_date <= ?")
		args = append(args, end.Format(dateLayout))
	}
	query := fmt.Sprintf(`
SELECT trade_date, open, high, low, close, pct_chg
FROM %q
WHERE %s
ORDER BY trade_date`, s.table, strings.Join(where, " AND "))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("data: bars %s: %w", symbol, err)
	}
	defer rows.Close()
	return scanBars(rows)
}

// Calendar returns one bar per trading date on which any of the symbols
// traded, sorted ascending. OHLC are aggregate placeholders; strategies
// driven by a calendar feed fetch execution prices themselves.
func (s *Store) Calendar(symbols []string, start, end time.Time) ([]backtest.Bar, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("data: calendar: symbols must not be empty")
	}
	where := []string{
		"trade_date >= ?",
		fmt.Sprintf("ts_code IN (%s)", placeholders(len(symbols))),
	}
	args := make([]any, 0, len(symbols)+2)
	args = append(args, start.Format(dateLayout))
	for _, sym := range symbols {
		args = append(args, sym)
	}
	if !end.IsZero() {
		where = append(where, "trade_date <= ?")
		args = append(args, end.Format(dateLayout))
	}
	query := fmt.Sprintf(`
SELECT trade_date,
       MIN(open)  AS open,
       MIN(high)  AS high,
       MIN(low)   AS low,
       MIN(close) AS close,
       NULL       AS pct_chg
FROM %q
WHERE %s
GROUP BY trade_date
ORDER BY trade_date`, s.table, strings.Join(where, " AND "))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("data: calendar: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

// Opens returns the open price per symbol on the given date. Symbols with
// no row that day are simply absent from the map.
func (s *Store) Opens(date time.Time, symbols []string) (map[string]float64, error) {
	return s.pricesOn("open", date, symbols)
}

// Closes returns the close price per symbol on the given date.
func (s *Store) Closes(date time.Time, symbols []string) (map[string]float64, error) {
	return s.pricesOn("close", date, symbols)
}

func (s *Store) pricesOn(column string, date time.Time, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	query := fmt.Sprintf(`
SELECT ts_code, %s
FROM %q
WHERE trade_date = ? AND ts_code IN (%s)`, column, s.table, placeholders(len(symbols)))

	args := make([]any, 0, len(symbols)+1)
	args = append(args, date.Format(dateLayout))
	for _, sym := range symbols {
		args = append(args, sym)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("data: %s prices on %s: %w", column, date.Format(dateLayout), err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(symbols))
	for rows.Next() {
		var sym string
		var px float64
		if err := rows.Scan(&sym, &px); err != nil {
			return nil, err
		}
		out[sym] = px
	}
	return out, rows.Err()
}

func scanBars(rows *sql.Rows) ([]backtest.Bar, error) {
	var bars []backtest.Bar
	for rows.Next() {
		var dateStr string
		var pct sql.NullFloat64
		var b backtest.Bar
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &pct); err != nil {
			return nil, err
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("data: bad trade_date %q: %w", dateStr, err)
		}
		b.Date = date
		if pct.Valid {
			v := pct.Float64
			b.PctChg = &v
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
