package journal

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/quant/backtest"
)

// SQLite persists runs to a local sqlite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(run Run) error {
	// Sharpe is NaN when volatility is zero; sqlite cannot store NaN in a
	// REAL column, so it travels as NULL.
	sharpe := sql.NullFloat64{Float64: run.Sharpe, Valid: !math.IsNaN(run.Sharpe)}
	_, err := j.db.Exec(`
		INSERT INTO backtest_runs
		(run_id, created, strategy, symbol, start_date, end_date, bars,
		 initial_cash, final_equity, cagr, max_drawdown, volatility, sharpe, win_rate, total_fees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created, run.Strategy, run.Symbol, run.Start, run.End, run.Bars,
		run.InitialCash, run.FinalEquity, run.CAGR, run.MaxDrawdown,
		run.Volatility, sharpe, run.WinRate, run.TotalFees,
	)
	return err
}

func (j *SQLite) RecordTrade(runID string, t backtest.TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_date, side, symbol, price, exec_price, size, gross, fees, cash_after, position_after, equity_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Date, string(t.Side), t.Symbol, t.Price, t.ExecPrice,
		t.Size, t.Gross, t.Fees, t.CashAfter, t.PositionAfter, t.EquityAfter,
	)
	return err
}

func (j *SQLite) RecordEquity(runID string, p backtest.EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, trade_date, equity) VALUES (?, ?, ?)`,
		runID, p.Date, p.Equity,
	)
	return err
}

// RunByID loads a single run summary.
func (j *SQLite) RunByID(runID string) (Run, error) {
	var run Run
	var sharpe sql.NullFloat64
	row := j.db.QueryRow(`
		SELECT run_id, created, strategy, symbol, start_date, end_date, bars,
		       initial_cash, final_equity, cagr, max_drawdown, volatility, sharpe, win_rate, total_fees
		FROM backtest_runs
		WHERE run_id = ?`, runID)
	err := row.Scan(
		&run.RunID, &run.Created, &run.Strategy, &run.Symbol, &run.Start, &run.End, &run.Bars,
		&run.InitialCash, &run.FinalEquity, &run.CAGR, &run.MaxDrawdown,
		&run.Volatility, &sharpe, &run.WinRate, &run.TotalFees,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	run.Sharpe = math.NaN()
	if sharpe.Valid {
		run.Sharpe = sharpe.Float64
	}
	return run, nil
}

// TradesByRun returns the run's fill log in date order.
func (j *SQLite) TradesByRun(runID string) ([]backtest.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_date, side, symbol, price, exec_price, size, gross, fees, cash_after, position_after, equity_after
		FROM trades
		WHERE run_id = ?
		ORDER BY trade_date ASC, rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.TradeRecord
	for rows.Next() {
		var t backtest.TradeRecord
		var side string
		if err := rows.Scan(
			&t.Date, &side, &t.Symbol, &t.Price, &t.ExecPrice,
			&t.Size, &t.Gross, &t.Fees, &t.CashAfter, &t.PositionAfter, &t.EquityAfter,
		); err != nil {
			return nil, err
		}
		t.Side = backtest.Side(side)
		out = append(out, t)
	}
	return out, rows.Err()
}

// EquityByRun returns the run's equity curve in date order.
func (j *SQLite) EquityByRun(runID string) ([]backtest.EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT trade_date, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY trade_date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.EquityPoint
	for rows.Next() {
		var p backtest.EquityPoint
		if err := rows.Scan(&p.Date, &p.Equity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
