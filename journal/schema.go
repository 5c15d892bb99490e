package journal

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	symbol TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	initial_cash REAL NOT NULL,
	final_equity REAL NOT NULL,
	cagr REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	volatility REAL NOT NULL,
	sharpe REAL,
	win_rate REAL NOT NULL,
	total_fees REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_date DATETIME NOT NULL,
	side TEXT NOT NULL,
	symbol TEXT NOT NULL,
	price REAL NOT NULL,
	exec_price REAL NOT NULL,
	size INTEGER NOT NULL,
	gross REAL NOT NULL,
	fees REAL NOT NULL,
	cash_after REAL NOT NULL,
	position_after INTEGER NOT NULL,
	equity_after REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	trade_date DATETIME NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, trade_date);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, trade_date);
`
