package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	starting_cash REAL NOT NULL,
	commission_rate REAL NOT NULL,
	stop_loss_pct REAL NOT NULL,
	take_profit_pct REAL NOT NULL,
	time_exit_days INTEGER NOT NULL,
	final_equity REAL NOT NULL,
	cagr REAL,
	sharpe REAL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL,
	win_rate REAL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	units REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	pnl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_date);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, date);
`
