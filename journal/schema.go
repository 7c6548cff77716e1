package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	fill_id TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	multiplier REAL NOT NULL,
	realized_pl REAL NOT NULL,
	status TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account, timestamp);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	account TEXT NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	open_positions INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_account_time ON equity(account, time);
`
