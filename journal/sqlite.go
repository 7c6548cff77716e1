package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(fill_id, account, symbol, side, quantity, price, multiplier, realized_pl, status, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FillID, f.Account, f.Symbol, f.Side, f.Quantity,
		f.Price, f.Multiplier, f.RealizedPL, f.Status, f.Time,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, account, balance, equity, open_positions)
		VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Account, e.Balance, e.Equity, e.OpenPositions,
	)
	return err
}

// ListFills returns an account's fills in execution order.
func (j *SQLiteJournal) ListFills(account string) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT fill_id, account, symbol, side, quantity, price, multiplier, realized_pl, status, timestamp
		FROM orders WHERE account = ? ORDER BY timestamp, fill_id`, account)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(&f.FillID, &f.Account, &f.Symbol, &f.Side, &f.Quantity,
			&f.Price, &f.Multiplier, &f.RealizedPL, &f.Status, &f.Time); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
