package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	fills  *csv.Writer
	equity *csv.Writer
	ff, ef *os.File
}

func NewCSV(fillsPath, equityPath string) (*CSVJournal, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	ew := csv.NewWriter(ef)

	if err := fw.Write([]string{"fill_id", "account", "symbol", "side", "quantity", "price", "multiplier", "realized_pl", "status", "timestamp"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"time", "account", "balance", "equity", "open_positions"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{fw, ew, ff, ef}, nil
}

func (j *CSVJournal) RecordFill(f FillRecord) error {
	err := j.fills.Write([]string{
		f.FillID,
		f.Account,
		f.Symbol,
		f.Side,
		fl(f.Quantity),
		fl(f.Price),
		fl(f.Multiplier),
		fl(f.RealizedPL),
		f.Status,
		f.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		e.Account,
		fl(e.Balance),
		fl(e.Equity),
		strconv.Itoa(e.OpenPositions),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.ff.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func fl(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
