package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rustyeddy/quant/backtest"
)

const csvDateLayout = "20060102"

// WriteEquityCSV writes the equity curve to path, creating parent
// directories as needed.
func WriteEquityCSV(curve []backtest.EquityPoint, path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"trade_date", "equity"}); err != nil {
		return err
	}
	for _, p := range curve {
		if err := w.Write([]string{
			p.Date.Format(csvDateLayout),
			strconv.FormatFloat(p.Equity, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteTradesCSV writes the fill log to path.
func WriteTradesCSV(trades []backtest.TradeRecord, path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"trade_date", "side", "symbol", "price", "exec_price", "size",
		"gross", "fees", "cash_after", "position_after", "equity_after",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.Date.Format(csvDateLayout),
			string(t.Side),
			t.Symbol,
			strconv.FormatFloat(t.Price, 'f', 4, 64),
			strconv.FormatFloat(t.ExecPrice, 'f', 4, 64),
			strconv.Itoa(t.Size),
			strconv.FormatFloat(t.Gross, 'f', 2, 64),
			strconv.FormatFloat(t.Fees, 'f', 2, 64),
			strconv.FormatFloat(t.CashAfter, 'f', 2, 64),
			strconv.Itoa(t.PositionAfter),
			strconv.FormatFloat(t.EquityAfter, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	return os.Create(path)
}
