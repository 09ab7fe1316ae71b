package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jaaknt/turtle-backtest/types"
)

// WriteTradesCSVFile writes the closed trades to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Position) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes the closed trades to any io.Writer as CSV.
// You can pass os.Stdout for debugging, or a file.
func WriteTradesCSV(w io.Writer, trades []types.Position) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"ticker",
		"quantity",
		"entry_date",
		"entry_price",
		"exit_date",
		"exit_price",
		"exit_reason",
		"return_pct",
		"holding_days",
		"ranking",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, trade := range trades {
		record := []string{
			trade.Ticker,
			fmt.Sprintf("%d", trade.Quantity),
			trade.EntryDate.Format(time.DateOnly),
			trade.EntryPrice.String(),
			trade.ExitDate.Format(time.DateOnly),
			trade.ExitPrice.String(),
			string(trade.ExitReason),
			trade.ReturnPct().Round(2).String(),
			fmt.Sprintf("%d", trade.HoldingDays()),
			fmt.Sprintf("%d", trade.Ranking),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
