package report

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type overviewRecord struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
}

type transactionRecord struct {
	Timestamp            string   `csv:"timestamp"`
	Round                string   `csv:"round"`
	TransactionHash      string   `csv:"transaction_hash"`
	TransactionUrl       string   `csv:"transaction_url"`
	Direction            string   `csv:"direction"`
	TransactionType      string   `csv:"transaction_type"`
	Currency             string   `csv:"currency"`
	Amount               float64  `csv:"amount"`
	Price                *float64 `csv:"price"`
	Value                *float64 `csv:"value"`
	PendingRewards       float64  `csv:"pending_rewards"`
	PendingFees          float64  `csv:"pending_fees"`
	AccumulatedRewards   float64  `csv:"accumulated_rewards"`
	AccumulatedFees      float64  `csv:"accumulated_fees"`
	SourceFunction       string   `csv:"source_function"`
	CumulativeBalanceEth float64  `csv:"cumulative_balance_eth"`
	CumulativeBalanceLpt float64  `csv:"cumulative_balance_lpt"`
}

func toRecord(row ledger.Row) *transactionRecord {
	return &transactionRecord{
		Timestamp:            row.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		Round:                row.Round,
		TransactionHash:      row.TransactionHash,
		TransactionUrl:       row.TransactionUrl,
		Direction:            string(row.Direction),
		TransactionType:      row.TransactionType,
		Currency:             string(row.Currency),
		Amount:               row.Amount,
		Price:                row.Price,
		Value:                row.Value,
		PendingRewards:       row.PendingRewards,
		PendingFees:          row.PendingFees,
		AccumulatedRewards:   row.AccumulatedRewards,
		AccumulatedFees:      row.AccumulatedFees,
		SourceFunction:       row.SourceFunction,
		CumulativeBalanceEth: row.CumulativeBalanceEth,
		CumulativeBalanceLpt: row.CumulativeBalanceLpt,
	}
}

func writeCsvFile[T any](path string, records []T) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func writeOverviewFile(path string, overview *orderedmap.OrderedMap[string, string]) error {
	records := make([]*overviewRecord, 0, overview.Len())
	for pair := overview.Oldest(); pair != nil; pair = pair.Next() {
		records = append(records, &overviewRecord{Metric: pair.Key, Value: pair.Value})
	}
	return writeCsvFile(path, records)
}

// Export writes the report as CSV files in outputDir: the overview, the full
// transaction list, and one file per asset mirroring the per-currency split
// of the ledger.
func (r *Report) Export(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create the output directory %s", outputDir)
	}

	if err := writeOverviewFile(filepath.Join(outputDir, "overview.csv"), r.Overview); err != nil {
		return err
	}

	all := make([]*transactionRecord, 0, len(r.Rows))
	lptOnly := make([]*transactionRecord, 0)
	ethOnly := make([]*transactionRecord, 0)
	for _, row := range r.Rows {
		record := toRecord(row)
		all = append(all, record)
		switch row.Currency {
		case ledger.Currency_LPT:
			lptOnly = append(lptOnly, record)
		case ledger.Currency_ETH:
			ethOnly = append(ethOnly, record)
		}
	}

	if err := writeCsvFile(filepath.Join(outputDir, "transactions.csv"), all); err != nil {
		return err
	}
	if err := writeCsvFile(filepath.Join(outputDir, "transactions_lpt.csv"), lptOnly); err != nil {
		return err
	}
	return writeCsvFile(filepath.Join(outputDir, "transactions_eth.csv"), ethOnly)
}

// Export writes the balance overview as a single CSV file.
func (b *Balance) Export(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create the output directory %s", outputDir)
	}
	return writeOverviewFile(filepath.Join(outputDir, "balance.csv"), b.Overview())
}
