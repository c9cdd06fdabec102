package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"xp-dashboard/internal/profile/domain"
)

var transactionHeader = []string{"created_at", "amount", "category", "path", "object_id", "object_name"}

// TransactionRow is the flat export shape of a transaction.
type TransactionRow struct {
	CreatedAt  int64  `parquet:"created_at_ms"`
	Amount     int64  `parquet:"amount"`
	Category   string `parquet:"category,dict"`
	Path       string `parquet:"path"`
	ObjectID   int64  `parquet:"object_id,optional"`
	ObjectName string `parquet:"object_name,optional"`
}

// TransactionRows flattens transactions for export.
func TransactionRows(txs []domain.Transaction) []TransactionRow {
	rows := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, TransactionRow{
			CreatedAt:  tx.Timestamp.UnixMilli(),
			Amount:     tx.Amount,
			Category:   string(tx.Category),
			Path:       tx.Path,
			ObjectID:   tx.ObjectID,
			ObjectName: tx.ObjectName,
		})
	}
	return rows
}

// WriteTransactionsCSV writes transactions as CSV with a header row.
func WriteTransactionsCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			tx.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatInt(tx.Amount, 10),
			string(tx.Category),
			tx.Path,
			strconv.FormatInt(tx.ObjectID, 10),
			tx.ObjectName,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactionsParquet writes transactions as a Parquet file.
func WriteTransactionsParquet(w io.Writer, txs []domain.Transaction) error {
	return parquet.Write(w, TransactionRows(txs))
}
