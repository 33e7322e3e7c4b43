// Package report orchestrates a full ledger reconstruction run and shapes
// the result for export.
package report

import (
	"strconv"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Report is the artifact of one reconstruction run. Overview preserves its
// insertion order so exports read top to bottom the way the run computed
// them.
type Report struct {
	RunId      string
	Delegator  string
	Currency   string
	Window     ledger.Window
	StartBlock uint64
	EndBlock   uint64
	Overview   *orderedmap.OrderedMap[string, string]
	Rows       []ledger.Row

	// Reconciled is false when the final cumulative balances disagree with
	// the independently fetched ending balances beyond tolerance.
	Reconciled bool
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05")
}
