package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoIncomeData is returned by Merge when every row set is empty. It is a
// defined terminal state for a report run, not a failure.
var ErrNoIncomeData = errors.New("no income data found for the requested window")

// Merge concatenates the given row sets in order, sorts them by timestamp
// (stable, so rows with equal timestamps keep their insertion order across
// sets) and stamps the running cumulative ETH and LPT balances on every row,
// seeded from the independently fetched starting balances.
func Merge(rowSets [][]Row, startingEthBalance float64, startingLptBalance float64) ([]Row, error) {
	merged := make([]Row, 0)
	for _, set := range rowSets {
		merged = append(merged, set...)
	}
	if len(merged) == 0 {
		return nil, ErrNoIncomeData
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	eth := startingEthBalance
	lpt := startingLptBalance
	for i := range merged {
		row := &merged[i]
		delta := row.Amount
		if row.Direction == Direction_Outgoing {
			delta = -delta
		}
		switch row.Currency {
		case Currency_ETH:
			eth += delta
		case Currency_LPT:
			lpt += delta
		}
		// Both cumulative balances are stamped on every row regardless of
		// the row's own currency.
		row.CumulativeBalanceEth = eth
		row.CumulativeBalanceLpt = lpt
	}
	return merged, nil
}

// Reconcile checks that the final cumulative balances of a merged ledger
// match the independently fetched ending balances within tolerance.
func Reconcile(rows []Row, endingEthBalance float64, endingLptBalance float64, tolerance float64) error {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	if diff := math.Abs(last.CumulativeBalanceEth - endingEthBalance); diff > tolerance {
		return fmt.Errorf("final cumulative ETH balance %.8f does not match ending balance %.8f (diff %.8f)",
			last.CumulativeBalanceEth, endingEthBalance, diff)
	}
	if diff := math.Abs(last.CumulativeBalanceLpt - endingLptBalance); diff > tolerance {
		return fmt.Errorf("final cumulative LPT balance %.8f does not match ending balance %.8f (diff %.8f)",
			last.CumulativeBalanceLpt, endingLptBalance, diff)
	}
	return nil
}
