package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func row(ts int64, txType string, currency Currency, direction Direction, amount float64) Row {
	return Row{
		Timestamp:       time.Unix(ts, 0).UTC(),
		TransactionType: txType,
		Currency:        currency,
		Direction:       direction,
		Amount:          amount,
	}
}

func Test_Merge(t *testing.T) {
	t.Run("Test that empty row sets terminate with ErrNoIncomeData", func(t *testing.T) {
		_, err := Merge([][]Row{{}, {}, {}}, 1, 2)
		assert.ErrorIs(t, err, ErrNoIncomeData)
	})
	t.Run("Test that rows are sorted by timestamp", func(t *testing.T) {
		merged, err := Merge([][]Row{
			{row(300, "bond", Currency_LPT, Direction_Outgoing, 1)},
			{row(100, "pending rewards", Currency_LPT, Direction_Incoming, 2)},
			{row(200, "eth transfer", Currency_ETH, Direction_Incoming, 3)},
		}, 0, 0)
		assert.NoError(t, err)
		assert.Equal(t, []string{"pending rewards", "eth transfer", "bond"}, []string{
			merged[0].TransactionType, merged[1].TransactionType, merged[2].TransactionType,
		})
	})
	t.Run("Test that the sort is stable for equal timestamps", func(t *testing.T) {
		a := row(100, "A", Currency_LPT, Direction_Incoming, 1)
		b := row(100, "B", Currency_LPT, Direction_Incoming, 1)
		merged, err := Merge([][]Row{{a}, {b}}, 0, 0)
		assert.NoError(t, err)
		assert.Equal(t, "A", merged[0].TransactionType)
		assert.Equal(t, "B", merged[1].TransactionType)
	})
	t.Run("Test that cumulative balances are seeded and stamped on every row", func(t *testing.T) {
		merged, err := Merge([][]Row{
			{row(100, "pending rewards", Currency_LPT, Direction_Incoming, 5)},
			{row(200, "eth transfer", Currency_ETH, Direction_Outgoing, 0.5)},
			{row(300, "unbond", Currency_LPT, Direction_Incoming, 2)},
		}, 10, 100)
		assert.NoError(t, err)

		// The LPT reward row still carries the current ETH running total.
		assert.InDelta(t, 10.0, merged[0].CumulativeBalanceEth, 1e-9)
		assert.InDelta(t, 105.0, merged[0].CumulativeBalanceLpt, 1e-9)

		assert.InDelta(t, 9.5, merged[1].CumulativeBalanceEth, 1e-9)
		assert.InDelta(t, 105.0, merged[1].CumulativeBalanceLpt, 1e-9)

		assert.InDelta(t, 9.5, merged[2].CumulativeBalanceEth, 1e-9)
		assert.InDelta(t, 107.0, merged[2].CumulativeBalanceLpt, 1e-9)
	})
}

func Test_Reconcile(t *testing.T) {
	t.Run("Test that matching endpoints reconcile", func(t *testing.T) {
		merged, err := Merge([][]Row{
			{row(100, "eth transfer", Currency_ETH, Direction_Incoming, 1)},
			{row(200, "lpt transfer", Currency_LPT, Direction_Outgoing, 3)},
		}, 2, 10)
		assert.NoError(t, err)
		assert.NoError(t, Reconcile(merged, 3, 7, 1e-6))
	})
	t.Run("Test that a drifted ending balance fails reconciliation", func(t *testing.T) {
		merged, err := Merge([][]Row{
			{row(100, "eth transfer", Currency_ETH, Direction_Incoming, 1)},
		}, 2, 10)
		assert.NoError(t, err)
		assert.Error(t, Reconcile(merged, 3.5, 10, 1e-6))
	})
	t.Run("Test that an empty ledger reconciles trivially", func(t *testing.T) {
		assert.NoError(t, Reconcile(nil, 1, 2, 1e-6))
	})
}
