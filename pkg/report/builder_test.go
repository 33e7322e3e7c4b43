package report

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/events"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var (
	delegator = "0xDE10000000000000000000000000000000000001"
	window    = ledger.Window{StartTimestamp: 1700000000, EndTimestamp: 1700100000}
)

func wholeUnits(n int64) *big.Int {
	return big.NewInt(0).Mul(big.NewInt(n), big.NewInt(1e18))
}

type fakeResolver struct{ fail bool }

func (f *fakeResolver) Resolve(ctx context.Context, timestamp int64) (uint64, error) {
	if f.fail {
		return 0, fmt.Errorf("timestamp 1700000000 is beyond the current head")
	}
	return uint64(timestamp / 12), nil
}

type fakeBalances struct {
	eth map[uint64]*big.Int
	lpt map[uint64]*big.Int
}

func (f *fakeBalances) GetBalance(ctx context.Context, address string, blockNumber uint64) (*big.Int, error) {
	return f.eth[blockNumber], nil
}

func (f *fakeBalances) BalanceOf(ctx context.Context, wallet string, blockNumber uint64) (*big.Int, error) {
	return f.lpt[blockNumber], nil
}

type fakeSnapshots struct {
	byBlock map[uint64]*snapshot.Delegator
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, delegator string, blockNumber uint64) (*snapshot.Delegator, error) {
	return f.byBlock[blockNumber], nil
}

type fakeRounds struct {
	rounds []ledger.Round
}

func (f *fakeRounds) FetchRounds(ctx context.Context, window ledger.Window) ([]ledger.Round, error) {
	return f.rounds, nil
}

type fakeWalker struct {
	rows []ledger.Row
}

func (f *fakeWalker) Reconstruct(ctx context.Context, delegator string, rounds []ledger.Round, currency string, windowStart *snapshot.Delegator) ([]ledger.Row, error) {
	return f.rows, nil
}

type fakeSource struct {
	name string
	rows []ledger.Row
	fail bool
}

func (f *fakeSource) Name() string {
	return f.name
}

func (f *fakeSource) Collect(ctx context.Context, currency string) ([]ledger.Row, error) {
	if f.fail {
		return nil, fmt.Errorf("retries exhausted")
	}
	return f.rows, nil
}

type fakePrices struct{}

func (f *fakePrices) Price(ctx context.Context, symbol string, target string, timestamp int64) (float64, error) {
	if symbol == "ETH" {
		return 1800, nil
	}
	return 10, nil
}

func rowAt(ts int64, direction ledger.Direction, currency ledger.Currency, amount float64, transactionType string) ledger.Row {
	return ledger.Row{
		Timestamp:       time.Unix(ts, 0).UTC(),
		Direction:       direction,
		Currency:        currency,
		Amount:          amount,
		TransactionType: transactionType,
	}
}

func newBuilder(balances *fakeBalances, snapshots *fakeSnapshots, walker *fakeWalker, sources []events.Source) *Builder {
	return NewBuilder(
		&fakeResolver{},
		balances,
		balances,
		snapshots,
		&fakeRounds{rounds: []ledger.Round{{Id: "3001", StartTimestamp: 1700000100, StartBlock: 100}}},
		walker,
		sources,
		&fakePrices{},
		delegator,
		"EUR",
		window,
		zap.NewNop(),
	)
}

func Test_Builder(t *testing.T) {
	startBlock := uint64(window.StartTimestamp / 12)
	endBlock := uint64(window.EndTimestamp / 12)

	balances := &fakeBalances{
		eth: map[uint64]*big.Int{
			// Ending ETH grows by the 0.5 fee income row below.
			startBlock: wholeUnits(2),
			endBlock:   big.NewInt(0).Add(wholeUnits(2), big.NewInt(5e17)),
		},
		lpt: map[uint64]*big.Int{
			// Ending LPT shrinks by the 25 LPT bond below.
			startBlock: wholeUnits(100),
			endBlock:   wholeUnits(75),
		},
	}
	snapshots := &fakeSnapshots{byBlock: map[uint64]*snapshot.Delegator{
		startBlock: {PendingStake: 100, PendingFees: 1},
		endBlock:   {PendingStake: 106, PendingFees: 1.5},
	}}
	walker := &fakeWalker{rows: []ledger.Row{
		rowAt(1700000100, ledger.Direction_Incoming, ledger.Currency_ETH, 0.5, "pending fees"),
	}}

	t.Run("Test a full run with reconciling balances", func(t *testing.T) {
		sources := []events.Source{
			&fakeSource{name: "bond", rows: []ledger.Row{
				rowAt(1700000200, ledger.Direction_Outgoing, ledger.Currency_LPT, 25, "bond"),
			}},
		}
		builder := newBuilder(balances, snapshots, walker, sources)

		result, err := builder.Run(context.Background())
		assert.NoError(t, err)
		assert.True(t, result.Reconciled)
		assert.Len(t, result.Rows, 2)
		assert.NotEmpty(t, result.RunId)
		assert.Equal(t, startBlock, result.StartBlock)

		// The fee row is wallet-neutral here only in LPT terms; ETH grows.
		assert.Equal(t, 2.5, result.Rows[len(result.Rows)-1].CumulativeBalanceEth)
		assert.Equal(t, 75.0, result.Rows[len(result.Rows)-1].CumulativeBalanceLpt)

		rewards, ok := result.Overview.Get("accumulated rewards (LPT)")
		assert.True(t, ok)
		assert.Equal(t, "6", rewards)
		rewardsValue, ok := result.Overview.Get("accumulated rewards value (EUR)")
		assert.True(t, ok)
		assert.Equal(t, "60", rewardsValue)
	})
	t.Run("Test that a failing category is skipped, not fatal", func(t *testing.T) {
		sources := []events.Source{
			&fakeSource{name: "wallet transfer", fail: true},
			&fakeSource{name: "bond", rows: []ledger.Row{
				rowAt(1700000200, ledger.Direction_Outgoing, ledger.Currency_LPT, 25, "bond"),
			}},
		}
		builder := newBuilder(balances, snapshots, walker, sources)

		result, err := builder.Run(context.Background())
		assert.NoError(t, err)
		assert.Len(t, result.Rows, 2)
	})
	t.Run("Test that an all-empty run is the no income terminal state", func(t *testing.T) {
		builder := newBuilder(balances, snapshots, &fakeWalker{}, nil)

		_, err := builder.Run(context.Background())
		assert.ErrorIs(t, err, ledger.ErrNoIncomeData)
	})
	t.Run("Test that a resolution failure is fatal", func(t *testing.T) {
		builder := newBuilder(balances, snapshots, walker, nil)
		builder.resolver = &fakeResolver{fail: true}

		_, err := builder.Run(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve the window start")
	})
	t.Run("Test that a balance mismatch flags the report", func(t *testing.T) {
		drifted := &fakeBalances{
			eth: balances.eth,
			lpt: map[uint64]*big.Int{
				startBlock: wholeUnits(100),
				endBlock:   wholeUnits(80),
			},
		}
		sources := []events.Source{
			&fakeSource{name: "bond", rows: []ledger.Row{
				rowAt(1700000200, ledger.Direction_Outgoing, ledger.Currency_LPT, 25, "bond"),
			}},
		}
		builder := newBuilder(drifted, snapshots, walker, sources)

		result, err := builder.Run(context.Background())
		assert.NoError(t, err)
		assert.False(t, result.Reconciled)
	})
	t.Run("Test exporting the report to csv files", func(t *testing.T) {
		sources := []events.Source{
			&fakeSource{name: "bond", rows: []ledger.Row{
				rowAt(1700000200, ledger.Direction_Outgoing, ledger.Currency_LPT, 25, "bond"),
			}},
		}
		builder := newBuilder(balances, snapshots, walker, sources)

		result, err := builder.Run(context.Background())
		assert.NoError(t, err)

		outputDir := t.TempDir()
		assert.NoError(t, result.Export(outputDir))

		for _, name := range []string{"overview.csv", "transactions.csv", "transactions_lpt.csv", "transactions_eth.csv"} {
			contents, err := os.ReadFile(filepath.Join(outputDir, name))
			assert.NoError(t, err)
			assert.NotEmpty(t, contents)
		}

		transactions, err := os.ReadFile(filepath.Join(outputDir, "transactions.csv"))
		assert.NoError(t, err)
		assert.Contains(t, string(transactions), "cumulative_balance_lpt")
		assert.Contains(t, string(transactions), "bond")
	})
}

type fakeHead struct{}

func (f *fakeHead) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	return 150000000, nil
}

func (f *fakeHead) GetBalance(ctx context.Context, address string, blockNumber uint64) (*big.Int, error) {
	return wholeUnits(2), nil
}

type fakeStake struct{}

func (f *fakeStake) CurrentRound(ctx context.Context, blockNumber uint64) (*big.Int, error) {
	return big.NewInt(3100), nil
}

func (f *fakeStake) BalanceOf(ctx context.Context, wallet string, blockNumber uint64) (*big.Int, error) {
	return wholeUnits(40), nil
}

func (f *fakeStake) PendingStake(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error) {
	return wholeUnits(100), nil
}

func (f *fakeStake) PendingFees(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error) {
	return big.NewInt(5e17), nil
}

func Test_BalanceReporter(t *testing.T) {
	t.Run("Test a full balance report", func(t *testing.T) {
		reporter := NewBalanceReporter(&fakeHead{}, &fakeStake{}, &fakePrices{}, zap.NewNop())

		balance, err := reporter.Report(context.Background(), delegator, 1700000000, "EUR")
		assert.NoError(t, err)
		assert.Equal(t, uint64(150000000), balance.Block)
		assert.Equal(t, uint64(3100), balance.Round)
		assert.Equal(t, 2.0, balance.EthBalance)
		assert.Equal(t, 40.0, balance.UnbondedLpt)
		assert.Equal(t, 100.0, balance.BondedLpt)
		assert.Equal(t, 0.5, balance.UnclaimedFees)
		assert.Equal(t, 3600.0, balance.EthValue)
		assert.Equal(t, 900.0, balance.FeesValue)
		assert.Equal(t, 1400.0, balance.LptValue)
		assert.Equal(t, 5900.0, balance.TotalValue)

		overview := balance.Overview()
		total, ok := overview.Get("total value (EUR)")
		assert.True(t, ok)
		assert.Equal(t, "5900", total)
	})
}
