package rounds

import (
	"context"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"github.com/lpt-tools/delegator-ledger/pkg/snapshot"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type SnapshotFetcher interface {
	Snapshot(ctx context.Context, delegator string, blockNumber uint64) (*snapshot.Delegator, error)
}

type PriceFetcher interface {
	Price(ctx context.Context, symbol string, target string, timestamp int64) (float64, error)
}

type Reconstructor struct {
	Logger *zap.Logger

	snapshots    SnapshotFetcher
	prices       PriceFetcher
	showProgress bool
}

func NewReconstructor(snapshots SnapshotFetcher, prices PriceFetcher, showProgress bool, l *zap.Logger) *Reconstructor {
	return &Reconstructor{
		Logger:       l,
		snapshots:    snapshots,
		prices:       prices,
		showProgress: showProgress,
	}
}

// Reconstruct walks the rounds of a window in ascending order and derives the
// delegator's round-over-round reward and fee income. Rounds whose snapshot
// cannot be fetched are skipped without advancing the comparison baseline, so
// their income shows up on the next successfully processed round. Income
// deltas are clamped at zero to absorb snapshot noise. Accumulated totals are
// always relative to the window-start snapshot.
func (r *Reconstructor) Reconstruct(ctx context.Context, delegator string, rounds []ledger.Round, currency string, windowStart *snapshot.Delegator) ([]ledger.Row, error) {
	rows := make([]ledger.Row, 0)
	previous := windowStart

	var bar *progressbar.ProgressBar
	if r.showProgress {
		bar = progressbar.Default(int64(len(rounds)), "rounds")
	}

	for _, round := range rounds {
		if bar != nil {
			_ = bar.Add(1)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := r.snapshots.Snapshot(ctx, delegator, round.StartBlock)
		if err != nil {
			return nil, err
		}
		if current == nil {
			r.Logger.Sugar().Warnw("Skipping round with no snapshot",
				zap.String("round", round.Id),
				zap.Uint64("startBlock", round.StartBlock),
			)
			continue
		}

		rewardIncome := clampZero(current.PendingStake - previous.PendingStake)
		feeIncome := clampZero(current.PendingFees - previous.PendingFees)
		accumulatedRewards := clampZero(current.PendingStake - windowStart.PendingStake)
		accumulatedFees := clampZero(current.PendingFees - windowStart.PendingFees)

		if rewardIncome > 0 {
			rows = append(rows, r.incomeRow(ctx, round, currency, ledger.Currency_LPT, "pending rewards", "pendingStake", rewardIncome, current, accumulatedRewards, accumulatedFees))
		}
		if feeIncome > 0 {
			rows = append(rows, r.incomeRow(ctx, round, currency, ledger.Currency_ETH, "pending fees", "pendingFees", feeIncome, current, accumulatedRewards, accumulatedFees))
		}

		previous = current
	}

	return rows, nil
}

func (r *Reconstructor) incomeRow(
	ctx context.Context,
	round ledger.Round,
	currency string,
	asset ledger.Currency,
	transactionType string,
	sourceFunction string,
	amount float64,
	current *snapshot.Delegator,
	accumulatedRewards float64,
	accumulatedFees float64,
) ledger.Row {
	row := ledger.Row{
		Timestamp:          time.Unix(round.StartTimestamp, 0).UTC(),
		Round:              round.Id,
		Direction:          ledger.Direction_Incoming,
		TransactionType:    transactionType,
		Currency:           asset,
		Amount:             amount,
		PendingRewards:     current.PendingStake,
		PendingFees:        current.PendingFees,
		AccumulatedRewards: accumulatedRewards,
		AccumulatedFees:    accumulatedFees,
		SourceFunction:     sourceFunction,
	}

	price, err := r.prices.Price(ctx, string(asset), currency, round.StartTimestamp)
	if err != nil {
		r.Logger.Sugar().Warnw("Failed to price an income row",
			zap.String("round", round.Id),
			zap.String("asset", string(asset)),
			zap.Error(err),
		)
		return row
	}
	value := numbers.FiatValue(amount, price)
	row.Price = &price
	row.Value = &value
	return row
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
