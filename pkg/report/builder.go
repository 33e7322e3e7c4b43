package report

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/lpt-tools/delegator-ledger/pkg/events"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"github.com/lpt-tools/delegator-ledger/pkg/snapshot"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

// ReconciliationTolerance absorbs float rounding across the merge pass.
const ReconciliationTolerance = 1e-6

type BlockResolver interface {
	Resolve(ctx context.Context, timestamp int64) (uint64, error)
}

type BalanceReader interface {
	GetBalance(ctx context.Context, address string, blockNumber uint64) (*big.Int, error)
}

type TokenBalanceReader interface {
	BalanceOf(ctx context.Context, wallet string, blockNumber uint64) (*big.Int, error)
}

type SnapshotFetcher interface {
	Snapshot(ctx context.Context, delegator string, blockNumber uint64) (*snapshot.Delegator, error)
}

type RoundLister interface {
	FetchRounds(ctx context.Context, window ledger.Window) ([]ledger.Round, error)
}

type RoundWalker interface {
	Reconstruct(ctx context.Context, delegator string, rounds []ledger.Round, currency string, windowStart *snapshot.Delegator) ([]ledger.Row, error)
}

type PriceFetcher interface {
	Price(ctx context.Context, symbol string, target string, timestamp int64) (float64, error)
}

type Builder struct {
	Logger *zap.Logger

	resolver  BlockResolver
	balances  BalanceReader
	tokens    TokenBalanceReader
	snapshots SnapshotFetcher
	rounds    RoundLister
	walker    RoundWalker
	sources   []events.Source
	prices    PriceFetcher

	delegator string
	currency  string
	window    ledger.Window
}

func NewBuilder(
	resolver BlockResolver,
	balances BalanceReader,
	tokens TokenBalanceReader,
	snapshots SnapshotFetcher,
	rounds RoundLister,
	walker RoundWalker,
	sources []events.Source,
	prices PriceFetcher,
	delegator string,
	currency string,
	window ledger.Window,
	l *zap.Logger,
) *Builder {
	return &Builder{
		Logger:    l,
		resolver:  resolver,
		balances:  balances,
		tokens:    tokens,
		snapshots: snapshots,
		rounds:    rounds,
		walker:    walker,
		sources:   sources,
		prices:    prices,
		delegator: delegator,
		currency:  currency,
		window:    window,
	}
}

// Run performs one full reconstruction. Boundary reads are fatal, everything
// downstream degrades per item. The only non-error terminal state is
// ledger.ErrNoIncomeData when every data source came back empty.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	startBlock, err := b.resolver.Resolve(ctx, b.window.StartTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve the window start")
	}
	endBlock, err := b.resolver.Resolve(ctx, b.window.EndTimestamp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve the window end")
	}
	b.Logger.Sugar().Infow("Resolved the report window",
		zap.Uint64("startBlock", startBlock),
		zap.Uint64("endBlock", endBlock),
	)

	startingEth, err := b.nativeBalance(ctx, startBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the starting ETH balance")
	}
	endingEth, err := b.nativeBalance(ctx, endBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the ending ETH balance")
	}
	startingLpt, err := b.tokenBalance(ctx, startBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the starting LPT balance")
	}
	endingLpt, err := b.tokenBalance(ctx, endBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the ending LPT balance")
	}

	startSnapshot, err := b.boundarySnapshot(ctx, startBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the starting snapshot")
	}
	endSnapshot, err := b.boundarySnapshot(ctx, endBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the ending snapshot")
	}

	rounds, err := b.rounds.FetchRounds(ctx, b.window)
	if err != nil {
		b.Logger.Sugar().Warnw("Failed to list the window's rounds, skipping round income",
			zap.Error(err),
		)
		rounds = nil
	}

	var rewardRows, feeRows []ledger.Row
	if len(rounds) > 0 {
		roundRows, err := b.walker.Reconstruct(ctx, b.delegator, rounds, b.currency, startSnapshot)
		if err != nil {
			return nil, errors.Wrap(err, "failed to reconstruct round income")
		}
		for _, row := range roundRows {
			if row.Currency == ledger.Currency_LPT {
				rewardRows = append(rewardRows, row)
			} else {
				feeRows = append(feeRows, row)
			}
		}
	}

	rowSets := [][]ledger.Row{rewardRows, feeRows}
	for _, source := range b.sources {
		rows, err := source.Collect(ctx, b.currency)
		if err != nil {
			b.Logger.Sugar().Warnw("Failed to collect an event category, skipping it",
				zap.String("category", source.Name()),
				zap.Error(err),
			)
			continue
		}
		b.Logger.Sugar().Infow("Collected an event category",
			zap.String("category", source.Name()),
			zap.Int("rows", len(rows)),
		)
		rowSets = append(rowSets, rows)
	}

	merged, err := ledger.Merge(rowSets, startingEth, startingLpt)
	if err != nil {
		return nil, err
	}

	reconciled := true
	if err := ledger.Reconcile(merged, endingEth, endingLpt, ReconciliationTolerance); err != nil {
		b.Logger.Sugar().Warnw("The reconstructed ledger does not reconcile with the ending balances",
			zap.Error(err),
		)
		reconciled = false
	}

	report := &Report{
		RunId:      uuid.New().String(),
		Delegator:  b.delegator,
		Currency:   b.currency,
		Window:     b.window,
		StartBlock: startBlock,
		EndBlock:   endBlock,
		Rows:       merged,
		Reconciled: reconciled,
	}
	report.Overview = b.buildOverview(ctx, report, startingEth, endingEth, startingLpt, endingLpt, startSnapshot, endSnapshot)
	return report, nil
}

func (b *Builder) nativeBalance(ctx context.Context, blockNumber uint64) (float64, error) {
	wei, err := b.balances.GetBalance(ctx, b.delegator, blockNumber)
	if err != nil {
		return 0, err
	}
	return numbers.FromWei(wei), nil
}

func (b *Builder) tokenBalance(ctx context.Context, blockNumber uint64) (float64, error) {
	amount, err := b.tokens.BalanceOf(ctx, b.delegator, blockNumber)
	if err != nil {
		return 0, err
	}
	return numbers.FromWei(amount), nil
}

func (b *Builder) boundarySnapshot(ctx context.Context, blockNumber uint64) (*snapshot.Delegator, error) {
	snap, err := b.snapshots.Snapshot(ctx, b.delegator, blockNumber)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("no snapshot available at block %d", blockNumber)
	}
	return snap, nil
}

// boundaryValue prices an amount at the window end. A failed lookup is worth
// a warning, not an abort; the overview then shows a zero value.
func (b *Builder) boundaryValue(ctx context.Context, asset ledger.Currency, amount float64) float64 {
	price, err := b.prices.Price(ctx, string(asset), b.currency, b.window.EndTimestamp)
	if err != nil {
		b.Logger.Sugar().Warnw("Failed to price an overview total",
			zap.String("asset", string(asset)),
			zap.Error(err),
		)
		return 0
	}
	return numbers.FiatValue(amount, price)
}

func (b *Builder) buildOverview(
	ctx context.Context,
	report *Report,
	startingEth float64,
	endingEth float64,
	startingLpt float64,
	endingLpt float64,
	startSnapshot *snapshot.Delegator,
	endSnapshot *snapshot.Delegator,
) *orderedmap.OrderedMap[string, string] {
	accumulatedRewards := endSnapshot.PendingStake - startSnapshot.PendingStake
	if accumulatedRewards < 0 {
		accumulatedRewards = 0
	}
	accumulatedFees := endSnapshot.PendingFees - startSnapshot.PendingFees
	if accumulatedFees < 0 {
		accumulatedFees = 0
	}
	rewardsValue := b.boundaryValue(ctx, ledger.Currency_LPT, accumulatedRewards)
	feesValue := b.boundaryValue(ctx, ledger.Currency_ETH, accumulatedFees)

	overview := orderedmap.New[string, string]()
	overview.Set("delegator", report.Delegator)
	overview.Set("currency", report.Currency)
	overview.Set("window start", formatTime(report.Window.StartTimestamp))
	overview.Set("window end", formatTime(report.Window.EndTimestamp))
	overview.Set("start block", fmt.Sprintf("%d", report.StartBlock))
	overview.Set("end block", fmt.Sprintf("%d", report.EndBlock))
	overview.Set("starting ETH balance", formatAmount(startingEth))
	overview.Set("ending ETH balance", formatAmount(endingEth))
	overview.Set("starting LPT balance", formatAmount(startingLpt))
	overview.Set("ending LPT balance", formatAmount(endingLpt))
	overview.Set("starting pending stake (LPT)", formatAmount(startSnapshot.PendingStake))
	overview.Set("ending pending stake (LPT)", formatAmount(endSnapshot.PendingStake))
	overview.Set("starting pending fees (ETH)", formatAmount(startSnapshot.PendingFees))
	overview.Set("ending pending fees (ETH)", formatAmount(endSnapshot.PendingFees))
	overview.Set("accumulated rewards (LPT)", formatAmount(accumulatedRewards))
	overview.Set(fmt.Sprintf("accumulated rewards value (%s)", report.Currency), formatAmount(rewardsValue))
	overview.Set("accumulated fees (ETH)", formatAmount(accumulatedFees))
	overview.Set(fmt.Sprintf("accumulated fees value (%s)", report.Currency), formatAmount(feesValue))
	overview.Set(fmt.Sprintf("total income value (%s)", report.Currency), formatAmount(rewardsValue+feesValue))
	overview.Set("ledger rows", fmt.Sprintf("%d", len(report.Rows)))
	overview.Set("balances reconciled", fmt.Sprintf("%t", report.Reconciled))
	return overview
}
