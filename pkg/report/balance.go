package report

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type HeadReader interface {
	GetBlockNumberUint64(ctx context.Context) (uint64, error)
	GetBalance(ctx context.Context, address string, blockNumber uint64) (*big.Int, error)
}

type StakeReader interface {
	CurrentRound(ctx context.Context, blockNumber uint64) (*big.Int, error)
	BalanceOf(ctx context.Context, wallet string, blockNumber uint64) (*big.Int, error)
	PendingStake(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error)
	PendingFees(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error)
}

// Balance is the delegator's complete position at the current head,
// everything the wallet holds plus everything still parked in the staking
// contract.
type Balance struct {
	Block         uint64
	Round         uint64
	Currency      string
	EthBalance    float64
	EthValue      float64
	UnbondedLpt   float64
	BondedLpt     float64
	UnclaimedFees float64
	LptValue      float64
	FeesValue     float64
	TotalValue    float64
}

type BalanceReporter struct {
	Logger *zap.Logger

	head   HeadReader
	stake  StakeReader
	prices PriceFetcher
}

func NewBalanceReporter(head HeadReader, stake StakeReader, prices PriceFetcher, l *zap.Logger) *BalanceReporter {
	return &BalanceReporter{
		Logger: l,
		head:   head,
		stake:  stake,
		prices: prices,
	}
}

// Report reads the delegator's position at the chain head and values it in
// the target currency at the given timestamp. All reads here are fatal;
// there is no meaningful partial balance.
func (r *BalanceReporter) Report(ctx context.Context, delegator string, timestamp int64, currency string) (*Balance, error) {
	block, err := r.head.GetBlockNumberUint64(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the head block number")
	}
	round, err := r.stake.CurrentRound(ctx, block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the current round")
	}

	ethWei, err := r.head.GetBalance(ctx, delegator, block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the ETH balance")
	}
	unbonded, err := r.stake.BalanceOf(ctx, delegator, block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the unbonded LPT balance")
	}
	bonded, err := r.stake.PendingStake(ctx, delegator, round, block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the bonded LPT balance")
	}
	fees, err := r.stake.PendingFees(ctx, delegator, round, block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the unclaimed fees")
	}

	ethPrice, err := r.prices.Price(ctx, string(ledger.Currency_ETH), currency, timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the ETH price")
	}
	lptPrice, err := r.prices.Price(ctx, string(ledger.Currency_LPT), currency, timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch the LPT price")
	}

	balance := &Balance{
		Block:         block,
		Round:         round.Uint64(),
		Currency:      currency,
		EthBalance:    numbers.FromWei(ethWei),
		UnbondedLpt:   numbers.FromWei(unbonded),
		BondedLpt:     numbers.FromWei(bonded),
		UnclaimedFees: numbers.FromWei(fees),
	}
	balance.EthValue = numbers.FiatValue(balance.EthBalance, ethPrice)
	balance.FeesValue = numbers.FiatValue(balance.UnclaimedFees, ethPrice)
	balance.LptValue = numbers.FiatValue(balance.UnbondedLpt+balance.BondedLpt, lptPrice)
	balance.TotalValue = balance.EthValue + balance.FeesValue + balance.LptValue
	return balance, nil
}

// Overview flattens a balance into labeled rows for display and export.
func (b *Balance) Overview() *orderedmap.OrderedMap[string, string] {
	overview := orderedmap.New[string, string]()
	overview.Set("block", fmt.Sprintf("%d", b.Block))
	overview.Set("round", fmt.Sprintf("%d", b.Round))
	overview.Set("ETH balance", formatAmount(b.EthBalance))
	overview.Set("unbonded LPT", formatAmount(b.UnbondedLpt))
	overview.Set("bonded LPT", formatAmount(b.BondedLpt))
	overview.Set("unclaimed fees (ETH)", formatAmount(b.UnclaimedFees))
	overview.Set(fmt.Sprintf("ETH value (%s)", b.Currency), formatAmount(b.EthValue+b.FeesValue))
	overview.Set(fmt.Sprintf("LPT value (%s)", b.Currency), formatAmount(b.LptValue))
	overview.Set(fmt.Sprintf("total value (%s)", b.Currency), formatAmount(b.TotalValue))
	return overview
}
