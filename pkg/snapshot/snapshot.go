package snapshot

import (
	"context"
	"math/big"

	"github.com/lpt-tools/delegator-ledger/pkg/contractCaller"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"go.uber.org/zap"
)

// Delegator is a point-in-time view of a delegator's staking position,
// denominated in whole units. It is never mutated after creation.
type Delegator struct {
	BondedAmount        float64
	Fees                float64
	DelegateAddress     string
	DelegatedAmount     float64
	StartRound          uint64
	LastClaimRound      uint64
	NextUnbondingLockId uint64
	PendingStake        float64
	PendingFees         float64
}

// ContractReader is the subset of staking contract reads a snapshot needs.
type ContractReader interface {
	GetDelegator(ctx context.Context, delegator string, blockNumber uint64) (*contractCaller.DelegatorInfo, error)
	CurrentRound(ctx context.Context, blockNumber uint64) (*big.Int, error)
	PendingStake(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error)
	PendingFees(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error)
}

type Fetcher struct {
	Logger *zap.Logger

	contracts ContractReader
}

func NewFetcher(contracts ContractReader, l *zap.Logger) *Fetcher {
	return &Fetcher{
		Logger:    l,
		contracts: contracts,
	}
}

// Snapshot reads the delegator's full staking position at one block. On any
// failure it returns (nil, nil) so that callers can skip the block and keep
// walking the window.
func (f *Fetcher) Snapshot(ctx context.Context, delegator string, blockNumber uint64) (*Delegator, error) {
	info, err := f.contracts.GetDelegator(ctx, delegator, blockNumber)
	if err != nil {
		f.Logger.Sugar().Warnw("Failed to fetch delegator info, skipping block",
			zap.String("delegator", delegator),
			zap.Uint64("blockNumber", blockNumber),
			zap.Error(err),
		)
		return nil, nil
	}

	endRound, err := f.contracts.CurrentRound(ctx, blockNumber)
	if err != nil {
		f.Logger.Sugar().Warnw("Failed to fetch the current round, skipping block",
			zap.Uint64("blockNumber", blockNumber),
			zap.Error(err),
		)
		return nil, nil
	}

	pendingStake, err := f.contracts.PendingStake(ctx, delegator, endRound, blockNumber)
	if err != nil {
		f.Logger.Sugar().Warnw("Failed to fetch pending stake, skipping block",
			zap.String("delegator", delegator),
			zap.Uint64("blockNumber", blockNumber),
			zap.Error(err),
		)
		return nil, nil
	}

	pendingFees, err := f.contracts.PendingFees(ctx, delegator, endRound, blockNumber)
	if err != nil {
		f.Logger.Sugar().Warnw("Failed to fetch pending fees, skipping block",
			zap.String("delegator", delegator),
			zap.Uint64("blockNumber", blockNumber),
			zap.Error(err),
		)
		return nil, nil
	}

	return &Delegator{
		BondedAmount:        numbers.FromWei(info.BondedAmount),
		Fees:                numbers.FromWei(info.Fees),
		DelegateAddress:     info.DelegateAddress.Hex(),
		DelegatedAmount:     numbers.FromWei(info.DelegatedAmount),
		StartRound:          info.StartRound.Uint64(),
		LastClaimRound:      info.LastClaimRound.Uint64(),
		NextUnbondingLockId: info.NextUnbondingLockId.Uint64(),
		PendingStake:        numbers.FromWei(pendingStake),
		PendingFees:         numbers.FromWei(pendingFees),
	}, nil
}
