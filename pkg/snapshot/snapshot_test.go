package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lpt-tools/delegator-ledger/pkg/contractCaller"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeContracts struct {
	failPendingStake bool
	failDelegator    bool
}

func (f *fakeContracts) GetDelegator(ctx context.Context, delegator string, blockNumber uint64) (*contractCaller.DelegatorInfo, error) {
	if f.failDelegator {
		return nil, fmt.Errorf("execution reverted")
	}
	return &contractCaller.DelegatorInfo{
		BondedAmount:        big.NewInt(0).Mul(big.NewInt(100), big.NewInt(1e18)),
		Fees:                big.NewInt(0).Mul(big.NewInt(2), big.NewInt(1e18)),
		DelegateAddress:     common.HexToAddress("0x4a1c83b689816e40b695e2f2ce8fc21229076e74"),
		DelegatedAmount:     big.NewInt(0),
		StartRound:          big.NewInt(2500),
		LastClaimRound:      big.NewInt(3000),
		NextUnbondingLockId: big.NewInt(4),
	}, nil
}

func (f *fakeContracts) CurrentRound(ctx context.Context, blockNumber uint64) (*big.Int, error) {
	return big.NewInt(3100), nil
}

func (f *fakeContracts) PendingStake(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error) {
	if f.failPendingStake {
		return nil, fmt.Errorf("retries exhausted")
	}
	if endRound.Int64() != 3100 {
		return nil, fmt.Errorf("unexpected end round %s", endRound)
	}
	return big.NewInt(0).Mul(big.NewInt(105), big.NewInt(1e18)), nil
}

func (f *fakeContracts) PendingFees(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error) {
	return big.NewInt(25e17), nil
}

func Test_Fetcher(t *testing.T) {
	delegator := "0xDE10000000000000000000000000000000000001"

	t.Run("Test taking a full snapshot", func(t *testing.T) {
		fetcher := NewFetcher(&fakeContracts{}, zap.NewNop())

		snap, err := fetcher.Snapshot(context.Background(), delegator, 150000000)
		assert.NoError(t, err)
		assert.NotNil(t, snap)
		assert.Equal(t, 100.0, snap.BondedAmount)
		assert.Equal(t, 2.0, snap.Fees)
		assert.Equal(t, 105.0, snap.PendingStake)
		assert.Equal(t, 2.5, snap.PendingFees)
		assert.Equal(t, uint64(3000), snap.LastClaimRound)
	})
	t.Run("Test that a failed delegator read yields a nil snapshot", func(t *testing.T) {
		fetcher := NewFetcher(&fakeContracts{failDelegator: true}, zap.NewNop())

		snap, err := fetcher.Snapshot(context.Background(), delegator, 150000000)
		assert.NoError(t, err)
		assert.Nil(t, snap)
	})
	t.Run("Test that a failed pending stake read yields a nil snapshot", func(t *testing.T) {
		fetcher := NewFetcher(&fakeContracts{failPendingStake: true}, zap.NewNop())

		snap, err := fetcher.Snapshot(context.Background(), delegator, 150000000)
		assert.NoError(t, err)
		assert.Nil(t, snap)
	})
}
