package contractCaller

import (
	"context"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lpt-tools/delegator-ledger/pkg/backoff"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Livepeer protocol contracts on Arbitrum One.
const (
	BondingManagerAddress = "0x35Bcf3c30594191d53231E4FF333E8A770453e40"
	RoundsManagerAddress  = "0xdd6f56DcC28D3F5f27084381fE8Df634985cc39f"
	LptTokenAddress       = "0x289ba1701C2F088cf0faf8B3705246331cB8A839"
)

const BondingManagerAbi = `[
	{"inputs":[{"name":"_delegator","type":"address"}],"name":"getDelegator","outputs":[{"name":"bondedAmount","type":"uint256"},{"name":"fees","type":"uint256"},{"name":"delegateAddress","type":"address"},{"name":"delegatedAmount","type":"uint256"},{"name":"startRound","type":"uint256"},{"name":"lastClaimRound","type":"uint256"},{"name":"nextUnbondingLockId","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"_addr","type":"address"},{"name":"_endRound","type":"uint256"}],"name":"pendingStake","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"_addr","type":"address"},{"name":"_endRound","type":"uint256"}],"name":"pendingFees","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const RoundsManagerAbi = `[
	{"inputs":[],"name":"currentRound","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const LptTokenAbi = `[
	{"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// DelegatorInfo is the raw getDelegator tuple, in smallest units.
type DelegatorInfo struct {
	BondedAmount        *big.Int
	Fees                *big.Int
	DelegateAddress     common.Address
	DelegatedAmount     *big.Int
	StartRound          *big.Int
	LastClaimRound      *big.Int
	NextUnbondingLockId *big.Int
}

type ContractCaller struct {
	Logger *zap.Logger

	bondingManager *bind.BoundContract
	roundsManager  *bind.BoundContract
	lptToken       *bind.BoundContract
}

func NewContractCaller(backend bind.ContractCaller, l *zap.Logger) (*ContractCaller, error) {
	bondingAbi, err := abi.JSON(strings.NewReader(BondingManagerAbi))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BondingManager abi")
	}
	roundsAbi, err := abi.JSON(strings.NewReader(RoundsManagerAbi))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse RoundsManager abi")
	}
	tokenAbi, err := abi.JSON(strings.NewReader(LptTokenAbi))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse LPT token abi")
	}

	return &ContractCaller{
		Logger:         l,
		bondingManager: bind.NewBoundContract(common.HexToAddress(BondingManagerAddress), bondingAbi, backend, nil, nil),
		roundsManager:  bind.NewBoundContract(common.HexToAddress(RoundsManagerAddress), roundsAbi, backend, nil, nil),
		lptToken:       bind.NewBoundContract(common.HexToAddress(LptTokenAddress), tokenAbi, backend, nil, nil),
	}, nil
}

var executionRevertedRe = regexp.MustCompile(`execution reverted`)

func isExecutionRevertedError(err error) bool {
	return executionRevertedRe.MatchString(err.Error())
}

func (cc *ContractCaller) callAtBlock(ctx context.Context, contract *bind.BoundContract, method string, blockNumber uint64, args ...interface{}) ([]interface{}, error) {
	return backoff.Retry(ctx, cc.Logger, method, func() ([]interface{}, error) {
		results := make([]interface{}, 0)
		opts := &bind.CallOpts{
			BlockNumber: new(big.Int).SetUint64(blockNumber),
			Context:     ctx,
		}
		if err := contract.Call(opts, &results, method, args...); err != nil {
			if isExecutionRevertedError(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return results, nil
	})
}

// GetDelegator fetches the BondingManager delegator tuple at a block.
func (cc *ContractCaller) GetDelegator(ctx context.Context, delegator string, blockNumber uint64) (*DelegatorInfo, error) {
	results, err := cc.callAtBlock(ctx, cc.bondingManager, "getDelegator", blockNumber, common.HexToAddress(delegator))
	if err != nil {
		return nil, err
	}

	return &DelegatorInfo{
		BondedAmount:        results[0].(*big.Int),
		Fees:                results[1].(*big.Int),
		DelegateAddress:     results[2].(common.Address),
		DelegatedAmount:     results[3].(*big.Int),
		StartRound:          results[4].(*big.Int),
		LastClaimRound:      results[5].(*big.Int),
		NextUnbondingLockId: results[6].(*big.Int),
	}, nil
}

// PendingStake returns the delegator's not-yet-claimed stake, in smallest
// units, as of endRound, read at blockNumber.
func (cc *ContractCaller) PendingStake(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error) {
	results, err := cc.callAtBlock(ctx, cc.bondingManager, "pendingStake", blockNumber, common.HexToAddress(delegator), endRound)
	if err != nil {
		return nil, err
	}
	return results[0].(*big.Int), nil
}

// PendingFees returns the delegator's not-yet-claimed fees, in wei, as of
// endRound, read at blockNumber.
func (cc *ContractCaller) PendingFees(ctx context.Context, delegator string, endRound *big.Int, blockNumber uint64) (*big.Int, error) {
	results, err := cc.callAtBlock(ctx, cc.bondingManager, "pendingFees", blockNumber, common.HexToAddress(delegator), endRound)
	if err != nil {
		return nil, err
	}
	return results[0].(*big.Int), nil
}

// CurrentRound returns the protocol round in effect at blockNumber.
func (cc *ContractCaller) CurrentRound(ctx context.Context, blockNumber uint64) (*big.Int, error) {
	results, err := cc.callAtBlock(ctx, cc.roundsManager, "currentRound", blockNumber)
	if err != nil {
		return nil, err
	}
	return results[0].(*big.Int), nil
}

// BalanceOf returns the wallet's unbonded LPT balance at blockNumber, in
// smallest units.
func (cc *ContractCaller) BalanceOf(ctx context.Context, wallet string, blockNumber uint64) (*big.Int, error) {
	results, err := cc.callAtBlock(ctx, cc.lptToken, "balanceOf", blockNumber, common.HexToAddress(wallet))
	if err != nil {
		return nil, err
	}
	return results[0].(*big.Int), nil
}
