package resolver

import (
	"context"
	"errors"

	"github.com/lpt-tools/delegator-ledger/pkg/clients/ethereum"
	"go.uber.org/zap"
)

var (
	// ErrBeforeRetainedHistory is returned when the requested timestamp
	// precedes the earliest block the node retains.
	ErrBeforeRetainedHistory = errors.New("timestamp precedes retained chain history")
	// ErrAfterHead is returned when the requested timestamp is in the future
	// relative to the current head.
	ErrAfterHead = errors.New("timestamp is after the current head block")
)

// BlockReader is the slice of the RPC client the resolver needs.
type BlockReader interface {
	GetBlockNumberUint64(ctx context.Context) (uint64, error)
	GetBlockByNumber(ctx context.Context, blockNumber uint64) (*ethereum.EthereumBlock, error)
}

type Resolver struct {
	reader BlockReader
	logger *zap.Logger
}

func NewResolver(reader BlockReader, l *zap.Logger) *Resolver {
	return &Resolver{
		reader: reader,
		logger: l,
	}
}

// Resolve maps a unix timestamp to the highest block whose on-chain timestamp
// is <= the requested timestamp, by binary search over the monotonically
// increasing block-timestamp sequence.
func (r *Resolver) Resolve(ctx context.Context, timestamp int64) (uint64, error) {
	head, err := r.reader.GetBlockNumberUint64(ctx)
	if err != nil {
		return 0, err
	}

	headBlock, err := r.reader.GetBlockByNumber(ctx, head)
	if err != nil {
		return 0, err
	}
	if uint64(timestamp) > headBlock.Timestamp.Value() {
		return 0, ErrAfterHead
	}

	earliestBlock, err := r.reader.GetBlockByNumber(ctx, 1)
	if err != nil {
		return 0, err
	}
	if uint64(timestamp) < earliestBlock.Timestamp.Value() {
		return 0, ErrBeforeRetainedHistory
	}

	lo := uint64(1)
	hi := head
	for lo < hi {
		// Bias the midpoint up so the search converges on the highest block
		// with timestamp <= the target.
		mid := lo + (hi-lo+1)/2
		block, err := r.reader.GetBlockByNumber(ctx, mid)
		if err != nil {
			return 0, err
		}
		if block.Timestamp.Value() <= uint64(timestamp) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	r.logger.Sugar().Debugw("Resolved timestamp to block",
		zap.Int64("timestamp", timestamp),
		zap.Uint64("blockNumber", lo),
	)
	return lo, nil
}
