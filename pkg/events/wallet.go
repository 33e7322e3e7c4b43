package events

import (
	"context"
	"strconv"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/clients/arbiscan"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"go.uber.org/zap"
)

type BlockResolver interface {
	Resolve(ctx context.Context, timestamp int64) (uint64, error)
}

type TransactionLister interface {
	ListTransactions(ctx context.Context, address string, startBlock uint64, endBlock uint64) ([]*arbiscan.NormalTransaction, error)
	ListTokenTransfers(ctx context.Context, address string, contractAddress string, startBlock uint64, endBlock uint64) ([]*arbiscan.TokenTransfer, error)
}

type WalletSource struct {
	Logger *zap.Logger

	lister       TransactionLister
	resolver     BlockResolver
	prices       PriceFetcher
	delegator    string
	tokenAddress string
	window       ledger.Window
}

func NewWalletSource(
	lister TransactionLister,
	resolver BlockResolver,
	prices PriceFetcher,
	delegator string,
	tokenAddress string,
	window ledger.Window,
	l *zap.Logger,
) *WalletSource {
	return &WalletSource{
		Logger:       l,
		lister:       lister,
		resolver:     resolver,
		prices:       prices,
		delegator:    delegator,
		tokenAddress: tokenAddress,
		window:       window,
	}
}

func (s *WalletSource) Name() string {
	return "wallet transfer"
}

// Collect lists the wallet's plain transfers inside the window, native asset
// and staking token alike. Zero-value transactions (contract interactions
// with no asset movement) are filtered out.
func (s *WalletSource) Collect(ctx context.Context, currency string) ([]ledger.Row, error) {
	startBlock, err := s.resolver.Resolve(ctx, s.window.StartTimestamp)
	if err != nil {
		return nil, err
	}
	endBlock, err := s.resolver.Resolve(ctx, s.window.EndTimestamp)
	if err != nil {
		return nil, err
	}

	rows := make([]ledger.Row, 0)

	transactions, err := s.lister.ListTransactions(ctx, s.delegator, startBlock, endBlock)
	if err != nil {
		return nil, err
	}
	for _, tx := range transactions {
		if tx.Value == "0" || tx.IsError == "1" {
			continue
		}
		row, ok := s.transferRow(tx.TimeStamp, tx.Hash, tx.From, tx.To, tx.Value, ledger.Currency_ETH)
		if !ok {
			continue
		}
		priceRow(ctx, s.prices, s.Logger, &row, currency)
		rows = append(rows, row)
	}

	transfers, err := s.lister.ListTokenTransfers(ctx, s.delegator, s.tokenAddress, startBlock, endBlock)
	if err != nil {
		return nil, err
	}
	for _, transfer := range transfers {
		if transfer.Value == "0" {
			continue
		}
		row, ok := s.transferRow(transfer.TimeStamp, transfer.Hash, transfer.From, transfer.To, transfer.Value, ledger.Currency_LPT)
		if !ok {
			continue
		}
		priceRow(ctx, s.prices, s.Logger, &row, currency)
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *WalletSource) transferRow(timestamp string, hash string, from string, to string, value string, asset ledger.Currency) (ledger.Row, bool) {
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		s.Logger.Sugar().Warnw("Skipping transfer with a malformed timestamp",
			zap.String("transactionHash", hash),
			zap.String("timestamp", timestamp),
			zap.Error(err),
		)
		return ledger.Row{}, false
	}
	amount, err := numbers.FromWeiString(value)
	if err != nil {
		s.Logger.Sugar().Warnw("Skipping transfer with a malformed amount",
			zap.String("transactionHash", hash),
			zap.String("amount", value),
			zap.Error(err),
		)
		return ledger.Row{}, false
	}

	direction := ledger.Direction_Outgoing
	if sameAddress(to, s.delegator) {
		direction = ledger.Direction_Incoming
	}

	return ledger.Row{
		Timestamp:       time.Unix(unix, 0).UTC(),
		TransactionHash: hash,
		TransactionUrl:  transactionUrl(hash),
		Direction:       direction,
		TransactionType: "transfer",
		Currency:        asset,
		Amount:          amount,
	}, true
}
