package events

import (
	"context"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/clients/subgraph"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"go.uber.org/zap"
)

type UnbondSource struct {
	Logger *zap.Logger

	client    *subgraph.Client
	prices    PriceFetcher
	delegator string
	window    ledger.Window
}

func NewUnbondSource(client *subgraph.Client, prices PriceFetcher, delegator string, window ledger.Window, l *zap.Logger) *UnbondSource {
	return &UnbondSource{
		Logger:    l,
		client:    client,
		prices:    prices,
		delegator: delegator,
		window:    window,
	}
}

func (s *UnbondSource) Name() string {
	return "unbond"
}

// Collect turns unbond events into incoming token rows. Unbonding releases
// staked tokens back towards the wallet.
func (s *UnbondSource) Collect(ctx context.Context, currency string) ([]ledger.Row, error) {
	events, err := s.client.FetchUnbondEvents(ctx, s.delegator, s.window)
	if err != nil {
		return nil, err
	}

	rows := make([]ledger.Row, 0, len(events))
	for _, event := range events {
		amount, err := numbers.ParseDecimal(event.Amount)
		if err != nil {
			s.Logger.Sugar().Warnw("Skipping unbond event with a malformed amount",
				zap.String("transactionHash", event.TransactionHash),
				zap.String("amount", event.Amount),
				zap.Error(err),
			)
			continue
		}
		row := ledger.Row{
			Timestamp:       time.Unix(event.Timestamp, 0).UTC(),
			Round:           event.Round,
			TransactionHash: event.TransactionHash,
			TransactionUrl:  transactionUrl(event.TransactionHash),
			Direction:       ledger.Direction_Incoming,
			TransactionType: "unbond",
			Currency:        ledger.Currency_LPT,
			Amount:          amount,
		}
		priceRow(ctx, s.prices, s.Logger, &row, currency)
		rows = append(rows, row)
	}
	return rows, nil
}
