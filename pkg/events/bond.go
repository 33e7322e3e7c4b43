package events

import (
	"context"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/clients/subgraph"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"go.uber.org/zap"
)

type BondSource struct {
	Logger *zap.Logger

	client    *subgraph.Client
	prices    PriceFetcher
	delegator string
	window    ledger.Window
}

func NewBondSource(client *subgraph.Client, prices PriceFetcher, delegator string, window ledger.Window, l *zap.Logger) *BondSource {
	return &BondSource{
		Logger:    l,
		client:    client,
		prices:    prices,
		delegator: delegator,
		window:    window,
	}
}

func (s *BondSource) Name() string {
	return "bond"
}

// Collect turns bond events into outgoing token rows. Bonding moves tokens
// out of the wallet and into the staking contract.
func (s *BondSource) Collect(ctx context.Context, currency string) ([]ledger.Row, error) {
	events, err := s.client.FetchBondEvents(ctx, s.delegator, s.window)
	if err != nil {
		return nil, err
	}

	rows := make([]ledger.Row, 0, len(events))
	for _, event := range events {
		amount, err := numbers.ParseDecimal(event.AdditionalAmount)
		if err != nil {
			s.Logger.Sugar().Warnw("Skipping bond event with a malformed amount",
				zap.String("transactionHash", event.TransactionHash),
				zap.String("amount", event.AdditionalAmount),
				zap.Error(err),
			)
			continue
		}
		row := ledger.Row{
			Timestamp:       time.Unix(event.Timestamp, 0).UTC(),
			Round:           event.Round,
			TransactionHash: event.TransactionHash,
			TransactionUrl:  transactionUrl(event.TransactionHash),
			Direction:       ledger.Direction_Outgoing,
			TransactionType: "bond",
			Currency:        ledger.Currency_LPT,
			Amount:          amount,
		}
		priceRow(ctx, s.prices, s.Logger, &row, currency)
		rows = append(rows, row)
	}
	return rows, nil
}
