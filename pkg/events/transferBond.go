package events

import (
	"context"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/clients/subgraph"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"go.uber.org/zap"
)

type TransferBondSource struct {
	Logger *zap.Logger

	client    *subgraph.Client
	prices    PriceFetcher
	delegator string
	window    ledger.Window
}

func NewTransferBondSource(client *subgraph.Client, prices PriceFetcher, delegator string, window ledger.Window, l *zap.Logger) *TransferBondSource {
	return &TransferBondSource{
		Logger:    l,
		client:    client,
		prices:    prices,
		delegator: delegator,
		window:    window,
	}
}

func (s *TransferBondSource) Name() string {
	return "transfer bond"
}

// Collect turns bond transfers into directional rows. The direction depends
// on which side of the transfer the tracked delegator was on.
func (s *TransferBondSource) Collect(ctx context.Context, currency string) ([]ledger.Row, error) {
	events, err := s.client.FetchTransferBondEvents(ctx, s.delegator, s.window)
	if err != nil {
		return nil, err
	}

	rows := make([]ledger.Row, 0, len(events))
	for _, event := range events {
		amount, err := numbers.ParseDecimal(event.Amount)
		if err != nil {
			s.Logger.Sugar().Warnw("Skipping bond transfer with a malformed amount",
				zap.String("transactionHash", event.TransactionHash),
				zap.String("amount", event.Amount),
				zap.Error(err),
			)
			continue
		}

		direction := ledger.Direction_Outgoing
		if sameAddress(event.NewDelegator, s.delegator) {
			direction = ledger.Direction_Incoming
		}

		row := ledger.Row{
			Timestamp:       time.Unix(event.Timestamp, 0).UTC(),
			Round:           event.Round,
			TransactionHash: event.TransactionHash,
			TransactionUrl:  transactionUrl(event.TransactionHash),
			Direction:       direction,
			TransactionType: "transfer bond",
			Currency:        ledger.Currency_LPT,
			Amount:          amount,
		}
		priceRow(ctx, s.prices, s.Logger, &row, currency)
		rows = append(rows, row)
	}
	return rows, nil
}
