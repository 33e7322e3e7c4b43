// Package events turns the delegator's discrete on-chain activity into
// ledger rows. Every category implements the same Source contract so the
// report builder can walk them uniformly while each keeps its own fetch and
// normalization logic.
package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/numbers"
	"go.uber.org/zap"
)

const transactionUrlPrefix = "https://arbiscan.io/tx/"

type Source interface {
	Name() string
	Collect(ctx context.Context, currency string) ([]ledger.Row, error)
}

type PriceFetcher interface {
	Price(ctx context.Context, symbol string, target string, timestamp int64) (float64, error)
}

func transactionUrl(hash string) string {
	return fmt.Sprintf("%s%s", transactionUrlPrefix, hash)
}

func sameAddress(a string, b string) bool {
	return strings.EqualFold(a, b)
}

// priceRow stamps the fiat price and value on a row, keyed by the row's own
// timestamp. A failed lookup leaves both fields unset and the row usable.
func priceRow(ctx context.Context, prices PriceFetcher, l *zap.Logger, row *ledger.Row, currency string) {
	price, err := prices.Price(ctx, string(row.Currency), currency, row.Timestamp.Unix())
	if err != nil {
		l.Sugar().Warnw("Failed to price an event row",
			zap.String("transactionHash", row.TransactionHash),
			zap.String("asset", string(row.Currency)),
			zap.Error(err),
		)
		return
	}
	value := numbers.FiatValue(row.Amount, price)
	row.Price = &price
	row.Value = &value
}
