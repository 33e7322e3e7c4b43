package ledger

import (
	"time"
)

type Direction string

const (
	Direction_Incoming Direction = "incoming"
	Direction_Outgoing Direction = "outgoing"
)

type Currency string

const (
	Currency_ETH Currency = "ETH"
	Currency_LPT Currency = "LPT"
)

// Window is a half-open report window in unix seconds. StartTimestamp must be
// strictly before EndTimestamp; it is validated once at the CLI boundary and
// immutable afterwards.
type Window struct {
	StartTimestamp int64
	EndTimestamp   int64
}

// Round is one protocol round as returned by the subgraph. Rounds are
// historical facts and never mutated.
type Round struct {
	Id             string
	StartTimestamp int64
	StartBlock     uint64
}

// Row is the common schema every data source normalizes into. Amount is
// always non-negative; the sign of its balance effect is carried by
// Direction. Value and Price are nil when the historical price lookup for
// the row failed; the row is still part of the ledger in that case.
type Row struct {
	Timestamp          time.Time
	Round              string
	TransactionHash    string
	TransactionUrl     string
	Direction          Direction
	TransactionType    string
	Currency           Currency
	Amount             float64
	Value              *float64
	Price              *float64
	PendingRewards     float64
	PendingFees        float64
	AccumulatedRewards float64
	AccumulatedFees    float64
	SourceFunction     string

	// Stamped by Merge, never set by producers.
	CumulativeBalanceEth float64
	CumulativeBalanceLpt float64
}
