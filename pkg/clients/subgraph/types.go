package subgraph

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// flexInt64 decodes Graph Node Int and BigInt fields uniformly; Int arrives
// as a JSON number, BigInt as a decimal string.
type flexInt64 int64

func (v *flexInt64) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] == '"' {
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return fmt.Errorf("failed to unmarshal numeric string: %w", err)
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse numeric string %q: %w", s, err)
		}
		*v = flexInt64(i)
		return nil
	}

	var i int64
	if err := json.Unmarshal(input, &i); err != nil {
		return fmt.Errorf("failed to unmarshal number: %w", err)
	}
	*v = flexInt64(i)
	return nil
}

type entityRef struct {
	Id string `json:"id"`
}

type roundRecord struct {
	Id             string    `json:"id"`
	StartTimestamp flexInt64 `json:"startTimestamp"`
	StartBlock     flexInt64 `json:"startBlock"`
}

// BondEvent is a raw subgraph bond event. AdditionalAmount is the newly
// bonded LPT in whole units (the subgraph stores BigDecimal token amounts).
type BondEvent struct {
	Timestamp        int64
	Round            string
	TransactionHash  string
	AdditionalAmount string
	BondedAmount     string
	NewDelegate      string
	OldDelegate      string
}

// UnbondEvent is a raw subgraph unbond event, amount in whole LPT units.
type UnbondEvent struct {
	Timestamp       int64
	Round           string
	TransactionHash string
	Amount          string
	WithdrawRound   int64
	Delegate        string
}

// TransferBondEvent is a raw subgraph transfer-bond event, amount in whole
// LPT units. The tracked delegator may appear on either side.
type TransferBondEvent struct {
	Timestamp       int64
	Round           string
	TransactionHash string
	Amount          string
	NewDelegator    string
	OldDelegator    string
}

type bondEventRecord struct {
	Timestamp        flexInt64 `json:"timestamp"`
	Round            entityRef `json:"round"`
	Transaction      entityRef `json:"transaction"`
	AdditionalAmount string    `json:"additionalAmount"`
	BondedAmount     string    `json:"bondedAmount"`
	NewDelegate      entityRef `json:"newDelegate"`
	OldDelegate      entityRef `json:"oldDelegate"`
}

type unbondEventRecord struct {
	Timestamp       flexInt64 `json:"timestamp"`
	Round           entityRef `json:"round"`
	Transaction     entityRef `json:"transaction"`
	Amount          string    `json:"amount"`
	WithdrawRound   flexInt64 `json:"withdrawRound"`
	Delegate        entityRef `json:"delegate"`
}

type transferBondEventRecord struct {
	Timestamp    flexInt64 `json:"timestamp"`
	Round        entityRef `json:"round"`
	Transaction  entityRef `json:"transaction"`
	Amount       string    `json:"amount"`
	NewDelegator entityRef `json:"newDelegator"`
	OldDelegator entityRef `json:"oldDelegator"`
}
