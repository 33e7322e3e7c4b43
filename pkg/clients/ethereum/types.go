package ethereum

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type (
	EthereumHexString   string
	EthereumQuantity    uint64
	EthereumBigQuantity big.Int
)

// EthereumBlock carries the block header fields the ledger reconstruction
// needs; everything else in the RPC payload is ignored.
type EthereumBlock struct {
	Hash      EthereumHexString `json:"hash"`
	Number    EthereumQuantity  `json:"number"`
	Timestamp EthereumQuantity  `json:"timestamp"`
}

func (v EthereumQuantity) MarshalJSON() ([]byte, error) {
	s := fmt.Sprintf(`"%s"`, hexutil.EncodeUint64(uint64(v)))
	return []byte(s), nil
}

func (v *EthereumQuantity) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] != '"' {
		var i uint64
		if err := json.Unmarshal(input, &i); err != nil {
			return fmt.Errorf("failed to unmarshal EthereumQuantity into uint64: %w", err)
		}
		*v = EthereumQuantity(i)
		return nil
	}

	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return fmt.Errorf("failed to unmarshal EthereumQuantity into string: %w", err)
	}
	if s == "" {
		*v = 0
		return nil
	}

	i, err := hexutil.DecodeUint64(s)
	if err != nil {
		return fmt.Errorf("failed to decode EthereumQuantity %v: %w", s, err)
	}
	*v = EthereumQuantity(i)
	return nil
}

func (v EthereumQuantity) Value() uint64 {
	return uint64(v)
}

func (v EthereumBigQuantity) MarshalJSON() ([]byte, error) {
	bi := big.Int(v)
	s := fmt.Sprintf(`"%s"`, hexutil.EncodeBig(&bi))
	return []byte(s), nil
}

func (v *EthereumBigQuantity) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return fmt.Errorf("failed to unmarshal EthereumBigQuantity: %w", err)
	}
	if s == "" {
		*v = EthereumBigQuantity{}
		return nil
	}

	i, err := hexutil.DecodeBig(s)
	if err != nil {
		return fmt.Errorf("failed to decode EthereumBigQuantity %v: %w", s, err)
	}
	*v = EthereumBigQuantity(*i)
	return nil
}

func (v *EthereumBigQuantity) BigInt() *big.Int {
	bi := big.Int(*v)
	return &bi
}
