package numbers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_numbers(t *testing.T) {
	t.Run("Test converting wei amounts to whole units", func(t *testing.T) {
		wei, ok := new(big.Int).SetString("1500000000000000000", 10)
		assert.True(t, ok)

		assert.InDelta(t, 1.5, FromWei(wei), 1e-12)
	})
	t.Run("Test that a nil amount converts to zero", func(t *testing.T) {
		assert.Equal(t, float64(0), FromWei(nil))
	})
	t.Run("Test converting a wei string", func(t *testing.T) {
		v, err := FromWeiString("105000000000000000000")
		assert.NoError(t, err)
		assert.InDelta(t, 105.0, v, 1e-12)
	})
	t.Run("Test that a malformed wei string errors", func(t *testing.T) {
		_, err := FromWeiString("not-a-number")
		assert.Error(t, err)
	})
	t.Run("Test parsing a whole-unit decimal string", func(t *testing.T) {
		v, err := ParseDecimal("5.25")
		assert.NoError(t, err)
		assert.InDelta(t, 5.25, v, 1e-12)
	})
	t.Run("Test fiat value multiplication", func(t *testing.T) {
		assert.InDelta(t, 50.0, FiatValue(5, 10), 1e-9)
	})
}
