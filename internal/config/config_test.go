package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Config(t *testing.T) {
	t.Run("Test converting flag names to viper keys", func(t *testing.T) {
		assert.Equal(t, "ethereum.rpc_url", KebabToSnakeCase(EthereumRpcUrl))
		assert.Equal(t, "start_time", KebabToSnakeCase(StartTime))
	})
	t.Run("Test parsing a valid window", func(t *testing.T) {
		c := &Config{StartTime: "2023-11-14 22:13:20", EndTime: "2023-11-16 02:00:00"}

		start, end, err := c.Window()
		assert.NoError(t, err)
		assert.Equal(t, int64(1700000000), start)
		assert.Less(t, start, end)
	})
	t.Run("Test that a reversed window is rejected", func(t *testing.T) {
		c := &Config{StartTime: "2023-11-16 02:00:00", EndTime: "2023-11-14 22:13:20"}

		_, _, err := c.Window()
		assert.Error(t, err)
	})
	t.Run("Test that a malformed time is rejected", func(t *testing.T) {
		c := &Config{StartTime: "14/11/2023", EndTime: "2023-11-16 02:00:00"}

		_, _, err := c.Window()
		assert.Error(t, err)
	})
	t.Run("Test validating the delegator address", func(t *testing.T) {
		c := &Config{Delegator: "0xDE10000000000000000000000000000000000001", Currency: "EUR"}
		assert.NoError(t, c.Validate())

		c.Delegator = "not-an-address"
		assert.Error(t, c.Validate())

		c.Delegator = ""
		assert.Error(t, c.Validate())
	})
}
