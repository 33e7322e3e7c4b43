package prices

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const priceUrl = "https://min-api.cryptocompare.com/data/pricehistorical"

func newTestClient() *Client {
	client := NewClient(&PriceClientConfig{Url: priceUrl}, zap.NewNop())
	client.SetHttpClient(&http.Client{
		Transport: httpmock.DefaultTransport,
	})
	return client
}

func Test_Client(t *testing.T) {
	t.Run("Test fetching a historical price", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", priceUrl,
			httpmock.NewStringResponder(200, `{"ETH":{"EUR":1834.21}}`))

		price, err := newTestClient().Price(context.Background(), "ETH", "EUR", 1700000000)
		assert.NoError(t, err)
		assert.Equal(t, 1834.21, price)
	})
	t.Run("Test that an error envelope is not retried", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", priceUrl,
			httpmock.NewStringResponder(200, `{"Response":"Error","Message":"fsym param is empty or invalid."}`))

		_, err := newTestClient().Price(context.Background(), "", "EUR", 1700000000)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "fsym param is empty or invalid")
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
	t.Run("Test that a missing target currency is an error", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", priceUrl,
			httpmock.NewStringResponder(200, `{"LPT":{"USD":6.32}}`))

		_, err := newTestClient().Price(context.Background(), "LPT", "EUR", 1700000000)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing target currency EUR")
	})
}
