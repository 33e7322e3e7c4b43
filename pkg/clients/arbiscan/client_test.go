package arbiscan

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const arbiscanUrl = "https://api.arbiscan.io/api"

func newTestClient() *Client {
	client := NewClient(&ArbiscanClientConfig{Url: arbiscanUrl, ApiKey: "test-key"}, zap.NewNop())
	client.SetHttpClient(&http.Client{
		Transport: httpmock.DefaultTransport,
	})
	return client
}

func Test_Client(t *testing.T) {
	t.Run("Test listing normal transactions", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", arbiscanUrl,
			httpmock.NewStringResponder(200, `{"status":"1","message":"OK","result":[
				{"blockNumber":"150000100","timeStamp":"1700000500","hash":"0xaaa","from":"0xde1","to":"0xabc","value":"1500000000000000000","isError":"0"},
				{"blockNumber":"150000200","timeStamp":"1700000900","hash":"0xbbb","from":"0xabc","to":"0xde1","value":"0","isError":"0"}
			]}`))

		transactions, err := newTestClient().ListTransactions(context.Background(), "0xde1", 150000000, 150001000)
		assert.NoError(t, err)
		assert.Len(t, transactions, 2)
		assert.Equal(t, "0xaaa", transactions[0].Hash)
		assert.Equal(t, "1500000000000000000", transactions[0].Value)
	})
	t.Run("Test listing token transfers", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", arbiscanUrl,
			httpmock.NewStringResponder(200, `{"status":"1","message":"OK","result":[
				{"blockNumber":"150000300","timeStamp":"1700001300","hash":"0xccc","from":"0xde1","to":"0xdef","value":"25000000000000000000","contractAddress":"0x289ba1701c2f088cf0faf8b3705246331cb8a839","tokenSymbol":"LPT","tokenDecimal":"18"}
			]}`))

		transfers, err := newTestClient().ListTokenTransfers(context.Background(), "0xde1", "0x289ba1701c2f088cf0faf8b3705246331cb8a839", 150000000, 150001000)
		assert.NoError(t, err)
		assert.Len(t, transfers, 1)
		assert.Equal(t, "LPT", transfers[0].TokenSymbol)
	})
	t.Run("Test that no transactions found yields an empty list", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", arbiscanUrl,
			httpmock.NewStringResponder(200, `{"status":"0","message":"No transactions found","result":[]}`))

		transactions, err := newTestClient().ListTransactions(context.Background(), "0xde1", 0, 99999999)
		assert.NoError(t, err)
		assert.Len(t, transactions, 0)
	})
	t.Run("Test that server errors are not retried", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", arbiscanUrl,
			httpmock.NewStringResponder(200, `{"status":"0","message":"NOTOK","result":"Invalid address format"}`))

		_, err := newTestClient().ListTransactions(context.Background(), "not-an-address", 0, 99999999)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "NOTOK")
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
}
