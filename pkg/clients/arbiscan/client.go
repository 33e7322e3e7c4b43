package arbiscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/lpt-tools/delegator-ledger/pkg/backoff"
	"go.uber.org/zap"
)

var rateLimitRegexp = regexp.MustCompile(`^Max (calls per sec )?rate limit reached`)

type ArbiscanClientConfig struct {
	Url    string
	ApiKey string
}

type Client struct {
	httpClient   *http.Client
	Logger       *zap.Logger
	clientConfig *ArbiscanClientConfig
}

type ArbiscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// NormalTransaction is one entry of the account txlist action. Every field
// comes back as a string on the wire.
type NormalTransaction struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	IsError     string `json:"isError"`
	GasUsed     string `json:"gasUsed"`
	GasPrice    string `json:"gasPrice"`
}

// TokenTransfer is one entry of the account tokentx action.
type TokenTransfer struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

func NewClient(cfg *ArbiscanClientConfig, l *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{},
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) makeRequest(ctx context.Context, values url.Values) (*ArbiscanResponse, error) {
	if c.clientConfig.ApiKey != "" {
		values.Set("apikey", c.clientConfig.ApiKey)
	}

	fullUrl := fmt.Sprintf("%s?%s", c.clientConfig.Url, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, http.NoBody)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to create the Arbiscan HTTP request",
			zap.Error(err),
		)
		return nil, backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to perform the Arbiscan HTTP request",
			zap.Error(err),
		)
		return nil, err
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to read the Arbiscan HTTP response",
			zap.Error(err),
		)
		return nil, err
	}

	parsedBody := &ArbiscanResponse{}
	if err := json.Unmarshal(bodyBytes, parsedBody); err != nil {
		c.Logger.Sugar().Errorw("Failed to parse json from the Arbiscan response",
			zap.Error(err),
		)
		return nil, backoff.Permanent(err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("response status %v %s, response body: %s", res.StatusCode, res.Status, parsedBody.Message)
	}

	if parsedBody.Status != "1" {
		// An empty result set is reported as a failure status on the wire.
		if strings.HasPrefix(parsedBody.Message, "No transactions found") {
			return parsedBody, nil
		}
		stringResult := strings.ReplaceAll(string(parsedBody.Result), "\"", "")
		if rateLimitRegexp.MatchString(stringResult) {
			return nil, fmt.Errorf("arbiscan server: rate limit reached")
		}
		return nil, backoff.Permanent(fmt.Errorf("arbiscan server: %s", parsedBody.Message))
	}

	return parsedBody, nil
}

func (c *Client) makeRequestWithBackoff(ctx context.Context, operation string, values url.Values) (*ArbiscanResponse, error) {
	return backoff.Retry(ctx, c.Logger, operation, func() (*ArbiscanResponse, error) {
		return c.makeRequest(ctx, values)
	})
}

func buildBaseUrlParams(module string, action string) url.Values {
	return url.Values{
		"module": []string{module},
		"action": []string{action},
	}
}

// ListTransactions fetches the normal (outer) transactions of an address
// between two blocks, oldest first.
func (c *Client) ListTransactions(ctx context.Context, address string, startBlock uint64, endBlock uint64) ([]*NormalTransaction, error) {
	values := buildBaseUrlParams("account", "txlist")
	values.Set("address", address)
	values.Set("startblock", strconv.FormatUint(startBlock, 10))
	values.Set("endblock", strconv.FormatUint(endBlock, 10))
	values.Set("sort", "asc")

	res, err := c.makeRequestWithBackoff(ctx, "txlist", values)
	if err != nil {
		return nil, err
	}

	transactions := make([]*NormalTransaction, 0)
	if err := json.Unmarshal(res.Result, &transactions); err != nil {
		c.Logger.Sugar().Errorw("Failed to decode the Arbiscan transaction list",
			zap.Error(err),
		)
		return nil, err
	}
	return transactions, nil
}

// ListTokenTransfers fetches the ERC-20 transfer events touching an address
// for one token contract between two blocks, oldest first.
func (c *Client) ListTokenTransfers(ctx context.Context, address string, contractAddress string, startBlock uint64, endBlock uint64) ([]*TokenTransfer, error) {
	values := buildBaseUrlParams("account", "tokentx")
	values.Set("address", address)
	values.Set("contractaddress", contractAddress)
	values.Set("startblock", strconv.FormatUint(startBlock, 10))
	values.Set("endblock", strconv.FormatUint(endBlock, 10))
	values.Set("sort", "asc")

	res, err := c.makeRequestWithBackoff(ctx, "tokentx", values)
	if err != nil {
		return nil, err
	}

	transfers := make([]*TokenTransfer, 0)
	if err := json.Unmarshal(res.Result, &transfers); err != nil {
		c.Logger.Sugar().Errorw("Failed to decode the Arbiscan token transfer list",
			zap.Error(err),
		)
		return nil, err
	}
	return transfers, nil
}
