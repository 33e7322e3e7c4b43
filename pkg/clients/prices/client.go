package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lpt-tools/delegator-ledger/pkg/backoff"
	"go.uber.org/zap"
)

type PriceClientConfig struct {
	Url    string
	ApiKey string
}

type Client struct {
	httpClient   *http.Client
	Logger       *zap.Logger
	clientConfig *PriceClientConfig
}

// errorEnvelope is the shape the price API uses to report failures. A
// successful response carries no Response field at all.
type errorEnvelope struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
}

func NewClient(cfg *PriceClientConfig, l *zap.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{},
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) makeRequest(ctx context.Context, symbol string, target string, timestamp int64) (map[string]map[string]float64, error) {
	values := url.Values{
		"fsym":  []string{symbol},
		"tsyms": []string{target},
		"ts":    []string{strconv.FormatInt(timestamp, 10)},
	}
	if c.clientConfig.ApiKey != "" {
		values.Set("api_key", c.clientConfig.ApiKey)
	}

	fullUrl := fmt.Sprintf("%s?%s", c.clientConfig.Url, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to perform the price HTTP request",
			zap.Error(err),
		)
		return nil, err
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to read the price HTTP response",
			zap.Error(err),
		)
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("response status %v %s", res.StatusCode, res.Status)
	}

	envelope := &errorEnvelope{}
	if err := json.Unmarshal(bodyBytes, envelope); err == nil && envelope.Response == "Error" {
		return nil, backoff.Permanent(fmt.Errorf("price server: %s", envelope.Message))
	}

	prices := make(map[string]map[string]float64)
	if err := json.Unmarshal(bodyBytes, &prices); err != nil {
		c.Logger.Sugar().Errorw("Failed to parse json from the price response",
			zap.Error(err),
		)
		return nil, backoff.Permanent(err)
	}
	return prices, nil
}

// Price returns the historical price of one unit of symbol in the target
// currency at the given unix timestamp.
func (c *Client) Price(ctx context.Context, symbol string, target string, timestamp int64) (float64, error) {
	operation := fmt.Sprintf("pricehistorical %s/%s", symbol, target)
	prices, err := backoff.Retry(ctx, c.Logger, operation, func() (map[string]map[string]float64, error) {
		return c.makeRequest(ctx, symbol, target, timestamp)
	})
	if err != nil {
		return 0, err
	}

	targets, ok := prices[symbol]
	if !ok {
		return 0, fmt.Errorf("price response is missing symbol %s", symbol)
	}
	price, ok := targets[target]
	if !ok {
		return 0, fmt.Errorf("price response is missing target currency %s", target)
	}
	return price, nil
}
