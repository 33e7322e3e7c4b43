package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lpt-tools/delegator-ledger/pkg/backoff"
	"go.uber.org/zap"
)

// pageSize is the subgraph page size; fetchers keep requesting pages until a
// page comes back smaller than this.
const pageSize = 1000

type SubgraphClientConfig struct {
	Url string
}

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *SubgraphClientConfig
}

func NewClient(cfg *SubgraphClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 30,
	}

	return &Client{
		httpClient:   client,
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	return backoff.Retry(ctx, c.Logger, "subgraph query", func() (json.RawMessage, error) {
		requestBody, err := json.Marshal(&graphQLRequest{Query: query, Variables: variables})
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.Url, bytes.NewReader(requestBody))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to make request: %w", err))
		}
		request.Header.Set("Content-Type", "application/json")
		request.Header.Set("Accept", "application/json")

		response, err := c.httpClient.Do(request)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer response.Body.Close()

		responseBody, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
		}

		parsed := &graphQLResponse{}
		if err := json.Unmarshal(responseBody, parsed); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to unmarshal response: %w", err))
		}
		if len(parsed.Errors) > 0 {
			// A query the indexer rejects will be rejected on every attempt.
			return nil, backoff.Permanent(fmt.Errorf("subgraph returned errors: %+v", parsed.Errors))
		}
		return parsed.Data, nil
	})
}

// fetchPaged walks an offset-paginated query until a short page is returned.
func fetchPaged[T any](ctx context.Context, c *Client, query string, variables map[string]any, decode func(json.RawMessage) ([]T, error)) ([]T, error) {
	all := make([]T, 0)
	skip := 0
	for {
		variables["first"] = pageSize
		variables["skip"] = skip

		data, err := c.execute(ctx, query, variables)
		if err != nil {
			return nil, err
		}
		items, err := decode(data)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		all = append(all, items...)

		if len(items) < pageSize {
			break
		}
		skip += pageSize
	}
	return all, nil
}
