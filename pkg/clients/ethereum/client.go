package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/lpt-tools/delegator-ledger/pkg/backoff"
	"go.uber.org/zap"
)

var jsonRPCVersion = "2.0"

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint   `json:"id"`
}

type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint           `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type EthereumClientConfig struct {
	BaseUrl string
}

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 10,
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

// GetEthereumContractCaller returns an ethclient suitable as the backend for
// bound contract reads.
func (c *Client) GetEthereumContractCaller() (*ethclient.Client, error) {
	d, err := ethclient.Dial(c.clientConfig.BaseUrl)
	if err != nil {
		c.Logger.Sugar().Errorw("Failed to create new eth client", zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (c *Client) call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	requestBody, err := json.Marshal(rpcRequest)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
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

	destination := &RPCResponse{}
	if err := json.Unmarshal(responseBody, destination); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to unmarshal response: %w", err))
	}

	if destination.Error != nil {
		err := fmt.Errorf("received error response: %+v", destination.Error)
		// Reverts are semantic failures of the call itself; retrying cannot
		// change the outcome. Everything else from the node is assumed
		// transient (timeouts, rate limits and node errors are
		// indistinguishable at this layer).
		if strings.Contains(destination.Error.Message, "execution reverted") {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	return destination, nil
}

// Call performs a single JSON-RPC request through the retry layer.
func (c *Client) Call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	return backoff.Retry(ctx, c.Logger, rpcRequest.Method, func() (*RPCResponse, error) {
		return c.call(ctx, rpcRequest)
	})
}

func GetBlockNumberRequest(id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  "eth_blockNumber",
		ID:      id,
	}
}

func GetBlockByNumberRequest(blockNumber uint64, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  "eth_getBlockByNumber",
		Params:  []interface{}{hexutil.EncodeUint64(blockNumber), false},
		ID:      id,
	}
}

func GetBalanceRequest(address string, blockNumber uint64, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  "eth_getBalance",
		Params:  []interface{}{address, hexutil.EncodeUint64(blockNumber)},
		ID:      id,
	}
}

func (c *Client) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	res, err := c.Call(ctx, GetBlockNumberRequest(1))
	if err != nil {
		return 0, err
	}

	blockNumber := strings.ReplaceAll(string(res.Result), `"`, "")
	blockNumberUint64, err := hexutil.DecodeUint64(blockNumber)
	if err != nil {
		return 0, err
	}
	return blockNumberUint64, nil
}

func (c *Client) GetBlockByNumber(ctx context.Context, blockNumber uint64) (*EthereumBlock, error) {
	res, err := c.Call(ctx, GetBlockByNumberRequest(blockNumber, 1))
	if err != nil {
		return nil, err
	}

	block := &EthereumBlock{}
	if err := json.Unmarshal(res.Result, block); err != nil {
		c.Logger.Sugar().Errorw("failed to parse block",
			zap.Error(err),
			zap.Any("raw response", res.Result),
		)
		return nil, err
	}
	return block, nil
}

// GetBalance returns the native asset balance of address at blockNumber, in
// wei.
func (c *Client) GetBalance(ctx context.Context, address string, blockNumber uint64) (*big.Int, error) {
	res, err := c.Call(ctx, GetBalanceRequest(address, blockNumber, 1))
	if err != nil {
		return nil, err
	}

	balance := &EthereumBigQuantity{}
	if err := json.Unmarshal(res.Result, balance); err != nil {
		c.Logger.Sugar().Errorw("failed to parse balance",
			zap.Error(err),
			zap.Any("raw response", res.Result),
		)
		return nil, err
	}
	return balance.BigInt(), nil
}
