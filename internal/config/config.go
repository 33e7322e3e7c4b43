package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "DELEGATOR_LEDGER"

// timeLayout is the wall-clock format accepted on the command line,
// interpreted as UTC.
const timeLayout = "2006-01-02 15:04:05"

// Flag names. Viper keys are derived from these via KebabToSnakeCase.
const (
	Debug          = "debug"
	EthereumRpcUrl = "ethereum.rpc-url"
	SubgraphUrl    = "subgraph.url"
	ArbiscanUrl    = "arbiscan.url"
	ArbiscanApiKey = "arbiscan.api-key"
	PricesUrl      = "prices.url"
	PricesApiKey   = "prices.api-key"
	Delegator      = "delegator"
	Currency       = "currency"
	StartTime      = "start-time"
	EndTime        = "end-time"
	OutputDir      = "output-dir"
	NoProgress     = "no-progress"
)

type Config struct {
	Debug bool

	EthereumRpcUrl string
	SubgraphUrl    string
	ArbiscanUrl    string
	ArbiscanApiKey string
	PricesUrl      string
	PricesApiKey   string

	Delegator  string
	Currency   string
	StartTime  string
	EndTime    string
	OutputDir  string
	NoProgress bool
}

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(KebabToSnakeCase(Debug)),

		EthereumRpcUrl: viper.GetString(KebabToSnakeCase(EthereumRpcUrl)),
		SubgraphUrl:    viper.GetString(KebabToSnakeCase(SubgraphUrl)),
		ArbiscanUrl:    viper.GetString(KebabToSnakeCase(ArbiscanUrl)),
		ArbiscanApiKey: viper.GetString(KebabToSnakeCase(ArbiscanApiKey)),
		PricesUrl:      viper.GetString(KebabToSnakeCase(PricesUrl)),
		PricesApiKey:   viper.GetString(KebabToSnakeCase(PricesApiKey)),

		Delegator:  viper.GetString(KebabToSnakeCase(Delegator)),
		Currency:   viper.GetString(KebabToSnakeCase(Currency)),
		StartTime:  viper.GetString(KebabToSnakeCase(StartTime)),
		EndTime:    viper.GetString(KebabToSnakeCase(EndTime)),
		OutputDir:  viper.GetString(KebabToSnakeCase(OutputDir)),
		NoProgress: viper.GetBool(KebabToSnakeCase(NoProgress)),
	}
}

// Window parses the configured start and end times into unix seconds and
// validates their ordering.
func (c *Config) Window() (int64, int64, error) {
	if c.StartTime == "" || c.EndTime == "" {
		return 0, 0, fmt.Errorf("both %s and %s are required", StartTime, EndTime)
	}
	start, err := time.ParseInLocation(timeLayout, c.StartTime, time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse %s: %w", StartTime, err)
	}
	end, err := time.ParseInLocation(timeLayout, c.EndTime, time.UTC)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse %s: %w", EndTime, err)
	}
	if !start.Before(end) {
		return 0, 0, fmt.Errorf("%s must be before %s", StartTime, EndTime)
	}
	return start.Unix(), end.Unix(), nil
}

func (c *Config) Validate() error {
	if c.Delegator == "" {
		return fmt.Errorf("%s is required", Delegator)
	}
	if !strings.HasPrefix(c.Delegator, "0x") || len(c.Delegator) != 42 {
		return fmt.Errorf("%s does not look like an address: %s", Delegator, c.Delegator)
	}
	if c.Currency == "" {
		return fmt.Errorf("%s is required", Currency)
	}
	return nil
}

// KebabToSnakeCase converts a flag name to its viper/env key.
func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}
