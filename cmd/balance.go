package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/lpt-tools/delegator-ledger/internal/config"
	"github.com/lpt-tools/delegator-ledger/internal/logger"
	"github.com/lpt-tools/delegator-ledger/pkg/clients/ethereum"
	"github.com/lpt-tools/delegator-ledger/pkg/clients/prices"
	"github.com/lpt-tools/delegator-ledger/pkg/contractCaller"
	"github.com/lpt-tools/delegator-ledger/pkg/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the delegator's current wallet and staking position",
	Run: func(cmd *cobra.Command, args []string) {
		initReportCmd(cmd)
		cfg := config.NewConfig()
		ctx := context.Background()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		if err := cfg.Validate(); err != nil {
			l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
		}

		ethereumClient := ethereum.NewClient(&ethereum.EthereumClientConfig{BaseUrl: cfg.EthereumRpcUrl}, l)
		backend, err := ethereumClient.GetEthereumContractCaller()
		if err != nil {
			l.Sugar().Fatalw("Failed to set up the contract backend", zap.Error(err))
		}
		contracts, err := contractCaller.NewContractCaller(backend, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to set up the contract caller", zap.Error(err))
		}
		priceClient := prices.NewClient(&prices.PriceClientConfig{Url: cfg.PricesUrl, ApiKey: cfg.PricesApiKey}, l)

		reporter := report.NewBalanceReporter(ethereumClient, contracts, priceClient, l)

		balance, err := reporter.Report(ctx, cfg.Delegator, time.Now().Unix(), cfg.Currency)
		if err != nil {
			l.Sugar().Fatalw("Failed to build the balance report", zap.Error(err))
		}

		overview := balance.Overview()
		for pair := overview.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Printf("%-24s %s\n", pair.Key, pair.Value)
		}
	},
}
