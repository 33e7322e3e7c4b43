package cmd

import (
	"context"
	"fmt"

	"github.com/lpt-tools/delegator-ledger/internal/config"
	"github.com/lpt-tools/delegator-ledger/internal/logger"
	"github.com/lpt-tools/delegator-ledger/pkg/clients/arbiscan"
	"github.com/lpt-tools/delegator-ledger/pkg/clients/ethereum"
	"github.com/lpt-tools/delegator-ledger/pkg/clients/prices"
	"github.com/lpt-tools/delegator-ledger/pkg/clients/subgraph"
	"github.com/lpt-tools/delegator-ledger/pkg/contractCaller"
	"github.com/lpt-tools/delegator-ledger/pkg/events"
	"github.com/lpt-tools/delegator-ledger/pkg/ledger"
	"github.com/lpt-tools/delegator-ledger/pkg/report"
	"github.com/lpt-tools/delegator-ledger/pkg/resolver"
	"github.com/lpt-tools/delegator-ledger/pkg/rounds"
	"github.com/lpt-tools/delegator-ledger/pkg/snapshot"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reconstruct the delegator's income and transfer ledger over a time window",
	Run: func(cmd *cobra.Command, args []string) {
		initReportCmd(cmd)
		cfg := config.NewConfig()
		ctx := context.Background()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		if err := cfg.Validate(); err != nil {
			l.Sugar().Fatalw("Invalid configuration", zap.Error(err))
		}
		start, end, err := cfg.Window()
		if err != nil {
			l.Sugar().Fatalw("Invalid report window", zap.Error(err))
		}
		window := ledger.Window{StartTimestamp: start, EndTimestamp: end}

		builder, err := newBuilder(cfg, window, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to set up the report builder", zap.Error(err))
		}

		result, err := builder.Run(ctx)
		if err != nil {
			if errors.Is(err, ledger.ErrNoIncomeData) {
				fmt.Println("No income or transfer data found for the delegator in this window.")
				return
			}
			l.Sugar().Fatalw("Failed to build the report", zap.Error(err))
		}

		for pair := result.Overview.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Printf("%-36s %s\n", pair.Key, pair.Value)
		}

		if cfg.OutputDir != "" {
			if err := result.Export(cfg.OutputDir); err != nil {
				l.Sugar().Fatalw("Failed to export the report", zap.Error(err))
			}
			l.Sugar().Infow("Wrote the report",
				zap.String("outputDir", cfg.OutputDir),
				zap.String("runId", result.RunId),
			)
		}
	},
}

func newBuilder(cfg *config.Config, window ledger.Window, l *zap.Logger) (*report.Builder, error) {
	ethereumClient := ethereum.NewClient(&ethereum.EthereumClientConfig{BaseUrl: cfg.EthereumRpcUrl}, l)
	backend, err := ethereumClient.GetEthereumContractCaller()
	if err != nil {
		return nil, err
	}
	contracts, err := contractCaller.NewContractCaller(backend, l)
	if err != nil {
		return nil, err
	}

	blockResolver := resolver.NewResolver(ethereumClient, l)
	snapshots := snapshot.NewFetcher(contracts, l)

	subgraphClient := subgraph.NewClient(&subgraph.SubgraphClientConfig{Url: cfg.SubgraphUrl}, l)
	arbiscanClient := arbiscan.NewClient(&arbiscan.ArbiscanClientConfig{Url: cfg.ArbiscanUrl, ApiKey: cfg.ArbiscanApiKey}, l)
	priceClient := prices.NewClient(&prices.PriceClientConfig{Url: cfg.PricesUrl, ApiKey: cfg.PricesApiKey}, l)

	walker := rounds.NewReconstructor(snapshots, priceClient, !cfg.NoProgress, l)

	sources := []events.Source{
		events.NewBondSource(subgraphClient, priceClient, cfg.Delegator, window, l),
		events.NewUnbondSource(subgraphClient, priceClient, cfg.Delegator, window, l),
		events.NewTransferBondSource(subgraphClient, priceClient, cfg.Delegator, window, l),
		events.NewWalletSource(arbiscanClient, blockResolver, priceClient, cfg.Delegator, contractCaller.LptTokenAddress, window, l),
	}

	return report.NewBuilder(
		blockResolver,
		ethereumClient,
		contracts,
		snapshots,
		subgraphClient,
		walker,
		sources,
		priceClient,
		cfg.Delegator,
		cfg.Currency,
		window,
		l,
	), nil
}

func initReportCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
