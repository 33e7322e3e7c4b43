package cmd

import (
	"os"
	"strings"

	"github.com/lpt-tools/delegator-ledger/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "delegator-ledger",
	Short: "Reconstructs a fiat-valued transaction ledger for a Livepeer delegator",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.EthereumRpcUrl, "https://arb1.arbitrum.io/rpc", `Arbitrum One JSON-RPC endpoint`)
	rootCmd.PersistentFlags().String(config.SubgraphUrl, "https://api.thegraph.com/subgraphs/name/livepeer/arbitrum-one", `Livepeer subgraph endpoint`)
	rootCmd.PersistentFlags().String(config.ArbiscanUrl, "https://api.arbiscan.io/api", `Arbiscan API endpoint`)
	rootCmd.PersistentFlags().String(config.ArbiscanApiKey, "", `Arbiscan API key`)
	rootCmd.PersistentFlags().String(config.PricesUrl, "https://min-api.cryptocompare.com/data/pricehistorical", `Historical price API endpoint`)
	rootCmd.PersistentFlags().String(config.PricesApiKey, "", `Historical price API key`)

	rootCmd.PersistentFlags().StringP(config.Delegator, "d", "", `The delegator address to report on (required)`)
	rootCmd.PersistentFlags().StringP(config.Currency, "u", "EUR", `The fiat currency to value rows in`)

	// setup sub commands
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(runVersionCmd)

	reportCmd.PersistentFlags().String(config.StartTime, "", `Window start, "2006-01-02 15:04:05" in UTC (required)`)
	reportCmd.PersistentFlags().String(config.EndTime, "", `Window end, "2006-01-02 15:04:05" in UTC (required)`)
	reportCmd.PersistentFlags().StringP(config.OutputDir, "o", "", `Directory to write csv files to; no files are written when empty`)
	reportCmd.PersistentFlags().Bool(config.NoProgress, false, `Disable the progress bar`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}
