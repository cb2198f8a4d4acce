package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"krakengpt/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "krakengpt",
	Short: "KrakenGPT - retrieval-augmented chat gateway",
	Long: `KrakenGPT is a retrieval-augmented conversational gateway. It ingests
project documents into a local index, retrieves relevant excerpts per
question, and routes chat completions across cloud, aggregator and local
providers with automatic failover.

Example usage:
  krakengpt serve                         # Run the HTTP gateway
  krakengpt ingest manuals ./docs         # Ingest a directory of documents
  krakengpt query -p manuals -q "avvio"   # Probe retrieval from the terminal`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "krakengpt.yaml", "config file")
}

func GetConfig() *config.Config {
	return cfg
}
