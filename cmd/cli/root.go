package cli

import (
	"fmt"
	"os"

	"github.com/flowbaker/categorizer/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "categorizer",
		Short: "Transaction category classifier",
		Long: `Categorizer assigns a budget category to bank transaction descriptions, either with a
team of research, classification and formatting agents or with a single model prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: ./categorizer.yaml)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewClassifyCommand())
	rootCmd.AddCommand(NewCategoriesCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	return config.Load(configFile)
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
