package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/compliance-copilot/internal/config"
	"github.com/bryanwahyu/compliance-copilot/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     hclog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:                   "copilotctl [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Command line access to the compliance copilot.",
		Long: `copilotctl runs compliance analyses, inspects document extraction and
manages the rule base directly against the configured stores and AI providers.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfgFile == "" {
				cfgFile = os.Getenv("CONFIG_PATH")
			}
			if cfgFile == "" {
				cfgFile = "config.yaml"
			}
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log = logger.NewWithOutput(cfg.Logger.Level, "copilotctl", cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newAnalyzeCmd(), newInspectCmd(), newExtractCmd(), newRulesCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
