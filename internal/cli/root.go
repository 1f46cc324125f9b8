package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lf-pro/cro/internal/config"
	"github.com/lf-pro/cro/internal/logger"
)

// rootOptions carries the persistent flags and the state built from them
// before any subcommand runs.
type rootOptions struct {
	configPath string
	logLevel   string
	seed       uint64

	cfg *config.Config
	log zerolog.Logger
}

// NewRootCmd builds the cro command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "cro",
		Short: "cro - statistical inference for revenue A/B experiments",
		Long: `cro compares a Control and a New variant from daily revenue and session
counts, using a bootstrap, two Bayesian models and descriptive metrics with a
sample ratio mismatch check.

Input files are CSV or XLSX with the columns date, variant, revenue and sessions.`,
		SilenceUsage:      true,
		PersistentPreRunE: opts.load,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", getEnvOrDefault("CRO_CONFIG", ""), "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible results (0 = random)")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newExportCmd(opts),
		newSRMCmd(opts),
		newServeCmd(opts),
	)

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// load reads the configuration, applies flag overrides and sets up logging.
func (o *rootOptions) load(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}

	o.cfg = cfg
	o.log = logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}, cmd.ErrOrStderr())
	logger.SetGlobalLogger(o.log)
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
