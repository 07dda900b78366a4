package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/natebrady-cyera/deep-thought/cmd/users"
	"github.com/natebrady-cyera/deep-thought/internal/config"
	"github.com/natebrady-cyera/deep-thought/internal/logging"
)

var (
	cfg        *config.Config
	logger     zerolog.Logger
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "deepthought",
	Short: "Deep Thought deal canvas API server",
	Long: `Deep Thought serves the deal canvas API: canvases of typed nodes describing a
sales opportunity, sharing between colleagues, and AI chats grounded in the
canvas content.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = logging.New(logging.Options{
			Level:  cfg.Log.Level,
			Format: logging.Format(cfg.Log.Format),
		})
		if err != nil {
			return fmt.Errorf("failed to configure logging: %w", err)
		}
		if cfg.Debug && cfg.Log.Level == "info" {
			logger = logger.Level(zerolog.DebugLevel)
		}
		if cfg.UsingDevSecret() {
			logger.Warn().Msg("using the insecure development JWT secret; set jwt.secret outside debug mode")
		}

		users.Configure(cfg, logger)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a config file (yaml, json or toml)")
	flags.String("database-url", "", "Database connection URL (env: DEEPTHOUGHT_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: DEEPTHOUGHT_SERVER_ADDR)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (env: DEEPTHOUGHT_LOG_LEVEL)")
	flags.Bool("debug", false, "Enable debug mode and the development login endpoint (env: DEEPTHOUGHT_DEBUG)")

	_ = viper.BindPFlag("database_url", flags.Lookup("database-url"))
	_ = viper.BindPFlag("server_addr", flags.Lookup("server-addr"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
