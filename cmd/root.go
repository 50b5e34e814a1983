package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zheridan29/medecine-november/config"
	"github.com/zheridan29/medecine-november/database"
)

var (
	cfg *config.Config
	log *zap.SugaredLogger
)

var rootCMD = &cobra.Command{
	Use:   "mednov",
	Short: "Medicine demand history and forecasting preparation tool",
	Long: `A CLI application for preparing medicine demand data for forecasting.
It can generate synthetic order history for a medicine, aggregate realized
demand into regularly spaced daily/weekly/monthly series, and verify that a
series carries enough data points to train a forecasting model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine, the environment still applies.
		_ = godotenv.Load()
		cfg = config.LoadEnv()

		logger, err := cfg.Logger.BuildLogger()
		if err != nil {
			return err
		}
		log = logger.Sugar()
		return nil
	},
}

func Execute() {
	if err := rootCMD.Execute(); err != nil {
		if log != nil {
			log.Errorw("command failed", "error", err)
		}
		os.Exit(1)
	}
}

// openStore connects to the configured database and wraps it in the store
// adapter shared by all subcommands.
func openStore() (*database.Store, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return database.NewStore(db, time.Duration(cfg.Database.QueryTimeout)*time.Second), nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
