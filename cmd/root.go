package cmd

import (
	"fmt"
	"os"

	"vehicle-tracker/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "vehicle-tracker",
	Short: "Vehicle Tracker Service",
	Long: `Vehicle Tracker ingests game server vehicle logs from S3-compatible
storage and reconciles them into a queryable world state of players,
vehicles and their event history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format and debug level so CLI failures print readable
		// ISO8601 timestamps instead of production epoch JSON.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
