package cmd

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logLevel string // Log verbosity level
	logFile  string // Rotating log file; empty logs to stderr
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "flockwork-sim",
	Short: "Gillespie simulator for SIS and SIR epidemics on a rewiring flockwork network",
	// cobra prints run errors; usage only helps with flag errors
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
}

// setupLogging applies --log and --log-file to the global logrus logger.
func setupLogging(stderr io.Writer) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
	if logFile == "" {
		logrus.SetOutput(stderr)
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    64, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this rotating file instead of stderr")

	registerRunFlags(sisCmd)
	registerRunFlags(sirCmd)
	registerRunFlags(equilibrateCmd)
	equilibrateCmd.Flags().Float64Var(&tEquilibrate, "t-equilibrate", 0, "Time discarded before averaging")
	equilibrateCmd.Flags().Float64Var(&tMeasure, "t-measure", 100, "Averaging window after --t-equilibrate")

	rootCmd.AddCommand(sisCmd, sirCmd, equilibrateCmd)
}
