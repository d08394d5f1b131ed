package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loan-scheduler/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "loan-scheduler",
	Short: "Loan bookkeeping API and amortization schedule generator",
	Long: `loan-scheduler validates loan terms, generates amortization schedules
(with optional interest-only moratorium) and stores loans behind a JSON API.

Run "loan-scheduler serve" to start the API, or "loan-scheduler schedule"
to print a schedule without storing it.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
