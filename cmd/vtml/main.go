// vtml is the Versich-Treue ML service: a batch training pipeline for the
// vehicle-insurance cross-sell classifier and an HTTP API serving the
// promoted model.
//
// Usage:
//
//	vtml train    # run the pipeline once and exit
//	vtml serve    # serve predictions and queued retraining runs
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "vtml",
	Short: "Training pipeline and prediction service for the insurance cross-sell classifier",
	Long: `vtml trains a random-forest classifier on MongoDB snapshots of customer
records, promotes a new model only when it beats the production incumbent
on held-out accuracy, and serves predictions from the promoted bundle.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
