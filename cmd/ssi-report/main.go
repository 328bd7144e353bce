// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ssi-report CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ssi-report/internal/fetch"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit statuses.
const (
	exitOK       = 0
	exitFailure  = 1
	exitNoReport = 2
)

// rootCmd is the base command for the ssi-report CLI.
var rootCmd = &cobra.Command{
	Use:   "ssi-report",
	Short: "Collect the tables of the daily SSI COVID-19 surveillance report",
	Long: `ssi-report downloads the daily COVID-19 surveillance report published by
Statens Serum Institut, extracts the age, regional and hospitalization tables,
and appends them to cumulative CSV datasets.

Each dataset (corona_age_data.csv, corona_regional_data.csv,
corona_hospitalized_data.csv) is deduplicated and sorted by date on every run,
so running the same day twice leaves the files unchanged.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ssi-report.yaml or $XDG_CONFIG_HOME/ssi-report/ssi-report.yaml)")
	rootCmd.PersistentFlags().String("data-dir", ".", "directory holding the CSV datasets")
	_ = viper.BindPFlag("dataset.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ssi-report")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "ssi-report"))
	}

	viper.SetEnvPrefix("SSI_REPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, fetch.ErrNoReport):
		return exitNoReport
	default:
		return exitFailure
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	// The pipeline has already reported a missing report on stdout.
	if err != nil && !errors.Is(err, fetch.ErrNoReport) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
