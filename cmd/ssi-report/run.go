// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ssi-report/internal/classify"
	"github.com/pdiddy/ssi-report/internal/clean"
	"github.com/pdiddy/ssi-report/internal/dataset"
	"github.com/pdiddy/ssi-report/internal/fetch"
	"github.com/pdiddy/ssi-report/internal/history"
	"github.com/pdiddy/ssi-report/internal/pdftables"
	"github.com/pdiddy/ssi-report/internal/pipeline"
	"github.com/pdiddy/ssi-report/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the report for a date and append its tables to the datasets",
	Long: `Run downloads the surveillance report for one date (today by default),
extracts its tables, and appends the age, regional and hospitalization rows to
the datasets in the data directory.

Every table is validated before any dataset is written, so a report whose
layout has changed leaves all datasets untouched. When no report was
published for the date, run prints "no article for the day" and exits with
status 2.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("date", "", "report date as YYYY-MM-DD (default: today)")
	runCmd.Flags().String("backend", string(types.BackendTabula), "table extraction backend: tabula or container")
	runCmd.Flags().String("image", pdftables.DefaultImage, "container image used by the container backend")
	runCmd.Flags().Duration("timeout", 60*time.Second, "HTTP request timeout")
	runCmd.Flags().String("user-agent", "ssi-report/"+version, "User-Agent header for report downloads")
	runCmd.Flags().String("keep-pdf", "", "keep the downloaded PDF in this directory")
	runCmd.Flags().Bool("no-history", false, "do not record the run in the history database")

	for key, flag := range map[string]string{
		"date":               "date",
		"extraction.backend": "backend",
		"extraction.image":   "image",
		"fetch.timeout":      "timeout",
		"fetch.user_agent":   "user-agent",
		"fetch.keep_dir":     "keep-pdf",
	} {
		_ = viper.BindPFlag(key, runCmd.Flags().Lookup(flag))
	}
	viper.SetDefault("history.enabled", true)

	rootCmd.AddCommand(runCmd)
}

// pipelineConfig assembles the run configuration from flags, environment
// and config file.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    viper.GetDuration("fetch.timeout"),
				UserAgent:  viper.GetString("fetch.user_agent"),
				MaxRetries: viper.GetInt("fetch.max_retries"),
			},
			KeepDir: viper.GetString("fetch.keep_dir"),
		},
		Extraction: types.ExtractionConfig{
			Backend: types.ExtractionBackend(viper.GetString("extraction.backend")),
			Image:   viper.GetString("extraction.image"),
		},
		Dataset: types.DatasetConfig{
			DataDir: viper.GetString("dataset.data_dir"),
		},
		History: types.HistoryConfig{
			Enabled: viper.GetBool("history.enabled"),
			Path:    viper.GetString("history.path"),
		},
	}
}

// parseDate reads a YYYY-MM-DD date in local time. Empty means today.
func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation(types.DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func historyPath(cfg types.PipelineConfig) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return history.DefaultPath(cfg.Dataset.DataDir)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}

	date, err := parseDate(viper.GetString("date"), time.Now())
	if err != nil {
		return err
	}

	extractor, err := pdftables.New(cfg.Extraction)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Fetch.Timeout}
	p := &pipeline.Pipeline{
		Fetcher:   fetch.New(client, cfg.Fetch),
		Extractor: extractor,
		Registry:  classify.Default(),
		Schemas:   clean.Schemas(),
		Writer:    dataset.NewWriter(cfg.Dataset.DataDir),
		WorkDir:   cfg.Fetch.KeepDir,
		Out:       os.Stdout,
		Err:       os.Stderr,
	}

	if cfg.History.Enabled {
		store, err := history.Open(historyPath(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: run history disabled: %v\n", err)
		} else {
			defer store.Close()
			p.History = store
		}
	}

	_, err = p.Run(cmd.Context(), date)
	return err
}
