package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"waste-analytics-service/internal/aggregate"
	"waste-analytics-service/internal/config"
	"waste-analytics-service/internal/ingest"
	"waste-analytics-service/internal/logger"
	"waste-analytics-service/internal/model"
	"waste-analytics-service/internal/service"
	"waste-analytics-service/internal/store"
)

type queryFlags struct {
	dataDir     string
	year        string
	compareYear string
	vehicles    []string
	months      []string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "wastectl",
		Short: "Offline waste fleet analytics over published datasets",
	}

	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func summaryCmd() *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard for the selected year as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			analytics, err := load(cmd.Context(), flags.dataDir)
			if err != nil {
				return err
			}
			dashboard, err := analytics.GetDashboard(cmd.Context(), cliPrincipal(), flags.params())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dashboard)
		},
	}

	flags.bind(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		flags  queryFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard workbook (xlsx)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			analytics, err := load(cmd.Context(), flags.dataDir)
			if err != nil {
				return err
			}
			f, name, err := analytics.Export(cmd.Context(), cliPrincipal(), flags.params())
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if output == "" {
				output = name
			}
			if err := f.SaveAs(output); err != nil {
				return fmt.Errorf("save %s: %w", output, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook path (default waste-analytics-<year>.xlsx)")
	return cmd
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dataDir, "data-dir", "d", "", "directory with <dataset>.csv or <dataset>.xlsx files (default: configured sources)")
	cmd.Flags().StringVarP(&f.year, "year", "y", "", "year to analyse (default: latest)")
	cmd.Flags().StringVar(&f.compareYear, "compare-year", "", "year to compare against")
	cmd.Flags().StringSliceVar(&f.vehicles, "vehicles", nil, "vehicle ids to include")
	cmd.Flags().StringSliceVar(&f.months, "months", nil, "months to include (jan..dec or 1..12)")
}

func (f *queryFlags) params() service.QueryParams {
	return service.QueryParams{
		Year:        f.year,
		CompareYear: f.compareYear,
		Vehicles:    f.vehicles,
		Months:      f.months,
	}
}

func cliPrincipal() model.Principal {
	return model.Principal{UserID: uuid.Nil, Role: model.RoleAdmin}
}

func load(ctx context.Context, dataDir string) (*service.AnalyticsService, error) {
	cfg := config.LoadDatasets()
	log := logger.New(cfg.Environment)

	sources := cfg.Datasets.Sources
	if dataDir != "" {
		var err error
		if sources, err = discover(dataDir); err != nil {
			return nil, err
		}
	}

	loader := ingest.NewLoader(sources, ingest.Options{
		Timeout:    cfg.Datasets.FetchTimeout,
		MaxRetries: cfg.Datasets.MaxRetries,
	}, nil, nil, log)

	snapshots := store.NewSnapshotStore()
	ingestion := service.NewIngestionService(loader, nil, snapshots, 0, nil, log)

	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := ingestion.Bootstrap(loadCtx); err != nil {
		return nil, err
	}

	return service.NewAnalyticsService(snapshots, aggregate.Options{
		AffordabilityBenchmark: cfg.Analytics.AffordabilityBenchmark,
		OperatingDaysPerMonth:  cfg.Analytics.OperatingDaysPerMonth,
	}, nil), nil
}

// discover maps files named after datasets to their sources.
func discover(dir string) (map[model.Dataset]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	sources := make(map[model.Dataset]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		ds := model.Dataset(strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))))
		for _, known := range model.AllDatasets {
			if ds == known {
				sources[ds] = filepath.Join(dir, name)
			}
		}
	}
	return sources, nil
}
