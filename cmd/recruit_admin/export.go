package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-grader/internal/export"
	"github.com/jonathan/recruit-grader/internal/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export applicants with recomputed averages as CSV",
	Long:  "Writes one CSV row per applicant with per-question, per-round and per-sub-section averages recomputed from raw grades.",
	RunE:  runExport,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump every record of the cycle as JSON",
	RunE:  runBackup,
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summarize the cycle's applicant pool",
	RunE:  runAnalytics,
}

var (
	exportStatuses []string
	outputPath     string
	analyticsJSON  bool
)

func init() {
	exportCmd.Flags().StringSliceVar(&exportStatuses, "status", nil, "Only export applicants in these statuses")
	for _, c := range []*cobra.Command{exportCmd, backupCmd} {
		c.Flags().StringVarP(&outputPath, "out", "o", "", "Output file (default stdout)")
	}
	analyticsCmd.Flags().BoolVar(&analyticsJSON, "json", false, "Print JSON instead of a summary box")

	rootCmd.AddCommand(exportCmd, backupCmd, analyticsCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		statuses := make([]types.Status, 0, len(exportStatuses))
		for _, s := range exportStatuses {
			statuses = append(statuses, types.Status(s))
		}
		rows, err := a.svc.ExportRows(ctx, cfg.Cycle, statuses...)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputPath, func(w io.Writer) error {
			return export.WriteCSV(w, rows)
		})
	})
}

func runBackup(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		backup, err := a.svc.Backup(ctx, cfg.Cycle)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputPath, func(w io.Writer) error {
			return writeJSON(w, backup)
		})
	})
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, true, func(ctx context.Context, a *app) error {
		analytics, err := a.svc.Analytics(ctx, cfg.Cycle)
		if err != nil {
			return err
		}
		if analyticsJSON {
			return writeJSON(cmd.OutOrStdout(), analytics)
		}
		a.printer.PrintAnalytics(analytics)
		return nil
	})
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// writeOutput runs write against path, or against stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	// Ensure output directory exists
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
