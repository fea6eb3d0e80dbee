// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/takeoff/internal/convert"
	"github.com/pdiddy/takeoff/internal/scan"
	"github.com/pdiddy/takeoff/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Extract engineering line items from documents",
	Long: `Scan reads documents line by line and extracts every line item that
names a recognized engineering code: portal frame sections (360UB57),
reinforcement (D16@200), welded mesh (665 mesh) and roof sheeting
(0.55mm BMT). Each record carries the code, up to three following lines of
description, the category and a quantity.

Pass .txt or .pdf files to print their records, or use --batch to scan every
documents/text/*.txt and write takeoff/records/<id>-records.yaml.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	batch, _ := cmd.Flags().GetBool("batch")
	if !batch && len(args) == 0 {
		return fmt.Errorf("provide files to scan or use --batch")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if batch {
		summary, err := scan.ScanAll(cmd.Context(), cfg.Scan, out)
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d document(s) failed scanning", summary.Failed)
		}
		return nil
	}

	var conv convert.Converter
	for _, a := range args {
		if convert.AllowedFile(a) {
			if conv, err = newConverter(cfg.Conversion.Backend); err != nil {
				return err
			}
			break
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	var records []types.Record
	for _, path := range args {
		result, err := scan.ScanFile(cmd.Context(), path, conv)
		if err != nil {
			return err
		}
		records = append(records, result.Records...)
	}

	return formatScanOutput(out, records, jsonOutput)
}

func formatScanOutput(w io.Writer, records []types.Record, jsonOutput bool) error {
	if jsonOutput {
		if records == nil {
			records = []types.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, scan.NothingFoundMessage)
		return nil
	}

	fmt.Fprintf(w, "%-12s  %-50s  %-14s  %s\n", "Code", "Description", "Category", "Qty")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, r := range records {
		fmt.Fprintf(w, "%-12s  %-50s  %-14s  %s\n", r.Code, truncate(r.Desc, 50), r.Type, r.Qty)
	}

	fmt.Fprintln(w)
	for _, c := range scan.Summarize(records) {
		fmt.Fprintf(w, "%s: %d\n", c.Category, c.Count)
	}
	fmt.Fprintf(w, "%d records\n", len(records))
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	scanCmd.Flags().Bool("batch", false, "scan every documents-dir/text/*.txt and write YAML results")
	scanCmd.Flags().Bool("json", false, "print records as JSON")
	scanCmd.Flags().String("documents-dir", "", "base directory for documents, contains text/ (default documents)")
	scanCmd.Flags().String("takeoff-dir", "", "base directory for scan output, contains records/ (default takeoff)")
	scanCmd.Flags().Int("workers", 0, "documents scanned at once in batch mode (default 4)")

	_ = viper.BindPFlag("scan.documents_dir", scanCmd.Flags().Lookup("documents-dir"))
	_ = viper.BindPFlag("scan.takeoff_dir", scanCmd.Flags().Lookup("takeoff-dir"))
	_ = viper.BindPFlag("scan.workers", scanCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(scanCmd)
}
