// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/takeoff/internal/schedule"
	"github.com/pdiddy/takeoff/pkg/types"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the takeoff schedule (store, retrieve, export)",
	Long: `Schedule manages a local SQLite database built from scan results.
Use subcommands to index records, query them, total quantities, or export.`,
}

// --- store subcommand ---

var scheduleStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest scan results into the schedule",
	Long: `Store reads scan result files from takeoff/records/, ingests them into
a SQLite database with full-text indexing, and writes export.yaml.
Unchanged documents are skipped on subsequent runs.`,
	RunE: runScheduleStore,
}

func runScheduleStore(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var scheduleRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the schedule with full-text search and filters",
	Long: `Retrieve searches the schedule using full-text search over codes and
descriptions, structured filters (type, document, code), or both.
Use --totals to sum quantities per code instead of listing records.`,
	RunE: runScheduleRetrieve,
}

func runScheduleRetrieve(cmd *cobra.Command, args []string) error {
	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	totals, _ := cmd.Flags().GetBool("totals")
	if opts.IsEmpty() && !totals {
		return fmt.Errorf("query or filter required: provide a search query, --type, --document, or --code")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if totals {
		results, err := store.Totals(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return formatTotalsOutput(out, results, jsonOutput)
	}

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return formatRetrieveOutput(out, results, jsonOutput)
}

func formatRetrieveOutput(w io.Writer, results []schedule.Entry, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []schedule.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-12s  %-40s  %-14s  %-12s  %s\n",
		"Code", "Description", "Category", "Qty", "Document")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range results {
		fmt.Fprintf(w, "%-12s  %-40s  %-14s  %-12s  %s\n",
			r.Code, truncate(r.Desc, 40), r.Type, r.Qty, truncate(r.DocumentID, 20))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func formatTotalsOutput(w io.Writer, totals []schedule.Total, jsonOutput bool) error {
	if jsonOutput {
		if totals == nil {
			totals = []schedule.Total{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(totals)
	}

	if len(totals) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-14s  %-12s  %5s  %8s  %12s  %s\n",
		"Category", "Code", "Items", "Quantity", "As specified", "Unparsed")
	fmt.Fprintln(w, strings.Repeat("-", 74))
	for _, t := range totals {
		fmt.Fprintf(w, "%-14s  %-12s  %5d  %8d  %12d  %d\n",
			t.Category, t.Code, t.Items, t.Quantity, t.AsSpecified, t.Unparsed)
	}
	return nil
}

// --- export subcommand ---

var scheduleExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the schedule to YAML, JSON or XLSX",
	Long: `Export writes the full schedule (or a filtered subset) to
takeoff/index/export.yaml, export.json or export.xlsx. The workbook has a
Schedule sheet of records and a Totals sheet of per-code quantities.
Supports the same filter flags as retrieve for partial exports.`,
	RunE: runScheduleExport,
}

func runScheduleExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	switch format {
	case "yaml", "":
		err = store.ExportYAML(ctx, opts)
		format = "yaml"
	case "json":
		err = store.ExportJSON(ctx, opts)
	case "xlsx":
		err = store.ExportXLSX(ctx, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json or xlsx", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", store.ExportPath(format))
	return nil
}

// --- shared helpers ---

func openStore() (*schedule.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return schedule.NewStore(cfg.Schedule)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (schedule.QueryOptions, error) {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	typeName, _ := cmd.Flags().GetString("type")
	documentID, _ := cmd.Flags().GetString("document")
	code, _ := cmd.Flags().GetString("code")
	limit, _ := cmd.Flags().GetInt("limit")

	category, err := parseCategory(typeName)
	if err != nil {
		return schedule.QueryOptions{}, err
	}

	return schedule.QueryOptions{
		Query:      queryText,
		Type:       category,
		DocumentID: documentID,
		Code:       code,
		MaxResults: limit,
	}, nil
}

// parseCategory accepts a category label ignoring case, with hyphens or
// underscores in place of spaces ("portal-frame").
func parseCategory(s string) (types.Category, error) {
	if s == "" {
		return "", nil
	}
	name := strings.NewReplacer("-", " ", "_", " ").Replace(s)
	for _, c := range append(types.Categories(), types.CategoryUnknown) {
		if strings.EqualFold(name, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown type %q: use portal-frame, reinforcement, welded-mesh, roofing or unknown", s)
}

func addFilterFlags(cmd *cobra.Command, purpose string) {
	cmd.Flags().String("query", "", "full-text search over code and description"+purpose)
	cmd.Flags().String("type", "", "filter by category: portal-frame, reinforcement, welded-mesh, roofing, unknown")
	cmd.Flags().String("document", "", "filter by document ID")
	cmd.Flags().String("code", "", "filter by code, ignoring case")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	scheduleCmd.PersistentFlags().String("takeoff-dir", "", "base directory for takeoff data, contains records/ and index/ (default takeoff)")
	scheduleCmd.PersistentFlags().Int("max-results", 0, "default maximum number of query results (default 50)")

	_ = viper.BindPFlag("schedule.takeoff_dir", scheduleCmd.PersistentFlags().Lookup("takeoff-dir"))
	_ = viper.BindPFlag("schedule.max_results", scheduleCmd.PersistentFlags().Lookup("max-results"))

	// Retrieve flags.
	addFilterFlags(scheduleRetrieveCmd, "")
	scheduleRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	scheduleRetrieveCmd.Flags().Bool("totals", false, "sum quantities per category and code")
	scheduleRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	addFilterFlags(scheduleExportCmd, " for partial export")
	scheduleExportCmd.Flags().String("format", "yaml", "export format: yaml, json or xlsx")
	scheduleExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	// Wire subcommands.
	scheduleCmd.AddCommand(scheduleStoreCmd)
	scheduleCmd.AddCommand(scheduleRetrieveCmd)
	scheduleCmd.AddCommand(scheduleExportCmd)

	rootCmd.AddCommand(scheduleCmd)
}
