// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/takeoff/internal/container"
	"github.com/pdiddy/takeoff/internal/convert"
	"github.com/pdiddy/takeoff/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF documents to plain text",
	Long: `Convert extracts the text of PDF documents into documents/text/<id>.txt,
keeping line order. The native backend reads PDFs in-process; the pdftotext
backend runs pdftotext in a container (docker or podman).

Pass PDF paths, or use --batch to convert everything under documents/raw/.
Documents that already have text output are skipped.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	batch, _ := cmd.Flags().GetBool("batch")
	if !batch && len(args) == 0 {
		return fmt.Errorf("provide PDF paths or use --batch")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	conv, err := newConverter(cfg.Conversion.Backend)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var result convert.BatchResult
	if batch {
		result, err = convert.ConvertAll(ctx, conv, cfg.Conversion.DocumentsDir, out)
		if err != nil {
			return err
		}
	} else {
		result = convert.ConvertPaths(ctx, conv, args, cfg.Conversion.DocumentsDir, out)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}

// newConverter builds the converter for backend, detecting a container
// runtime when the backend needs one.
func newConverter(backend types.ConversionBackend) (convert.Converter, error) {
	var rt container.Runtime
	if backend == types.BackendPdftotext {
		detected, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		slog.Debug("container runtime detected", "runtime", detected.Name())
		rt = detected
	}
	return convert.NewConverter(backend, rt)
}

func init() {
	convertCmd.Flags().String("backend", "", "conversion backend: native or pdftotext (default native)")
	convertCmd.Flags().String("documents-dir", "", "base directory for documents, contains raw/ and text/ (default documents)")
	convertCmd.Flags().Bool("batch", false, "convert every PDF under documents-dir/raw/")

	_ = viper.BindPFlag("conversion.backend", convertCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("conversion.documents_dir", convertCmd.Flags().Lookup("documents-dir"))

	rootCmd.AddCommand(convertCmd)
}
