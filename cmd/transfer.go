package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/state"
)

var (
	flagExportFormat string
	flagExportOut    string
	flagImportFormat string
	flagImportMerge  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write entries and target as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load entries and target from a JSON or YAML export",
	Long: "Load an export. By default the file replaces all entries and the target;\n" +
		"with --merge its entries are added and its target, if any, replaces the current one.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&flagExportOut, "output", "o", "", "Write to a file instead of stdout")

	importCmd.Flags().StringVarP(&flagImportFormat, "format", "f", "", "Input format: json or yaml (default from extension)")
	importCmd.Flags().BoolVar(&flagImportMerge, "merge", false, "Add to existing entries instead of replacing them")

	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		doc := e.st.Snapshot()
		if doc.Entries == nil {
			doc.Entries = []model.Entry{}
		}
		data, err := encodeDocument(doc, flagExportFormat)
		if err != nil {
			return err
		}
		if flagExportOut == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(flagExportOut, data, 0o600); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		progressf("Exported %d entries to %s", len(doc.Entries), flagExportOut)
		return nil
	})
}

func runImport(_ *cobra.Command, args []string) error {
	path := args[0]
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // import path is user-chosen
	}
	if err != nil {
		return fmt.Errorf("reading import: %w", err)
	}

	format := flagImportFormat
	if format == "" {
		format = formatFromPath(path)
	}
	doc, err := decodeDocument(data, format)
	if err != nil {
		return err
	}
	if err := validateImport(&doc); err != nil {
		return err
	}

	return withEnv(func(_ context.Context, e *env) error {
		if flagImportMerge {
			e.st.AddEntries(doc.Entries...)
			if doc.TargetSettings != nil {
				e.st.SetTarget(*doc.TargetSettings)
			}
		} else {
			e.st.Replace(doc, state.Local)
		}
		progressf("Imported %d entries", len(doc.Entries))
		return nil
	})
}

// validateImport assigns ids to entries that lack one and rejects undated
// entries.
func validateImport(doc *model.Document) error {
	for i := range doc.Entries {
		en := &doc.Entries[i]
		if en.Date.IsZero() {
			return fmt.Errorf("%w: entry %d has no date", model.ErrInvalidInput, i+1)
		}
		if en.ID == "" {
			en.ID = model.NewID()
		}
	}
	return nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func encodeDocument(doc model.Document, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func decodeDocument(data []byte, format string) (model.Document, error) {
	var doc model.Document
	var err error
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &doc)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return doc, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return doc, fmt.Errorf("parsing %s import: %w", format, err)
	}
	return doc, nil
}
