package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/cli"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

var (
	flagAddDate  string
	flagAddNotes string
	flagListAll  bool
	flagListJSON bool
	flagListN    int
)

var addCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Record a net worth snapshot",
	Example: "  networth add 125000\n" +
		"  networth add 98,250.75 --date 2024-06-30 --notes \"after tax refund\"",
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete an entry by id or by the short id shown in `list`",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List entries, newest first",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	addCmd.Flags().StringVar(&flagAddDate, "date", "", "Snapshot date, YYYY-MM-DD (default today)")
	addCmd.Flags().StringVar(&flagAddNotes, "notes", "", "Optional notes")

	listCmd.Flags().BoolVarP(&flagListAll, "all", "a", false, "Show every entry")
	listCmd.Flags().IntVarP(&flagListN, "limit", "n", 20, "Number of entries to show")
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "Print JSON")

	rootCmd.AddCommand(addCmd, rmCmd, listCmd)
}

func runAdd(_ *cobra.Command, args []string) error {
	date := flagAddDate
	if date == "" {
		date = model.Today().String()
	}
	entry, err := model.ParseEntry(args[0], date, flagAddNotes)
	if err != nil {
		return err
	}
	return withEnv(func(_ context.Context, e *env) error {
		e.st.AddEntry(entry)
		fmt.Printf("  Added %s on %s (%s)\n", cli.FormatCurrencyCents(entry.Amount), entry.Date, entry.ID)
		return nil
	})
}

func runRemove(_ *cobra.Command, args []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		id, err := resolveEntryID(e.st.Entries(), args[0])
		if err != nil {
			return err
		}
		e.st.RemoveEntry(id)
		fmt.Printf("  Deleted %s\n", id)
		return nil
	})
}

// resolveEntryID matches ref against full ids first, then id suffixes.
func resolveEntryID(entries []model.Entry, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	var matches []string
	for _, e := range entries {
		if e.ID == ref {
			return e.ID, nil
		}
		if ref != "" && strings.HasSuffix(e.ID, ref) {
			matches = append(matches, e.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no entry with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d entries match)", ref, len(matches))
	}
}

func runList(_ *cobra.Command, _ []string) error {
	return withEnv(func(_ context.Context, e *env) error {
		entries := e.st.Entries()
		n := flagListN
		if flagListAll {
			n = len(entries)
		}
		recent := cli.Recent(entries, n)

		if flagListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(recent)
		}

		if len(recent) == 0 {
			fmt.Println(cli.Muted("  No entries yet."))
			return nil
		}
		title := fmt.Sprintf("Entries (%d of %d)", len(recent), len(entries))
		fmt.Print(cli.RenderTable(cli.EntryTable(title, recent)))
		return nil
	})
}
