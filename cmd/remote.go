package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/spf13/cobra"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Inspect the synced document on the server",
}

var remoteGetCmd = &cobra.Command{
	Use:   "get [jsonpath]",
	Short: "Print the stored document, or the part selected by a JSONPath",
	Example: "  networth remote get\n" +
		"  networth remote get '$.entries[-1:].amount'\n" +
		"  networth remote get '$.targetSettings.annualSavings'",
	Args: cobra.MaximumNArgs(1),
	RunE: runRemoteGet,
}

func init() {
	remoteCmd.AddCommand(remoteGetCmd)
	rootCmd.AddCommand(remoteCmd)
}

func runRemoteGet(_ *cobra.Command, args []string) error {
	return withEnv(func(ctx context.Context, e *env) error {
		id, err := e.requireSignIn()
		if err != nil {
			return err
		}
		fields, ok, err := e.client.Fields(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			progressf("No document stored for %s yet", id)
			return nil
		}

		var out any = fields
		if len(args) == 1 {
			out, err = jsonpath.Get(args[0], fields)
			if err != nil {
				return fmt.Errorf("evaluating %q: %w", args[0], err)
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	})
}
