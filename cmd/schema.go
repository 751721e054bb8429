package cmd

import (
	"encoding/json"
	"os"

	"github.com/cardsweep/cardsweep/output"
	"github.com/cardsweep/cardsweep/progress"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolP("progress", "p", false, "Generate the JSON Schema of the progress file instead")
}

// schemaCmd prints JSON schemas of the output artifacts.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON Schema of the output document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("progress")):
			schema = progress.Schema()
		default:
			schema = output.Schema()
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		handleErr(enc.Encode(schema))
	},
}
