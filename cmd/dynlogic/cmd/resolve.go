package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/metadata"
	"github.com/helioscrm/dynlogic/internal/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve field/panel states for one record",
	Long:  `resolve loads a metadata file, evaluates one entity's rules against a record given as JSON, and prints the resolved state. Useful for debugging rule behavior without a running service.`,
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().String("file", "", "metadata file (.json, .yaml)")
	resolveCmd.Flags().String("entity", "", "entity type to resolve")
	resolveCmd.Flags().String("record", "{}", "record as a JSON object")
	_ = resolveCmd.MarkFlagRequired("file")
	_ = resolveCmd.MarkFlagRequired("entity")
}

func runResolve(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	entity, _ := cmd.Flags().GetString("entity")
	recordJSON, _ := cmd.Flags().GetString("record")

	doc, err := metadata.LoadFile(file)
	if err != nil {
		return err
	}

	var record types.Record
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return fmt.Errorf("invalid --record JSON: %w", err)
	}

	resolver := logic.NewResolver(logic.Hooks{
		UnknownType: func(_ types.EntityType, ct types.ConditionType, attr string) {
			fmt.Fprintf(os.Stderr, "warning: unknown condition type %q on attribute %q\n", ct, attr)
		},
	})
	resolver.ReplaceAll(doc.RuleSets())

	state := resolver.Resolve(types.EntityType(entity), record)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}
