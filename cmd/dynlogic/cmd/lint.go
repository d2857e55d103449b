package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/metadata"
	"github.com/helioscrm/dynlogic/internal/types"
)

var lintCmd = &cobra.Command{
	Use:   "lint <metadata-file>",
	Short: "Validate a metadata document",
	Long:  `lint parses a metadata file (.json, .yaml) and reports structural diagnostics per entity type. Exits non-zero on resource-limit violations.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	doc, err := metadata.LoadFile(args[0])
	if err != nil {
		return err
	}

	ruleSets := doc.RuleSets()
	entityTypes := make([]string, 0, len(ruleSets))
	for et := range ruleSets {
		entityTypes = append(entityTypes, string(et))
	}
	sort.Strings(entityTypes)

	var hardErrors int
	var diagnostics int
	for _, et := range entityTypes {
		diags, err := logic.ValidateRuleSet(ruleSets[types.EntityType(et)])
		if err != nil {
			hardErrors++
			fmt.Printf("%s: error: %v\n", et, err)
			continue
		}
		for _, d := range diags {
			diagnostics++
			fmt.Printf("%s: %s: %s (%s)\n", et, d.Code, d.Message, d.Path)
		}
	}

	fmt.Printf("%d entity types, %d diagnostics, %d errors\n", len(entityTypes), diagnostics, hardErrors)
	if hardErrors > 0 {
		return fmt.Errorf("%d rule sets exceed resource limits", hardErrors)
	}
	return nil
}
