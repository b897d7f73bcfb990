package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codetree-io/codetree/types"
)

var conflictsView string

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <itemID>",
	Short: "Show which items share an item's position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view := types.View(conflictsView)
		if view != types.FunctionView && view != types.OrganizationView {
			return fmt.Errorf("unknown view %q (use %q or %q)", conflictsView, types.FunctionView, types.OrganizationView)
		}

		engine, itemStore, err := loadEngine()
		if err != nil {
			return err
		}
		defer func() { _ = itemStore.Close() }()

		report, err := engine.CheckConflicts(args[0], view)
		if err != nil {
			return err
		}
		if !report.HasConflict {
			fmt.Printf("no conflicts for %s in the %s view\n", args[0], view)
			return nil
		}
		fmt.Printf("%s shares its position with: %s\n", args[0], strings.Join(report.ConflictingItemIDs, ", "))
		return nil
	},
}

func init() {
	conflictsCmd.Flags().StringVarP(&conflictsView, "view", "v", string(types.FunctionView), "hierarchy view: function or organization")
}
