package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate [itemID]",
	Short: "Recompute hierarchy codes",
	Long: `Recompute hierarchy codes for the whole item set, or for one item's
neighborhood when an item id is given. The single-item form reports which
sibling codes changed as a side effect.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, itemStore, err := loadEngine()
		if err != nil {
			return err
		}
		defer func() { _ = itemStore.Close() }()

		if len(args) == 0 {
			results, err := engine.RegenerateAll()
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%-38s  fn=%-20s org=%s\n", r.ItemID, r.FunctionCode, r.OrganizationCode)
			}
			fmt.Printf("regenerated %d item(s)\n", len(results))
			return nil
		}

		result, err := engine.RegenerateOne(args[0])
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Printf("item not found: %s\n", args[0])
			return nil
		}

		fmt.Printf("item:     %s\n", result.ItemID)
		fmt.Printf("function: %s\n", result.FunctionCode)
		fmt.Printf("org:      %s\n", result.OrganizationCode)
		fmt.Printf("summary:  %s\n", result.Description)
		if result.ConflictsResolved {
			fmt.Println("conflicts were resolved")
		}
		for _, m := range result.AffectedItems {
			fmt.Printf("  %-38s %-12s %s -> %s\n", m.ItemID, string(m.View), orDash(m.OldCode), m.NewCode)
		}
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
