package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check hierarchy code uniqueness",
	Long:  "Scan stored hierarchy codes and report any value held by more than one item, per view. A non-empty report is a data-integrity alarm.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, itemStore, err := loadEngine()
		if err != nil {
			return err
		}
		defer func() { _ = itemStore.Close() }()

		report, err := engine.ValidateUniqueness()
		if err != nil {
			return err
		}

		if len(report.FunctionDuplicates) == 0 && len(report.OrganizationDuplicates) == 0 {
			fmt.Println("all hierarchy codes are unique")
			return nil
		}
		for _, d := range report.FunctionDuplicates {
			fmt.Printf("function     %-30s held by %s\n", d.Code, strings.Join(d.ItemIDs, ", "))
		}
		for _, d := range report.OrganizationDuplicates {
			fmt.Printf("organization %-30s held by %s\n", d.Code, strings.Join(d.ItemIDs, ", "))
		}
		return fmt.Errorf("%d duplicate code value(s) found",
			len(report.FunctionDuplicates)+len(report.OrganizationDuplicates))
	},
}
