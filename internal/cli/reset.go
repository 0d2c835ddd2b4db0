package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database.

Examples:
  rechnungsbuch reset invoices      # Delete all invoices, payments and activity logs
  rechnungsbuch reset inspections   # Delete all inspection runs, keep the checklists
  rechnungsbuch reset all           # Wipe everything`,
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices, payments and activity logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL invoices in ALL ledgers, with payments and activity logs. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		// Order matters due to foreign keys
		if err := clearTables("activities", "payments", "invoices"); err != nil {
			return err
		}

		fmt.Println("All invoices have been deleted.")
		return nil
	},
}

var resetInspectionsCmd = &cobra.Command{
	Use:   "inspections",
	Short: "Delete all inspection runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL inspection runs. Checklists are kept. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables("inspection_run_items", "inspection_runs"); err != nil {
			return err
		}

		fmt.Println("All inspection runs have been deleted.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data: invoices, contacts, checklists, runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL data (invoices, contacts, checklists, everything). Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables(
			"activities",
			"payments",
			"invoices",
			"contacts",
			"inspection_run_items",
			"inspection_runs",
			"checklist_items",
		); err != nil {
			return err
		}

		fmt.Println("All data has been deleted.")
		return nil
	},
}

func clearTables(tables ...string) error {
	tx, err := appInstance.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes" || input == "j" || input == "ja"
}

func init() {
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetInspectionsCmd)
	resetCmd.AddCommand(resetAllCmd)
}
