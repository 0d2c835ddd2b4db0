package cli

import (
	"fmt"

	"github.com/andy/rechnungsbuch/internal/app"
	"github.com/andy/rechnungsbuch/internal/service"
	"github.com/spf13/cobra"
)

var appInstance *app.App

// ledgerFlag selects the ledger for invoice commands; empty means the first
// configured ledger
var ledgerFlag string

var rootCmd = &cobra.Command{
	Use:   "rechnungsbuch",
	Short: "Track invoices, installment plans and inspection rounds",
	Long: `Rechnungsbuch tracks incoming invoices across company and private ledgers,
derives what is outstanding and overdue, and keeps recurring inspection
checklists.

By default, running rechnungsbuch without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch TUI
		return launchTUI(cmd, args)
	},
}

// Execute runs the root command with the given arguments
func Execute(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

// IsInteractive reports whether args launch the TUI, so the caller can keep
// log output off the terminal before the app is built
func IsInteractive(args []string) bool {
	cmd, _, err := rootCmd.Find(args)
	if err != nil {
		return false
	}
	return cmd == rootCmd || cmd == tuiCmd
}

// invoices returns the invoice service of the selected ledger
func invoices() (service.InvoiceService, error) {
	if appInstance == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return appInstance.Invoices(ledgerFlag)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ledgerFlag, "ledger", "l", "", "Ledger key (defaults to the first configured ledger)")

	// Add all subcommands
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(inspectionsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
