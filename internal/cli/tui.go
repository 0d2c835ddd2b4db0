package cli

import (
	"fmt"

	"github.com/andy/rechnungsbuch/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal UI",
	Long:  `Launch the interactive terminal user interface for rechnungsbuch.`,
	RunE:  launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) error {
	if appInstance == nil {
		return fmt.Errorf("application not initialized")
	}
	return tui.Run(appInstance, ledgerFlag)
}
