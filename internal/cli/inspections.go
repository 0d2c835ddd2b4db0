package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/andy/rechnungsbuch/internal/service"
	"github.com/spf13/cobra"
)

var inspectionsCmd = &cobra.Command{
	Use:     "inspections",
	Aliases: []string{"begehungen"},
	Short:   "Manage inspection checklists and runs",
	Long: `Keep daily, weekly and monthly inspection checklists and record each run.

Cadences: taeglich (daily), woechentlich (weekly), monatlich (monthly).`,
}

var inspectionsItemsCmd = &cobra.Command{
	Use:   "items [cadence]",
	Short: "List checklist items",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		includeInactive, _ := cmd.Flags().GetBool("inactive")

		var cadence *domain.Cadence
		if len(args) == 1 {
			c, err := parseCadence(args[0])
			if err != nil {
				return err
			}
			cadence = &c
		}

		items, err := appInstance.InspectionService.ListItems(ctx, cadence, includeInactive)
		if err != nil {
			return fmt.Errorf("failed to list checklist items: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("No checklist items found")
			return nil
		}

		fmt.Printf("%-8s %-13s %-5s %-40s %s\n", "ID", "Cadence", "Order", "Title", "Status")
		fmt.Println(strings.Repeat("-", 80))
		for _, item := range items {
			status := "Active"
			if !item.IsActive {
				status = "Inactive"
			}
			fmt.Printf("%-8s %-13s %-5d %-40s %s\n",
				shortID(item.ID), item.Cadence, item.SortOrder, format.Truncate(item.Title, 40), status)
		}
		return nil
	},
}

var inspectionsAddItemCmd = &cobra.Command{
	Use:   "add-item [cadence] [title]",
	Short: "Add a checklist item",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cadence, err := parseCadence(args[0])
		if err != nil {
			return err
		}
		description, _ := cmd.Flags().GetString("description")

		var order *int
		if cmd.Flags().Changed("order") {
			o, _ := cmd.Flags().GetInt("order")
			order = &o
		}

		item, err := appInstance.InspectionService.AddItem(ctx, strings.Join(args[1:], " "), description, cadence, order)
		if err != nil {
			return fmt.Errorf("failed to add checklist item: %w", err)
		}

		fmt.Printf("✓ Checklist item added: %s (%s, ID: %s)\n", item.Title, item.Cadence, item.ID)
		return nil
	},
}

var inspectionsDeactivateItemCmd = &cobra.Command{
	Use:   "deactivate-item [item_id]",
	Short: "Deactivate a checklist item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveChecklistItemID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := appInstance.InspectionService.DeactivateItem(ctx, id); err != nil {
			return fmt.Errorf("failed to deactivate checklist item: %w", err)
		}

		fmt.Printf("✓ Checklist item deactivated (ID: %s)\n", id)
		return nil
	},
}

var inspectionsStartCmd = &cobra.Command{
	Use:   "start [cadence]",
	Short: "Start an inspection run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cadence, err := parseCadence(args[0])
		if err != nil {
			return err
		}

		run, err := appInstance.InspectionService.StartRun(ctx, cadence)
		if err != nil {
			return fmt.Errorf("failed to start run: %w", err)
		}

		fmt.Printf("✓ Inspection run started: %s (%d items)\n", run.Cadence, len(run.Items))
		printRun(run)
		return nil
	},
}

var inspectionsCheckCmd = &cobra.Command{
	Use:   "check [cadence] [item_number]",
	Short: "Mark an item of the active run as done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		run, item, err := resolveRunItem(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		undo, _ := cmd.Flags().GetBool("undo")
		if undo {
			if _, err := appInstance.InspectionService.UncheckItem(ctx, run.ID, item.ID); err != nil {
				return fmt.Errorf("failed to uncheck item: %w", err)
			}
			fmt.Printf("✓ Unchecked: %s\n", item.Title)
			return nil
		}

		remark, _ := cmd.Flags().GetString("remark")
		if _, err := appInstance.InspectionService.CheckItem(ctx, run.ID, item.ID, remark); err != nil {
			return fmt.Errorf("failed to check item: %w", err)
		}
		fmt.Printf("✓ Checked: %s\n", item.Title)
		return nil
	},
}

var inspectionsCompleteCmd = &cobra.Command{
	Use:   "complete [cadence]",
	Short: "Complete the active run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		run, err := activeRun(ctx, args[0])
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")

		run, err = appInstance.InspectionService.CompleteRun(ctx, run.ID, notes)
		if err != nil {
			return fmt.Errorf("failed to complete run: %w", err)
		}

		done, total := run.Progress()
		fmt.Printf("✓ Inspection run completed: %s (%d/%d items done)\n", run.Cadence, done, total)
		return nil
	},
}

var inspectionsAbortCmd = &cobra.Command{
	Use:   "abort [cadence]",
	Short: "Abort the active run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		run, err := activeRun(ctx, args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")

		if _, err := appInstance.InspectionService.AbortRun(ctx, run.ID, reason); err != nil {
			return fmt.Errorf("failed to abort run: %w", err)
		}

		fmt.Printf("✓ Inspection run aborted: %s\n", run.Cadence)
		return nil
	},
}

var inspectionsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show overdue state per cadence and any active runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		statuses, err := appInstance.InspectionService.OverdueAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to derive inspection status: %w", err)
		}

		fmt.Printf("%-13s %-9s %-17s %s\n", "Cadence", "Threshold", "Last completed", "State")
		fmt.Println(strings.Repeat("-", 70))
		for _, st := range statuses {
			last := "never"
			if st.LastCompletedAt != nil {
				last = st.LastCompletedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%-13s %-9s %-17s %s\n", st.Cadence, fmt.Sprintf("%dd", st.ThresholdDays), last, describeTask(st))
		}

		for _, st := range statuses {
			if st.ActiveRun != nil {
				fmt.Println()
				fmt.Printf("Active %s run:\n", st.Cadence)
				printRun(st.ActiveRun)
			}
		}
		return nil
	},
}

var inspectionsHistoryCmd = &cobra.Command{
	Use:   "history [cadence]",
	Short: "List past runs of a cadence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cadence, err := parseCadence(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := appInstance.InspectionService.History(ctx, cadence, limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs found")
			return nil
		}

		for _, run := range runs {
			done, total := run.Progress()
			finished := "-"
			if run.CompletedAt != nil {
				finished = run.CompletedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%s  %-15s %-17s %d/%d  %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04"), run.Status, finished, done, total, run.Notes)
		}
		return nil
	},
}

func describeTask(st *service.TaskStatus) string {
	switch {
	case st.NeverRun:
		return "never run, overdue"
	case st.IsOverdue:
		return fmt.Sprintf("overdue by %d day(s)", st.DaysOverdue)
	default:
		return fmt.Sprintf("ok (%d day(s) ago)", st.DaysSince)
	}
}

func printRun(run *domain.InspectionRun) {
	for i, item := range run.Items {
		mark := "[ ]"
		if item.IsDone {
			mark = "[x]"
		}
		line := fmt.Sprintf("  %2d. %s %s", i+1, mark, item.Title)
		if item.Remark != "" {
			line += " (" + item.Remark + ")"
		}
		fmt.Println(line)
	}
}

func activeRun(ctx context.Context, cadenceArg string) (*domain.InspectionRun, error) {
	cadence, err := parseCadence(cadenceArg)
	if err != nil {
		return nil, err
	}
	run, err := appInstance.InspectionService.ActiveRun(ctx, cadence)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no active %s run", cadence)
	}
	return run, nil
}

// resolveRunItem finds an item of the active run by 1-based position or id prefix
func resolveRunItem(ctx context.Context, cadenceArg, itemArg string) (*domain.InspectionRun, *domain.RunItem, error) {
	run, err := activeRun(ctx, cadenceArg)
	if err != nil {
		return nil, nil, err
	}

	if n, err := strconv.Atoi(itemArg); err == nil {
		if n < 1 || n > len(run.Items) {
			return nil, nil, fmt.Errorf("item number must be between 1 and %d", len(run.Items))
		}
		return run, run.Items[n-1], nil
	}

	for _, item := range run.Items {
		if strings.HasPrefix(item.ID, itemArg) {
			return run, item, nil
		}
	}
	return nil, nil, fmt.Errorf("item '%s' not found in run", itemArg)
}

func resolveChecklistItemID(ctx context.Context, idOrPrefix string) (string, error) {
	items, err := appInstance.InspectionService.ListItems(ctx, nil, true)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.ID == idOrPrefix || strings.HasPrefix(item.ID, idOrPrefix) {
			return item.ID, nil
		}
	}
	return "", fmt.Errorf("checklist item '%s' not found", idOrPrefix)
}

func init() {
	inspectionsCmd.AddCommand(inspectionsItemsCmd)
	inspectionsCmd.AddCommand(inspectionsAddItemCmd)
	inspectionsCmd.AddCommand(inspectionsDeactivateItemCmd)
	inspectionsCmd.AddCommand(inspectionsStartCmd)
	inspectionsCmd.AddCommand(inspectionsCheckCmd)
	inspectionsCmd.AddCommand(inspectionsCompleteCmd)
	inspectionsCmd.AddCommand(inspectionsAbortCmd)
	inspectionsCmd.AddCommand(inspectionsStatusCmd)
	inspectionsCmd.AddCommand(inspectionsHistoryCmd)

	inspectionsItemsCmd.Flags().Bool("inactive", false, "Include deactivated items")

	inspectionsAddItemCmd.Flags().String("description", "", "Item description")
	inspectionsAddItemCmd.Flags().Int("order", 0, "Sort order (defaults to last)")

	inspectionsCheckCmd.Flags().String("remark", "", "Remark for the item")
	inspectionsCheckCmd.Flags().Bool("undo", false, "Clear the item instead")

	inspectionsCompleteCmd.Flags().String("notes", "", "Notes for the run")
	inspectionsAbortCmd.Flags().String("reason", "", "Why the run was aborted")

	inspectionsHistoryCmd.Flags().Int("limit", 10, "Number of runs to show")
}
