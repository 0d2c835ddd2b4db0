package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/andy/rechnungsbuch/internal/service"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:     "invoices",
	Aliases: []string{"rechnungen"},
	Short:   "Manage invoices",
	Long:    `Record invoices, payments, dunning levels and installment plans.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices of the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		filter := repository.InvoiceFilter{}
		filter.IncludeClosed, _ = cmd.Flags().GetBool("all")
		filter.Category, _ = cmd.Flags().GetString("category")
		filter.Search, _ = cmd.Flags().GetString("search")
		statuses, _ := cmd.Flags().GetStringSlice("status")
		for _, s := range statuses {
			status := domain.InvoiceStatus(s)
			if !status.IsValid() {
				return fmt.Errorf("unknown status %q", s)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
		if cmd.Flags().Changed("contact") {
			contact, _ := cmd.Flags().GetString("contact")
			if filter.ContactID, err = resolveContactID(ctx, contact); err != nil {
				return err
			}
		}

		list, err := svc.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		// Print table header
		fmt.Printf("%-8s %-14s %-28s %-10s %14s %-16s %-3s %s\n",
			"ID", "Reference", "Title", "Due", "Outstanding", "Status", "M", "Overdue")
		fmt.Println(strings.Repeat("-", 108))

		for _, inv := range list {
			state := svc.State(inv)
			overdue := ""
			if state.IsOverdue {
				overdue = fmt.Sprintf("%d days", state.DaysOverdue)
			}
			fmt.Printf("%-8s %-14s %-28s %-10s %14s %-16s %-3d %s\n",
				shortID(inv.ID),
				format.Truncate(inv.Reference, 14),
				format.Truncate(inv.Title, 28),
				format.Date(state.EffectiveDueDate),
				format.Money(state.Outstanding),
				inv.Status,
				inv.DunningLevel,
				overdue,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s) in %s\n", len(list), svc.Ledger())
		return nil
	},
}

var invoicesAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Record a new invoice",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		in := service.NewInvoiceInput{Title: strings.Join(args, " ")}

		amountStr, _ := cmd.Flags().GetString("amount")
		if in.Amount, err = format.ParseAmount(amountStr); err != nil {
			return err
		}

		dueStr, _ := cmd.Flags().GetString("due")
		if in.DueDate, err = parseOptionalDate(dueStr); err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		}
		if in.DueDate == nil && appInstance.Config.Invoices.DefaultDueDays > 0 {
			today, _ := parseDate("today")
			due := today.AddDate(0, 0, appInstance.Config.Invoices.DefaultDueDays)
			in.DueDate = &due
		}

		issueStr, _ := cmd.Flags().GetString("issued")
		if in.IssueDate, err = parseOptionalDate(issueStr); err != nil {
			return fmt.Errorf("invalid issue date: %w", err)
		}

		in.Reference, _ = cmd.Flags().GetString("ref")
		if autoRef, _ := cmd.Flags().GetBool("auto-ref"); autoRef && in.Reference == "" {
			year := time.Now().Year()
			if in.IssueDate != nil {
				year = in.IssueDate.Year()
			}
			if in.Reference, err = appInstance.InvoiceRepo.NextReference(ctx, appInstance.Config.Invoices.ReferencePrefix, year); err != nil {
				return err
			}
		}

		in.Company, _ = cmd.Flags().GetString("company")
		in.Category, _ = cmd.Flags().GetString("category")
		in.Notes, _ = cmd.Flags().GetString("notes")
		priority, _ := cmd.Flags().GetString("priority")
		in.Priority = domain.Priority(priority)

		contact, _ := cmd.Flags().GetString("contact")
		if in.ContactID, err = resolveContactID(ctx, contact); err != nil {
			return err
		}

		if cmd.Flags().Changed("vat") {
			vat, _ := cmd.Flags().GetString("vat")
			if in.VAT, err = format.ParseAmount(vat); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("gross") {
			gross, _ := cmd.Flags().GetString("gross")
			if in.GrossAmount, err = format.ParseAmount(gross); err != nil {
				return err
			}
		}

		if cmd.Flags().Changed("rate") {
			rate, _ := cmd.Flags().GetString("rate")
			if in.InstallmentAmount, err = format.ParseAmount(rate); err != nil {
				return err
			}
			interval, _ := cmd.Flags().GetString("interval")
			in.Interval = domain.Interval(interval)
			firstStr, _ := cmd.Flags().GetString("first-rate")
			if in.InstallmentDueDate, err = parseOptionalDate(firstStr); err != nil {
				return fmt.Errorf("invalid first installment date: %w", err)
			}
		}

		invoice, err := svc.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		fmt.Printf("✓ Invoice recorded: %s (ID: %s)\n", invoice.Title, invoice.ID)
		if invoice.Reference != "" {
			fmt.Printf("  Reference: %s\n", invoice.Reference)
		}
		fmt.Printf("  Amount: %s, due %s\n", format.Money(invoice.Amount), format.Date(invoice.DueDate))
		fmt.Printf("  Status: %s\n", invoice.Status)
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id_or_reference]",
	Short: "Show invoice details, payments and activity log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}
		state := svc.State(inv)

		fmt.Printf("Invoice: %s\n", inv.Title)
		fmt.Printf("ID:        %s\n", inv.ID)
		fmt.Printf("Ledger:    %s\n", inv.Ledger)
		if inv.Reference != "" {
			fmt.Printf("Reference: %s\n", inv.Reference)
		}
		if inv.Company != "" {
			fmt.Printf("Company:   %s\n", inv.Company)
		}
		if inv.Category != "" {
			fmt.Printf("Category:  %s\n", inv.Category)
		}
		if inv.ContactID != "" {
			if contact, err := appInstance.ContactRepo.GetByID(ctx, inv.ContactID); err == nil {
				fmt.Printf("Creditor:  %s\n", contact.DisplayName())
			}
		}
		fmt.Printf("Status:    %s (Mahnstufe %d, priority %s)\n", inv.Status, inv.DunningLevel, inv.Priority)
		fmt.Printf("Issued:    %s\n", format.Date(inv.IssueDate))
		fmt.Printf("Due:       %s\n", format.Date(inv.DueDate))
		fmt.Println()

		fmt.Printf("Amount:      %14s\n", format.Money(inv.Amount))
		fmt.Printf("Paid:        %14s\n", format.Money(state.TotalPaid))
		fmt.Printf("Outstanding: %14s\n", format.Money(state.Outstanding))
		switch {
		case state.IsOverdue:
			fmt.Printf("Overdue by %d day(s) (due %s)\n", state.DaysOverdue, format.Date(state.EffectiveDueDate))
		case state.IsDueToday:
			fmt.Println("Due today")
		case state.HasDueDate() && !inv.Status.IsClosed():
			fmt.Printf("Due in %d day(s)\n", state.DaysUntilDue())
		}
		if inv.PaidAt != nil {
			fmt.Printf("Paid on %s (%s)\n", inv.PaidAt.Format("2006-01-02"), format.Money(inv.PaidAmount))
		}

		if inv.HasPlan() {
			fmt.Println()
			fmt.Printf("Installment plan: %s %s since %s, next %s\n",
				format.Money(inv.InstallmentAmount),
				inv.Interval,
				format.Date(inv.FirstInstallmentDate),
				format.Date(inv.InstallmentDueDate),
			)
		}

		if len(inv.Payments) > 0 {
			fmt.Println()
			fmt.Println("Payments:")
			for _, p := range inv.Payments {
				fmt.Printf("  %-8s %s %14s  %s\n", shortID(p.ID), p.Date.Format("2006-01-02"), format.Money(p.Amount), p.Note)
			}
		}

		activities, err := svc.Activities(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("failed to load activities: %w", err)
		}
		if len(activities) > 0 {
			fmt.Println()
			fmt.Println("Activity:")
			for _, a := range activities {
				fmt.Printf("  %s  %-16s %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Type, a.Title)
				if a.Description != "" {
					fmt.Printf("  %16s  %s\n", "", a.Description)
				}
			}
		}

		if inv.Notes != "" {
			fmt.Println()
			fmt.Printf("Notes: %s\n", inv.Notes)
		}
		return nil
	},
}

var invoicesEditCmd = &cobra.Command{
	Use:   "edit [id_or_reference]",
	Short: "Edit an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}

		edit := service.InvoiceEdit{}
		stringFlag := func(name string) *string {
			if !cmd.Flags().Changed(name) {
				return nil
			}
			v, _ := cmd.Flags().GetString(name)
			return &v
		}

		edit.Title = stringFlag("title")
		edit.Reference = stringFlag("ref")
		edit.Company = stringFlag("company")
		edit.Category = stringFlag("category")
		edit.Notes = stringFlag("notes")

		if contact := stringFlag("contact"); contact != nil {
			id, err := resolveContactID(ctx, *contact)
			if err != nil {
				return err
			}
			edit.ContactID = &id
		}
		if due := stringFlag("due"); due != nil {
			if edit.DueDate, err = parseOptionalDate(*due); err != nil {
				return fmt.Errorf("invalid due date: %w", err)
			}
		}
		if issued := stringFlag("issued"); issued != nil {
			if edit.IssueDate, err = parseOptionalDate(*issued); err != nil {
				return fmt.Errorf("invalid issue date: %w", err)
			}
		}
		if p := stringFlag("priority"); p != nil {
			priority := domain.Priority(*p)
			edit.Priority = &priority
		}
		if v := stringFlag("vat"); v != nil {
			vat, err := format.ParseAmount(*v)
			if err != nil {
				return err
			}
			edit.VAT = &vat
		}
		if g := stringFlag("gross"); g != nil {
			gross, err := format.ParseAmount(*g)
			if err != nil {
				return err
			}
			edit.GrossAmount = &gross
		}

		updated, err := svc.Edit(ctx, inv.ID, edit)
		if err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}

		fmt.Printf("✓ Invoice updated: %s\n", updated.Title)
		return nil
	},
}

var invoicesPayCmd = &cobra.Command{
	Use:   "pay [id_or_reference] [amount]",
	Short: "Record a (partial) payment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}

		amount, err := format.ParseAmount(args[1])
		if err != nil {
			return err
		}

		dateStr, _ := cmd.Flags().GetString("date")
		if dateStr == "" {
			dateStr = "today"
		}
		date, err := parseDate(dateStr)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		note, _ := cmd.Flags().GetString("note")

		updated, err := svc.AddPayment(ctx, inv.ID, amount, date, note)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		state := svc.State(updated)
		fmt.Printf("✓ Payment of %s recorded for %s\n", format.Money(amount), updated.Title)
		fmt.Printf("  Outstanding: %s\n", format.Money(state.Outstanding))
		fmt.Printf("  Status: %s\n", updated.Status)
		return nil
	},
}

var invoicesDeletePaymentCmd = &cobra.Command{
	Use:   "delete-payment [id_or_reference] [payment_id]",
	Short: "Remove a payment recorded in error",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}

		paymentID := args[1]
		for _, p := range inv.Payments {
			if strings.HasPrefix(p.ID, paymentID) {
				paymentID = p.ID
				break
			}
		}

		updated, err := svc.DeletePayment(ctx, inv.ID, paymentID)
		if err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}

		fmt.Printf("✓ Payment removed from %s\n", updated.Title)
		fmt.Printf("  Outstanding: %s\n", format.Money(svc.State(updated).Outstanding))
		fmt.Printf("  Status: %s\n", updated.Status)
		return nil
	},
}

var invoicesStatusCmd = &cobra.Command{
	Use:   "status [id_or_reference] [status]",
	Short: "Set the invoice status manually",
	Long: `Set the invoice status manually. Known statuses:
  offen, faellig, gemahnt, in_bearbeitung, in_ratenzahlung, verzug, inkasso, bezahlt, storniert`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}
		note, _ := cmd.Flags().GetString("note")

		updated, err := svc.SetStatus(ctx, inv.ID, domain.InvoiceStatus(args[1]), note)
		if err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}

		fmt.Printf("✓ %s is now %s\n", updated.Title, updated.Status)
		return nil
	},
}

var invoicesDunningCmd = &cobra.Command{
	Use:     "mahnstufe [id_or_reference] [level]",
	Aliases: []string{"dunning"},
	Short:   "Set the dunning level (0-4)",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}

		level, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid level: %w", err)
		}
		note, _ := cmd.Flags().GetString("note")

		updated, err := svc.SetDunningLevel(ctx, inv.ID, level, note)
		if err != nil {
			return fmt.Errorf("failed to set dunning level: %w", err)
		}

		fmt.Printf("✓ Mahnstufe %d set for %s\n", updated.DunningLevel, updated.Title)
		fmt.Printf("  Status: %s, priority %s\n", updated.Status, updated.Priority)
		return nil
	},
}

var invoicesPlanCmd = &cobra.Command{
	Use:   "plan [id_or_reference]",
	Short: "Set up or adjust an installment plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}

		plan := service.PlanInput{}
		rate, _ := cmd.Flags().GetString("rate")
		if plan.InstallmentAmount, err = format.ParseAmount(rate); err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetString("interval")
		plan.Interval = domain.Interval(interval)
		firstStr, _ := cmd.Flags().GetString("first")
		if plan.FirstDueDate, err = parseOptionalDate(firstStr); err != nil {
			return fmt.Errorf("invalid first installment date: %w", err)
		}

		updated, err := svc.SetupPlan(ctx, inv.ID, plan)
		if err != nil {
			return fmt.Errorf("failed to set up plan: %w", err)
		}

		fmt.Printf("✓ Installment plan for %s: %s %s\n", updated.Title, format.Money(updated.InstallmentAmount), updated.Interval)
		fmt.Printf("  Next installment due: %s\n", format.Date(updated.InstallmentDueDate))
		return nil
	},
}

var invoicesCommentCmd = &cobra.Command{
	Use:   "comment [id_or_reference] [text...]",
	Short: "Add an entry to the activity log",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, err := invoices()
		if err != nil {
			return err
		}

		inv, err := resolveInvoice(ctx, svc, args[0])
		if err != nil {
			return err
		}

		typ, _ := cmd.Flags().GetString("type")
		activityType := domain.ActivityType(typ)
		switch activityType {
		case domain.ActivityComment, domain.ActivityEmail, domain.ActivityCall, domain.ActivityFile:
		default:
			return fmt.Errorf("unknown activity type %q (kommentar, email, telefonat, datei)", typ)
		}

		text := strings.Join(args[1:], " ")
		title, _ := cmd.Flags().GetString("title")
		description := ""
		if title == "" {
			title = text
		} else {
			description = text
		}

		if _, err := svc.AddActivity(ctx, inv.ID, activityType, title, description); err != nil {
			return fmt.Errorf("failed to add activity: %w", err)
		}

		fmt.Printf("✓ %s logged for %s\n", activityType, inv.Title)
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesAddCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesEditCmd)
	invoicesCmd.AddCommand(invoicesPayCmd)
	invoicesCmd.AddCommand(invoicesDeletePaymentCmd)
	invoicesCmd.AddCommand(invoicesStatusCmd)
	invoicesCmd.AddCommand(invoicesDunningCmd)
	invoicesCmd.AddCommand(invoicesPlanCmd)
	invoicesCmd.AddCommand(invoicesCommentCmd)

	// List flags
	invoicesListCmd.Flags().Bool("all", false, "Include paid and cancelled invoices")
	invoicesListCmd.Flags().StringSlice("status", nil, "Filter by status (repeatable)")
	invoicesListCmd.Flags().String("category", "", "Filter by category")
	invoicesListCmd.Flags().String("contact", "", "Filter by creditor (ID or name)")
	invoicesListCmd.Flags().String("search", "", "Search title and reference")

	// Add flags
	invoicesAddCmd.Flags().String("amount", "", "Invoice amount (required)")
	invoicesAddCmd.MarkFlagRequired("amount")
	invoicesAddCmd.Flags().String("due", "", "Due date (defaults to today plus invoices.default_due_days)")
	invoicesAddCmd.Flags().String("issued", "", "Issue date")
	invoicesAddCmd.Flags().String("ref", "", "External reference number")
	invoicesAddCmd.Flags().Bool("auto-ref", false, "Generate the next reference number")
	invoicesAddCmd.Flags().String("company", "", "Company within the ledger")
	invoicesAddCmd.Flags().String("category", "", "Category")
	invoicesAddCmd.Flags().String("contact", "", "Creditor (ID or name)")
	invoicesAddCmd.Flags().String("notes", "", "Notes")
	invoicesAddCmd.Flags().String("priority", "", "Priority (niedrig, normal, hoch, kritisch)")
	invoicesAddCmd.Flags().String("vat", "", "VAT amount")
	invoicesAddCmd.Flags().String("gross", "", "Gross amount")
	invoicesAddCmd.Flags().String("rate", "", "Installment amount")
	invoicesAddCmd.Flags().String("interval", "", "Installment interval (monatlich, woechentlich)")
	invoicesAddCmd.Flags().String("first-rate", "", "First installment date")

	// Edit flags
	invoicesEditCmd.Flags().String("title", "", "New title")
	invoicesEditCmd.Flags().String("ref", "", "New reference number")
	invoicesEditCmd.Flags().String("company", "", "New company")
	invoicesEditCmd.Flags().String("category", "", "New category")
	invoicesEditCmd.Flags().String("contact", "", "New creditor (ID or name, empty to clear)")
	invoicesEditCmd.Flags().String("notes", "", "New notes")
	invoicesEditCmd.Flags().String("due", "", "New due date")
	invoicesEditCmd.Flags().String("issued", "", "New issue date")
	invoicesEditCmd.Flags().String("priority", "", "New priority")
	invoicesEditCmd.Flags().String("vat", "", "New VAT amount")
	invoicesEditCmd.Flags().String("gross", "", "New gross amount")

	// Pay flags
	invoicesPayCmd.Flags().String("date", "", "Payment date (defaults to today)")
	invoicesPayCmd.Flags().String("note", "", "Payment note")

	// Status and dunning flags
	invoicesStatusCmd.Flags().String("note", "", "Note for the activity log")
	invoicesDunningCmd.Flags().String("note", "", "Note for the activity log")

	// Plan flags
	invoicesPlanCmd.Flags().String("rate", "", "Installment amount (required)")
	invoicesPlanCmd.MarkFlagRequired("rate")
	invoicesPlanCmd.Flags().String("interval", "monatlich", "Interval (monatlich, woechentlich)")
	invoicesPlanCmd.Flags().String("first", "", "First installment date (required for a new plan)")

	// Comment flags
	invoicesCommentCmd.Flags().String("type", string(domain.ActivityComment), "Entry type (kommentar, email, telefonat, datei)")
	invoicesCommentCmd.Flags().String("title", "", "Title; the text becomes the description")
}
