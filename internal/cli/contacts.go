package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:     "contacts",
	Aliases: []string{"kontakte"},
	Short:   "Manage contacts",
	Long:    `List, add, edit, and archive creditors, debtors and other contacts.`,
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		includeArchived, _ := cmd.Flags().GetBool("archived")
		kind, _ := cmd.Flags().GetString("kind")

		contacts, err := appInstance.ContactRepo.List(ctx, includeArchived)
		if err != nil {
			return fmt.Errorf("failed to list contacts: %w", err)
		}

		// Print table header
		fmt.Printf("%-8s %-32s %-9s %-26s %-10s\n", "ID", "Name", "Kind", "Email", "Status")
		fmt.Println(strings.Repeat("-", 90))

		count := 0
		for _, contact := range contacts {
			if kind != "" && string(contact.Kind) != kind {
				continue
			}
			status := "Active"
			if contact.IsArchived {
				status = "Archived"
			}
			fmt.Printf("%-8s %-32s %-9s %-26s %-10s\n",
				shortID(contact.ID),
				format.Truncate(contact.DisplayName(), 32),
				contact.Kind,
				format.Truncate(contact.Email, 26),
				status,
			)
			count++
		}

		fmt.Printf("\nTotal: %d contact(s)\n", count)
		return nil
	},
}

var contactsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new contact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		kind, _ := cmd.Flags().GetString("kind")
		contact := domain.NewContact(strings.Join(args, " "), domain.ContactKind(kind))
		contact.Company, _ = cmd.Flags().GetString("company")
		contact.Email, _ = cmd.Flags().GetString("email")
		contact.Phone, _ = cmd.Flags().GetString("phone")
		contact.Address, _ = cmd.Flags().GetString("address")
		contact.IBAN, _ = cmd.Flags().GetString("iban")
		contact.Notes, _ = cmd.Flags().GetString("notes")

		if err := contact.Validate(); err != nil {
			return fmt.Errorf("invalid contact: %w", err)
		}

		if err := appInstance.ContactRepo.Create(ctx, contact); err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		fmt.Printf("✓ Contact created: %s (ID: %s)\n", contact.DisplayName(), contact.ID)
		fmt.Printf("  Kind: %s\n", contact.Kind)

		return nil
	},
}

var contactsEditCmd = &cobra.Command{
	Use:   "edit [id_or_name]",
	Short: "Edit an existing contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveContactID(ctx, args[0])
		if err != nil {
			return err
		}
		contact, err := appInstance.ContactRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get contact: %w", err)
		}

		// Update fields if flags provided
		fields := map[string]*string{
			"name":    &contact.Name,
			"company": &contact.Company,
			"email":   &contact.Email,
			"phone":   &contact.Phone,
			"address": &contact.Address,
			"iban":    &contact.IBAN,
			"notes":   &contact.Notes,
		}
		for flag, field := range fields {
			if cmd.Flags().Changed(flag) {
				*field, _ = cmd.Flags().GetString(flag)
			}
		}
		if cmd.Flags().Changed("kind") {
			kind, _ := cmd.Flags().GetString("kind")
			contact.Kind = domain.ContactKind(kind)
		}

		if err := contact.Validate(); err != nil {
			return fmt.Errorf("invalid contact: %w", err)
		}

		if err := appInstance.ContactRepo.Update(ctx, contact); err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}

		fmt.Printf("✓ Contact updated: %s\n", contact.DisplayName())
		return nil
	},
}

var contactsArchiveCmd = &cobra.Command{
	Use:   "archive [id_or_name]",
	Short: "Archive a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := resolveContactID(ctx, args[0])
		if err != nil {
			return err
		}

		if err := appInstance.ContactRepo.Archive(ctx, id); err != nil {
			return fmt.Errorf("failed to archive contact: %w", err)
		}

		fmt.Printf("✓ Contact archived (ID: %s)\n", id)
		return nil
	},
}

var contactsUnarchiveCmd = &cobra.Command{
	Use:   "unarchive [id]",
	Short: "Unarchive a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := appInstance.ContactRepo.Unarchive(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to unarchive contact: %w", err)
		}

		fmt.Printf("✓ Contact unarchived (ID: %s)\n", args[0])
		return nil
	},
}

func init() {
	contactsCmd.AddCommand(contactsListCmd)
	contactsCmd.AddCommand(contactsAddCmd)
	contactsCmd.AddCommand(contactsEditCmd)
	contactsCmd.AddCommand(contactsArchiveCmd)
	contactsCmd.AddCommand(contactsUnarchiveCmd)

	// List flags
	contactsListCmd.Flags().Bool("archived", false, "Include archived contacts")
	contactsListCmd.Flags().String("kind", "", "Filter by kind (kreditor, debitor, sonstige)")

	// Add flags
	contactsAddCmd.Flags().String("kind", string(domain.ContactCreditor), "Kind (kreditor, debitor, sonstige)")
	contactsAddCmd.Flags().String("company", "", "Company name")
	contactsAddCmd.Flags().String("email", "", "Email address")
	contactsAddCmd.Flags().String("phone", "", "Phone number")
	contactsAddCmd.Flags().String("address", "", "Postal address")
	contactsAddCmd.Flags().String("iban", "", "IBAN for transfers")
	contactsAddCmd.Flags().String("notes", "", "Notes about the contact")

	// Edit flags
	contactsEditCmd.Flags().String("name", "", "New name")
	contactsEditCmd.Flags().String("kind", "", "New kind")
	contactsEditCmd.Flags().String("company", "", "New company")
	contactsEditCmd.Flags().String("email", "", "New email")
	contactsEditCmd.Flags().String("phone", "", "New phone number")
	contactsEditCmd.Flags().String("address", "", "New address")
	contactsEditCmd.Flags().String("iban", "", "New IBAN")
	contactsEditCmd.Flags().String("notes", "", "New notes")
}
