package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/andy/rechnungsbuch/internal/service"
)

// parseDate parses a calendar date. Accepts YYYY-MM-DD, DD.MM.YYYY, 'today'
// and 'yesterday'.
func parseDate(s string) (time.Time, error) {
	return format.ParseDate(s, time.Now())
}

// parseOptionalDate returns nil for an empty string
func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// resolveInvoice finds an invoice of the service's ledger by id or reference
func resolveInvoice(ctx context.Context, svc service.InvoiceService, idOrRef string) (*domain.Invoice, error) {
	invoice, err := svc.Get(ctx, idOrRef)
	if err == nil {
		return invoice, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	invoice, err = svc.GetByReference(ctx, idOrRef)
	if err == nil {
		return invoice, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// Fall back to the short ids printed by list
	all, err := svc.List(ctx, repository.InvoiceFilter{IncludeClosed: true})
	if err != nil {
		return nil, err
	}
	var match *domain.Invoice
	for _, inv := range all {
		if strings.HasPrefix(inv.ID, idOrRef) {
			if match != nil {
				return nil, fmt.Errorf("id prefix '%s' is ambiguous", idOrRef)
			}
			match = inv
		}
	}
	if match == nil {
		return nil, fmt.Errorf("invoice '%s' not found", idOrRef)
	}
	return match, nil
}

// resolveContactID resolves a contact by id or name
func resolveContactID(ctx context.Context, idOrName string) (string, error) {
	if idOrName == "" {
		return "", nil
	}

	contact, err := appInstance.ContactRepo.GetByID(ctx, idOrName)
	if err == nil {
		return contact.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	contact, err = appInstance.ContactRepo.GetByName(ctx, idOrName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("contact named '%s' not found", idOrName)
		}
		return "", err
	}
	return contact.ID, nil
}

func parseCadence(s string) (domain.Cadence, error) {
	c := domain.Cadence(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case "daily":
		c = domain.CadenceDaily
	case "weekly":
		c = domain.CadenceWeekly
	case "monthly":
		c = domain.CadenceMonthly
	}
	if !c.IsValid() {
		return "", fmt.Errorf("unknown cadence %q (taeglich, woechentlich, monatlich)", s)
	}
	return c, nil
}
