package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/repository"
)

// mock implementations

type mockInvoiceRepo struct {
	invoices map[string]*domain.Invoice
	updates  int
	failNext error
}

func newMockInvoiceRepo(invoices ...*domain.Invoice) *mockInvoiceRepo {
	m := &mockInvoiceRepo{invoices: make(map[string]*domain.Invoice)}
	for _, inv := range invoices {
		if inv.Version == 0 {
			inv.Version = 1
		}
		m.invoices[inv.ID] = inv.Clone()
	}
	return m
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if invoice.Version == 0 {
		invoice.Version = 1
	}
	m.invoices[invoice.ID] = invoice.Clone()
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return inv.Clone(), nil
	}
	return nil, fmt.Errorf("invoice %s: %w", id, repository.ErrNotFound)
}

func (m *mockInvoiceRepo) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.Reference == reference {
			return inv.Clone(), nil
		}
	}
	return nil, fmt.Errorf("invoice %s: %w", reference, repository.ErrNotFound)
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error) {
	out := make([]*domain.Invoice, 0)
	for _, inv := range m.invoices {
		if filter.Ledger != "" && inv.Ledger != filter.Ledger {
			continue
		}
		if !filter.IncludeClosed && inv.Status.IsClosed() {
			continue
		}
		out = append(out, inv.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	stored, ok := m.invoices[invoice.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != invoice.Version {
		return repository.ErrConcurrentModification
	}
	invoice.Version++
	invoice.UpdatedAt = time.Now()
	m.invoices[invoice.ID] = invoice.Clone()
	m.updates++
	return nil
}

func (m *mockInvoiceRepo) AddPayment(ctx context.Context, invoice *domain.Invoice, payment *domain.Payment) error {
	return m.Update(ctx, invoice)
}

func (m *mockInvoiceRepo) DeletePayment(ctx context.Context, invoice *domain.Invoice, paymentID string) error {
	return m.Update(ctx, invoice)
}

func (m *mockInvoiceRepo) ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error) {
	if inv, ok := m.invoices[invoiceID]; ok {
		return inv.Clone().Payments, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockInvoiceRepo) NextReference(ctx context.Context, prefix string, year int) (string, error) {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, len(m.invoices)+1), nil
}

type mockActivityRepo struct {
	activities []*domain.Activity
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}
	m.activities = append(m.activities, activity)
	return nil
}

func (m *mockActivityRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.Activity, error) {
	out := make([]*domain.Activity, 0)
	for i := len(m.activities) - 1; i >= 0; i-- {
		if m.activities[i].InvoiceID == invoiceID {
			out = append(out, m.activities[i])
		}
	}
	return out, nil
}

func (m *mockActivityRepo) ofType(typ domain.ActivityType) []*domain.Activity {
	out := make([]*domain.Activity, 0)
	for _, a := range m.activities {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

type mockContactRepo struct {
	contacts map[string]*domain.Contact
}

func (m *mockContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	m.contacts[contact.ID] = contact
	return nil
}
func (m *mockContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if c, ok := m.contacts[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}
func (m *mockContactRepo) GetByName(ctx context.Context, name string) (*domain.Contact, error) {
	for _, c := range m.contacts {
		if c.Name == name || c.Company == name {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (m *mockContactRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Contact, error) {
	return nil, nil
}
func (m *mockContactRepo) Update(ctx context.Context, contact *domain.Contact) error { return nil }
func (m *mockContactRepo) Archive(ctx context.Context, id string) error              { return nil }
func (m *mockContactRepo) Unarchive(ctx context.Context, id string) error            { return nil }

type mockChecklistRepo struct {
	items map[string]*domain.ChecklistItem
}

func (m *mockChecklistRepo) Create(ctx context.Context, item *domain.ChecklistItem) error {
	m.items[item.ID] = item
	return nil
}
func (m *mockChecklistRepo) GetByID(ctx context.Context, id string) (*domain.ChecklistItem, error) {
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, repository.ErrNotFound
}
func (m *mockChecklistRepo) List(ctx context.Context, cadence *domain.Cadence, includeInactive bool) ([]*domain.ChecklistItem, error) {
	out := make([]*domain.ChecklistItem, 0)
	for _, item := range m.items {
		if cadence != nil && item.Cadence != *cadence {
			continue
		}
		if !includeInactive && !item.IsActive {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}
func (m *mockChecklistRepo) Update(ctx context.Context, item *domain.ChecklistItem) error {
	m.items[item.ID] = item
	return nil
}
func (m *mockChecklistRepo) Deactivate(ctx context.Context, id string) error {
	item, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	item.IsActive = false
	return nil
}

type mockInspectionRepo struct {
	runs map[string]*domain.InspectionRun
}

func (m *mockInspectionRepo) Create(ctx context.Context, run *domain.InspectionRun) error {
	m.runs[run.ID] = copyRun(run)
	return nil
}
func (m *mockInspectionRepo) GetByID(ctx context.Context, id string) (*domain.InspectionRun, error) {
	if run, ok := m.runs[id]; ok {
		return copyRun(run), nil
	}
	return nil, repository.ErrNotFound
}
func (m *mockInspectionRepo) ListByCadence(ctx context.Context, cadence domain.Cadence, limit int) ([]*domain.InspectionRun, error) {
	out := make([]*domain.InspectionRun, 0)
	for _, run := range m.runs {
		if run.Cadence == cadence {
			out = append(out, copyRun(run))
		}
	}
	return out, nil
}
func (m *mockInspectionRepo) GetActive(ctx context.Context, cadence domain.Cadence) (*domain.InspectionRun, error) {
	for _, run := range m.runs {
		if run.Cadence == cadence && run.Status == domain.RunInProgress {
			return copyRun(run), nil
		}
	}
	return nil, nil
}
func (m *mockInspectionRepo) LastCompleted(ctx context.Context, cadence domain.Cadence) (*time.Time, error) {
	var last *time.Time
	for _, run := range m.runs {
		if run.Cadence != cadence || run.Status != domain.RunCompleted || run.CompletedAt == nil {
			continue
		}
		if last == nil || run.CompletedAt.After(*last) {
			t := *run.CompletedAt
			last = &t
		}
	}
	return last, nil
}
func (m *mockInspectionRepo) UpdateRun(ctx context.Context, run *domain.InspectionRun) error {
	stored, ok := m.runs[run.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = run.Status
	stored.CompletedAt = run.CompletedAt
	stored.Notes = run.Notes
	return nil
}
func (m *mockInspectionRepo) UpdateItem(ctx context.Context, item *domain.RunItem) error {
	stored, ok := m.runs[item.RunID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, it := range stored.Items {
		if it.ID == item.ID {
			c := *item
			stored.Items[i] = &c
			return nil
		}
	}
	return repository.ErrNotFound
}

func copyRun(run *domain.InspectionRun) *domain.InspectionRun {
	c := *run
	c.Items = make([]*domain.RunItem, len(run.Items))
	for i, item := range run.Items {
		ic := *item
		c.Items[i] = &ic
	}
	return &c
}
