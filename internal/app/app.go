package app

import (
	"context"
	"fmt"
	"syscall"

	"github.com/andy/rechnungsbuch/internal/config"
	"github.com/andy/rechnungsbuch/internal/crypto"
	"github.com/andy/rechnungsbuch/internal/db"
	"github.com/andy/rechnungsbuch/internal/domain"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/andy/rechnungsbuch/internal/repository"
	"github.com/andy/rechnungsbuch/internal/service"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB

	// Repositories
	ContactRepo    repository.ContactRepository
	InvoiceRepo    repository.InvoiceRepository
	ActivityRepo   repository.ActivityRepository
	ChecklistRepo  repository.ChecklistRepository
	InspectionRepo repository.InspectionRepository

	// Services; invoice services are keyed by ledger
	InvoiceServices   map[string]service.InvoiceService
	InspectionService service.InspectionService
	ReportService     service.ReportService
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config
// 2. Getting encryption key from keyring or environment
// 3. Opening database
// 4. Running migrations
// 5. Creating repositories
// 6. Creating services
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	keyring := crypto.NewKeyring()

	password, err := keyring.GetKey()
	if err != nil {
		// No key exists, prompt user to set one
		fmt.Println("Setting up database encryption for the first time...")
		password, err = promptForPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}

		if err := keyring.SetKey(password); err != nil {
			return nil, fmt.Errorf("failed to store encryption key: %w", err)
		}
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewWithDB(cfg, database), nil
}

// NewWithDB wires repositories and services on an open, migrated database
func NewWithDB(cfg *config.Config, database *db.DB) *App {
	contactRepo := repository.NewContactRepo(database)
	invoiceRepo := repository.NewInvoiceRepo(database)
	activityRepo := repository.NewActivityRepo(database)
	checklistRepo := repository.NewChecklistRepo(database)
	inspectionRepo := repository.NewInspectionRepo(database)

	invoiceServices := make(map[string]service.InvoiceService, len(cfg.Ledgers))
	for _, ledger := range cfg.Ledgers {
		invoiceServices[ledger.Key] = service.NewInvoiceService(ledger.Key, invoiceRepo, activityRepo, contactRepo)
	}

	inspectionService := service.NewInspectionService(checklistRepo, inspectionRepo, service.Thresholds{
		domain.CadenceDaily:   cfg.Inspections.DailyThresholdDays,
		domain.CadenceWeekly:  cfg.Inspections.WeeklyThresholdDays,
		domain.CadenceMonthly: cfg.Inspections.MonthlyThresholdDays,
	})

	reportService := service.NewReportService(invoiceRepo, obligation.StatsOptions{
		DueSoonDays:         cfg.Invoices.DueSoonDays,
		CriticalOverdueDays: cfg.Invoices.CriticalOverdueDays,
	})

	return &App{
		Config:            cfg,
		DB:                database,
		ContactRepo:       contactRepo,
		InvoiceRepo:       invoiceRepo,
		ActivityRepo:      activityRepo,
		ChecklistRepo:     checklistRepo,
		InspectionRepo:    inspectionRepo,
		InvoiceServices:   invoiceServices,
		InspectionService: inspectionService,
		ReportService:     reportService,
	}
}

// Invoices returns the invoice service of a ledger. An empty key selects the
// default ledger.
func (a *App) Invoices(ledgerKey string) (service.InvoiceService, error) {
	ledger, err := a.Config.Ledger(ledgerKey)
	if err != nil {
		return nil, err
	}
	svc, ok := a.InvoiceServices[ledger.Key]
	if !ok {
		return nil, fmt.Errorf("no invoice service for ledger %q", ledger.Key)
	}
	return svc, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// promptForPassword prompts user for a new database password (first run)
// This should be called when keyring has no stored key
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your invoices and inspection records will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Printf("Alternatively set %s before starting.\n", crypto.EnvKey)
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	// Read password securely (no echo)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}
