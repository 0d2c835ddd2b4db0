package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/andy/rechnungsbuch/internal/format"
	"github.com/andy/rechnungsbuch/internal/obligation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show outstanding totals and due lists",
	Long: `Aggregate open invoices into totals by status, dunning level, category and
company, plus the due today, due soon, overdue and critical lists.

Without --ledger all ledgers are aggregated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		ledger := ""
		if ledgerFlag != "" {
			l, err := appInstance.Config.Ledger(ledgerFlag)
			if err != nil {
				return err
			}
			ledger = l.Key
		}

		stats, err := appInstance.ReportService.Stats(ctx, ledger)
		if err != nil {
			return fmt.Errorf("failed to aggregate invoices: %w", err)
		}

		report := buildStatsReport(ledger, stats)

		outFormat, _ := cmd.Flags().GetString("format")
		switch outFormat {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(report)
		case "table", "":
			printStatsReport(report)
			return nil
		default:
			return fmt.Errorf("unknown format %q (table, yaml)", outFormat)
		}
	},
}

type statsReport struct {
	Ledger         string                 `yaml:"ledger"`
	Count          int                    `yaml:"count"`
	Outstanding    string                 `yaml:"outstanding"`
	ByStatus       map[string]bucketEntry `yaml:"by_status"`
	ByDunningLevel map[string]bucketEntry `yaml:"by_dunning_level"`
	ByCategory     map[string]bucketEntry `yaml:"by_category"`
	ByCompany      map[string]bucketEntry `yaml:"by_company"`
	DueToday       []dueEntry             `yaml:"due_today"`
	DueSoon        []dueEntry             `yaml:"due_soon"`
	Overdue        []dueEntry             `yaml:"overdue"`
	Critical       []dueEntry             `yaml:"critical"`
}

type bucketEntry struct {
	Count       int    `yaml:"count"`
	Outstanding string `yaml:"outstanding"`
}

type dueEntry struct {
	ID          string `yaml:"id"`
	Ledger      string `yaml:"ledger"`
	Reference   string `yaml:"reference,omitempty"`
	Title       string `yaml:"title"`
	Status      string `yaml:"status"`
	DueDate     string `yaml:"due_date,omitempty"`
	DaysOverdue int    `yaml:"days_overdue"`
	Outstanding string `yaml:"outstanding"`
}

func buildStatsReport(ledger string, stats *obligation.Stats) statsReport {
	if ledger == "" {
		ledger = "all"
	}

	buckets := func(in map[string]obligation.Bucket) map[string]bucketEntry {
		out := make(map[string]bucketEntry, len(in))
		for k, b := range in {
			out[k] = bucketEntry{Count: b.Count, Outstanding: b.Outstanding.StringFixed(2)}
		}
		return out
	}
	entries := func(in []obligation.Entry) []dueEntry {
		out := make([]dueEntry, 0, len(in))
		for _, e := range in {
			d := dueEntry{
				ID:          e.Invoice.ID,
				Ledger:      e.Invoice.Ledger,
				Reference:   e.Invoice.Reference,
				Title:       e.Invoice.Title,
				Status:      string(e.Invoice.Status),
				DaysOverdue: e.State.DaysOverdue,
				Outstanding: e.State.Outstanding.StringFixed(2),
			}
			if e.State.EffectiveDueDate != nil {
				d.DueDate = e.State.EffectiveDueDate.Format("2006-01-02")
			}
			out = append(out, d)
		}
		return out
	}

	byStatus := make(map[string]obligation.Bucket, len(stats.ByStatus))
	for s, b := range stats.ByStatus {
		byStatus[string(s)] = b
	}
	byLevel := make(map[string]obligation.Bucket, len(stats.ByDunningLevel))
	for l, b := range stats.ByDunningLevel {
		byLevel[strconv.Itoa(l)] = b
	}
	byCategory := make(map[string]obligation.Bucket, len(stats.ByCategory))
	for c, b := range stats.ByCategory {
		if c == "" {
			c = "(none)"
		}
		byCategory[c] = b
	}

	return statsReport{
		Ledger:         ledger,
		Count:          stats.Total.Count,
		Outstanding:    stats.Total.Outstanding.StringFixed(2),
		ByStatus:       buckets(byStatus),
		ByDunningLevel: buckets(byLevel),
		ByCategory:     buckets(byCategory),
		ByCompany:      buckets(stats.ByCompany),
		DueToday:       entries(stats.DueToday),
		DueSoon:        entries(stats.DueSoon),
		Overdue:        entries(stats.Overdue),
		Critical:       entries(stats.Critical),
	}
}

func printStatsReport(r statsReport) {
	fmt.Printf("Ledger: %s\n", r.Ledger)
	fmt.Printf("Open invoices: %d, outstanding %s\n", r.Count, formatAmountString(r.Outstanding))

	printBuckets := func(title string, buckets map[string]bucketEntry) {
		if len(buckets) == 0 {
			return
		}
		fmt.Println()
		fmt.Println(title)
		keys := make([]string, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b := buckets[k]
			fmt.Printf("  %-20s %4d %16s\n", format.Truncate(k, 20), b.Count, formatAmountString(b.Outstanding))
		}
	}
	printBuckets("By status:", r.ByStatus)
	printBuckets("By Mahnstufe:", r.ByDunningLevel)
	printBuckets("By category:", r.ByCategory)
	printBuckets("By company:", r.ByCompany)

	printList := func(title string, list []dueEntry) {
		if len(list) == 0 {
			return
		}
		fmt.Println()
		fmt.Printf("%s (%d)\n", title, len(list))
		fmt.Println(strings.Repeat("-", 80))
		for _, e := range list {
			due := e.DueDate
			if due == "" {
				due = "-"
			}
			fmt.Printf("  %-10s %-30s %-10s %5d %16s\n",
				format.Truncate(e.Ledger, 10), format.Truncate(e.Title, 30), due, e.DaysOverdue, formatAmountString(e.Outstanding))
		}
	}
	printList("Due today", r.DueToday)
	printList("Due soon", r.DueSoon)
	printList("Overdue", r.Overdue)
	printList("Critical", r.Critical)
}

func formatAmountString(s string) string {
	d, err := format.ParseAmount(s)
	if err != nil {
		return s
	}
	return format.Money(d)
}

func init() {
	statsCmd.Flags().String("format", "table", "Output format (table, yaml)")
}
