package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"swcheck/internal/types"
)

var (
	historyFrom string
	historyTo   string
)

// historyCmd lists past checks from the audit log
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past checks from the audit log, newest first",
	RunE:  runHistory,
}

// statsCmd summarizes the audit log
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize check results from the audit log",
	RunE:  runStats,
}

func init() {
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "Start date (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "End date (YYYY-MM-DD)")
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildService(store)
	if err != nil {
		return err
	}

	from, err := parseDate(historyFrom)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseDate(historyTo)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	records, err := svc.History(from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No checks recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tSOURCE\tDMC\tSNR\tRESULT")
	for _, rec := range records {
		result := okColor.Sprint("OK")
		if rec.Overall == types.VerdictNOK {
			result = nokColor.Sprint("NOK")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Source, rec.Identifier, rec.SNR, result)
	}
	return w.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildService(store)
	if err != nil {
		return err
	}

	stats, err := svc.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Total checks: %d\n", stats.Total)
	okColor.Printf("  OK:  %d\n", stats.OK)
	nokColor.Printf("  NOK: %d\n", stats.NOK)
	if !stats.LastCheck.IsZero() {
		fmt.Printf("Last check:   %s\n", stats.LastCheck.Format("2006-01-02 15:04:05"))
	}
	if len(stats.Mismatches) > 0 {
		fmt.Println("Mismatches by field:")
		for _, field := range types.Fields() {
			if n := stats.Mismatches[field]; n > 0 {
				fmt.Printf("  %s: %d\n", field, n)
			}
		}
	}
	return nil
}
