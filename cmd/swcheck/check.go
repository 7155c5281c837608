package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swcheck/internal/types"
)

var (
	okColor  = color.New(color.FgGreen, color.Bold)
	nokColor = color.New(color.FgRed, color.Bold)
	dimColor = color.New(color.Faint)
)

// checkCmd runs a manual check for one DMC
var checkCmd = &cobra.Command{
	Use:   "check [dmc]",
	Short: "Check a unit's software configuration by its DMC",
	Long: `Locates the newest test report for the given DMC under the reports
folder, extracts the HWEL, BTLD and SWFL values, and compares them against
the reference settings for the unit's part number.

The verdict is appended to the audit log before the command returns.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	store, err := loadConfig()
	if err != nil {
		return err
	}
	// The workbook is only needed for PDI checks.
	var missing []string
	snap := store.Snapshot()
	for _, m := range snap.Missing() {
		if m != "Excel File" {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("not configured: %v (run 'swcheck config')", missing)
	}

	svc, err := buildService(store)
	if err != nil {
		return err
	}

	v, err := svc.RunManualCheck(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printVerdict(v)
	if v.Overall == types.VerdictNOK {
		exitCode = 1
	}
	return nil
}

func printVerdict(v types.CheckVerdict) {
	fmt.Printf("SNR:    %s\n", v.SNR)
	if v.Identifier != "" {
		fmt.Printf("DMC:    %s\n", v.Identifier)
	}
	if v.ReportFile != "" {
		dimColor.Printf("Report: %s\n", v.ReportFile)
	}
	dimColor.Printf("Ref:    %s\n", v.ReferenceFile)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tOBSERVED\tEXPECTED\tRESULT")
	for _, fv := range v.Fields {
		result := string(fv.Reason)
		if fv.Match {
			result = okColor.Sprint("match")
		} else {
			result = nokColor.Sprint(result)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", fv.Field, fv.Observed, fv.Expected, result)
	}
	w.Flush()

	fmt.Println()
	if v.Overall == types.VerdictOK {
		okColor.Println("Overall: OK")
	} else {
		nokColor.Println("Overall: NOK")
	}
}
