package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swcheck/internal/types"
)

// pdiCmd checks the pre-installation workbook
var pdiCmd = &cobra.Command{
	Use:   "pdi",
	Short: "Check the pre-installation workbook",
	Long: `Reads the configured Excel workbook, extracts the HWEL, BTLD and
SWFL cells together with the part number, and compares them against the
reference settings. The workbook is opened read-only.`,
	RunE: runPDI,
}

func runPDI(cmd *cobra.Command, args []string) error {
	store, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := buildService(store)
	if err != nil {
		return err
	}

	v, err := svc.RunPDICheck(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println("PDI check")
	printVerdict(v)
	if v.Overall == types.VerdictNOK {
		exitCode = 1
	}
	return nil
}
