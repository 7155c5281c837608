package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swcheck/internal/config"
)

var (
	flagSettingsFolder string
	flagReportsFolder  string
	flagExcelFile      string
	flagCSVPath        string
	flagRecipients     string
	flagSMTPHost       string
	flagSMTPPort       int
	flagSMTPFrom       string
)

// configCmd shows or updates the configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the configuration",
	Long: `Without flags, prints the current configuration and lists anything
still missing. With flags, updates the given fields and saves.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&flagSettingsFolder, "settings-folder", "", "Folder holding reference settings XML files")
	configCmd.Flags().StringVar(&flagReportsFolder, "reports-folder", "", "Root folder of unit report folders")
	configCmd.Flags().StringVar(&flagExcelFile, "excel-file", "", "PDI workbook path")
	configCmd.Flags().StringVar(&flagCSVPath, "csv-path", "", "Audit log file or folder")
	configCmd.Flags().StringVar(&flagRecipients, "recipients", "", "Comma-separated NOK alert recipients")
	configCmd.Flags().StringVar(&flagSMTPHost, "smtp-host", "", "SMTP server host")
	configCmd.Flags().IntVar(&flagSMTPPort, "smtp-port", 0, "SMTP server port")
	configCmd.Flags().StringVar(&flagSMTPFrom, "smtp-from", "", "Alert sender address")
}

func runConfig(cmd *cobra.Command, args []string) error {
	store, err := loadConfig()
	if err != nil {
		return err
	}
	path := store.Path()
	cfg := store.Snapshot()

	changed := false
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
			changed = true
		}
	}
	set(&cfg.SettingsFolder, flagSettingsFolder)
	set(&cfg.ReportsFolder, flagReportsFolder)
	set(&cfg.ExcelFilePath, flagExcelFile)
	set(&cfg.CSVPath, flagCSVPath)
	set(&cfg.SMTP.Host, flagSMTPHost)
	set(&cfg.SMTP.From, flagSMTPFrom)
	if flagSMTPPort != 0 {
		cfg.SMTP.Port = flagSMTPPort
		changed = true
	}
	if flagRecipients != "" {
		cfg.MailRecipients = config.FilterRecipients(strings.Split(flagRecipients, ","))
		changed = true
	}

	if changed {
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Println("Configuration saved to", path)
	}

	fmt.Printf("Config file:     %s\n", path)
	fmt.Printf("Settings folder: %s\n", cfg.SettingsFolder)
	fmt.Printf("Reports folder:  %s\n", cfg.ReportsFolder)
	fmt.Printf("Excel file:      %s\n", cfg.ExcelFilePath)
	fmt.Printf("Audit log:       %s\n", cfg.CSVPath)
	fmt.Printf("Recipients:      %s\n", strings.Join(cfg.MailRecipients, ", "))
	if cfg.SMTP.Host != "" {
		fmt.Printf("SMTP:            %s:%d (from %s)\n", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	}

	if missing := cfg.Missing(); len(missing) > 0 {
		nokColor.Printf("Missing: %s\n", strings.Join(missing, ", "))
	} else {
		okColor.Println("Ready.")
	}
	return nil
}
