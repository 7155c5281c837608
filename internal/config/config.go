// Package config holds the tool configuration: source paths, audit log
// location, and alerting settings. It is persisted as JSON in the user data
// directory so the settings dialog of the UI can round-trip it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the single source of truth for paths and alerting.
type Config struct {
	// SettingsFolder holds the reference settings XML documents.
	SettingsFolder string `json:"settingsFolder"`
	// ReportsFolder is the root under which unit report folders are
	// created, one folder per DMC.
	ReportsFolder string `json:"reportsFolder"`
	// ExcelFilePath is the PDI workbook checked by pdi checks.
	ExcelFilePath string `json:"excelFilePath"`
	// CSVPath is the audit log file, or a directory to place results.csv in.
	CSVPath string `json:"csvPath"`
	// MailRecipients receive NOK alert mails. Empty disables mailing.
	MailRecipients []string `json:"mailRecipients"`

	// SMTP transport for NOK alerts.
	SMTP SMTPConfig `json:"smtp,omitempty"`

	// ListenAddr is the serving-layer bind address.
	ListenAddr string `json:"listenAddr,omitempty"`

	// UI preferences, persisted for the settings dialog only.
	Language string `json:"language,omitempty"`
	Theme    string `json:"theme,omitempty"`
}

// SMTPConfig configures the alert mail transport.
type SMTPConfig struct {
	Host           string `json:"host,omitempty"`
	Port           int    `json:"port,omitempty"`
	From           string `json:"from,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// Default returns the configuration used before the operator has set any
// paths. The audit log defaults into the user data directory.
func Default(userDataDir string) *Config {
	return &Config{
		CSVPath:    userDataDir,
		Language:   "en",
		Theme:      "light",
		ListenAddr: "127.0.0.1:5001",
	}
}

// Load reads the configuration file, filling unset fields from defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.MailRecipients = FilterRecipients(cfg.MailRecipients)
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// FilterRecipients drops blank entries and anything that is not an address.
func FilterRecipients(recipients []string) []string {
	var out []string
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r != "" && strings.Contains(r, "@") {
			out = append(out, r)
		}
	}
	return out
}

// Missing lists the configured paths that do not exist yet; an empty result
// means the tool is ready for checks of every kind.
func (c *Config) Missing() []string {
	var missing []string
	if !isDir(c.SettingsFolder) {
		missing = append(missing, "Settings Folder")
	}
	if !isDir(c.ReportsFolder) {
		missing = append(missing, "Reports Folder")
	}
	if !isFile(c.ExcelFilePath) {
		missing = append(missing, "Excel File")
	}
	return missing
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
