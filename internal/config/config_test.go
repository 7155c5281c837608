package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.CSVPath)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "127.0.0.1:5001", cfg.ListenAddr)
	assert.Empty(t, cfg.SettingsFolder)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default(filepath.Dir(path))
	cfg.SettingsFolder = "/data/settings"
	cfg.ReportsFolder = "/data/reports"
	cfg.ExcelFilePath = "/data/pdi.xlsx"
	cfg.MailRecipients = []string{"qa@plant.local"}
	cfg.SMTP = SMTPConfig{Host: "mail.plant.local", Port: 25, From: "checker@plant.local"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFilterRecipients(t *testing.T) {
	got := FilterRecipients([]string{" qa@plant.local ", "", "not-an-address", "ops@plant.local"})
	assert.Equal(t, []string{"qa@plant.local", "ops@plant.local"}, got)
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings")
	reports := filepath.Join(dir, "reports")
	workbook := filepath.Join(dir, "pdi.xlsx")

	cfg := &Config{SettingsFolder: settings, ReportsFolder: reports, ExcelFilePath: workbook}
	assert.Len(t, cfg.Missing(), 3)

	require.NoError(t, os.MkdirAll(settings, 0o755))
	require.NoError(t, os.MkdirAll(reports, 0o755))
	require.NoError(t, os.WriteFile(workbook, []byte("x"), 0o644))
	assert.Empty(t, cfg.Missing())
}
