package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_CONN", "INTEREST_RATE", "LOAN_TERMS", "NEAR_DUE_DAYS", "SMTP_HOST", "OPERATOR_EMAIL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBDriver != "sqlite" || cfg.DBConn != "koperasi.db" {
		t.Errorf("got %+v", cfg)
	}
	p := cfg.Policy()
	if !p.InterestRate.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("InterestRate: got %s", p.InterestRate)
	}
	if !reflect.DeepEqual(p.AllowedTerms, []int{24, 30}) || p.NearDueDays != 3 {
		t.Errorf("policy: got %+v", p)
	}
	if cfg.MailEnabled() {
		t.Error("mail should be disabled without SMTP_HOST")
	}
}

func TestNewConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_CONN", "host=db dbname=coop")
	t.Setenv("INTEREST_RATE", "0.15")
	t.Setenv("LOAN_TERMS", " 7, 14 ,")
	t.Setenv("NEAR_DUE_DAYS", "2")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("OPERATOR_EMAIL", "ops@example.com")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.InterestRate.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("InterestRate: got %s", cfg.InterestRate)
	}
	if !reflect.DeepEqual(cfg.LoanTerms, []int{7, 14}) || cfg.NearDueDays != 2 {
		t.Errorf("got terms %v near-due %d", cfg.LoanTerms, cfg.NearDueDays)
	}
	if !cfg.MailEnabled() {
		t.Error("mail should be enabled")
	}
}

func TestNewConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_DRIVER", "mysql"},
		{"DB_CONN", ""},
		{"INTEREST_RATE", "twenty"},
		{"INTEREST_RATE", "-0.1"},
		{"LOAN_TERMS", ""},
		{"LOAN_TERMS", "24,zero"},
		{"LOAN_TERMS", "24,-1"},
		{"NEAR_DUE_DAYS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := NewConfig(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EXPORT_DIR=/tmp/coop-exports\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EXPORT_DIR", "")
	os.Unsetenv("EXPORT_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportDir != "/tmp/coop-exports" {
		t.Errorf("ExportDir: got %q", cfg.ExportDir)
	}
}

func TestLoadToleratesMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
