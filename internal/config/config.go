package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Dan9191/coop-ledger/internal/loan"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBDriver string
	DBConn   string
	LogLevel string

	InterestRate decimal.Decimal
	LoanTerms    []int
	NearDueDays  int

	ExportDir       string
	OverdueSchedule string

	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SenderEmail   string
	OperatorEmail string
}

// Load reads a .env file if present and then the environment
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return NewConfig()
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBConn:          getEnv("DB_CONN", "koperasi.db"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		ExportDir:       getEnv("EXPORT_DIR", "exports"),
		OverdueSchedule: getEnv("OVERDUE_SCHEDULE", "0 7 * * *"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", ""),
		OperatorEmail:   getEnv("OPERATOR_EMAIL", ""),
	}

	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}

	rate, err := decimal.NewFromString(getEnv("INTEREST_RATE", "0.20"))
	if err != nil || rate.IsNegative() {
		return nil, fmt.Errorf("INTEREST_RATE must be a non-negative decimal")
	}
	cfg.InterestRate = rate

	terms, err := parseTerms(getEnv("LOAN_TERMS", "24,30"))
	if err != nil {
		return nil, err
	}
	cfg.LoanTerms = terms

	nearDue, err := strconv.Atoi(getEnv("NEAR_DUE_DAYS", "3"))
	if err != nil || nearDue < 0 {
		return nil, fmt.Errorf("NEAR_DUE_DAYS must be a non-negative integer")
	}
	cfg.NearDueDays = nearDue

	return cfg, nil
}

// Policy returns the lending rules described by the configuration
func (c *Config) Policy() loan.Policy {
	return loan.Policy{
		InterestRate: c.InterestRate,
		AllowedTerms: c.LoanTerms,
		NearDueDays:  c.NearDueDays,
	}
}

// MailEnabled reports whether overdue digests can be mailed
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.OperatorEmail != ""
}

func parseTerms(raw string) ([]int, error) {
	var terms []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("LOAN_TERMS must be positive integers, got %q", part)
		}
		terms = append(terms, n)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("LOAN_TERMS is required")
	}
	return terms, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
