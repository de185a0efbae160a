// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	RPCURL              string
	SignerKey           string
	ContractAddress     string
	DatabaseURL         string
	Port                int
	ConfirmationTimeout time.Duration
	ReceiptPollInterval time.Duration
	RequestTimeout      time.Duration
	RegisterGasBuffer   uint64
	VoteGasPercent      uint64
	LogLevel            string
	LogFormat           string
}

// LoadEnv reads .env if present. It reports whether a file was loaded.
func LoadEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// FromEnv builds the configuration from environment variables, then lets
// flags in fs (if any) override them.
func FromEnv(fs *flag.FlagSet, args []string) (*Config, error) {
	var errs []error

	cfg := &Config{
		RPCURL:          getenv("ETH_RPC_URL", "http://127.0.0.1:8545"),
		SignerKey:       firstEnv("SIGNER_PRIVATE_KEY", "METAMASK_ACCOUNT_PRIVATE_KEY"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = dbConnString()
	}

	cfg.Port = parse(&errs, "PORT", 3000, strconv.Atoi)
	cfg.ConfirmationTimeout = parse(&errs, "CONFIRMATION_TIMEOUT", 2*time.Minute, time.ParseDuration)
	cfg.ReceiptPollInterval = parse(&errs, "RECEIPT_POLL_INTERVAL", time.Second, time.ParseDuration)
	cfg.RequestTimeout = parse(&errs, "REQUEST_TIMEOUT", 30*time.Second, time.ParseDuration)
	cfg.RegisterGasBuffer = parse(&errs, "REGISTER_GAS_BUFFER", uint64(3000), parseUint)
	cfg.VoteGasPercent = parse(&errs, "VOTE_GAS_PERCENT", uint64(120), parseUint)

	if fs != nil {
		fs.StringVar(&cfg.RPCURL, "rpc", cfg.RPCURL, "Ethereum JSON-RPC endpoint")
		fs.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "Postgres connection string")
		fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listening port")
		if err := fs.Parse(args); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	errs := c.ledgerErrors()
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL or POSTGRES_* settings are required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// ValidateLedger checks only the settings needed to submit transactions, for
// jobs that never touch the database.
func (c *Config) ValidateLedger() error {
	return errors.Join(c.ledgerErrors()...)
}

func (c *Config) ledgerErrors() []error {
	var errs []error
	if c.SignerKey == "" {
		errs = append(errs, errors.New("SIGNER_PRIVATE_KEY is required"))
	}
	if !common.IsHexAddress(c.ContractAddress) {
		errs = append(errs, fmt.Errorf("CONTRACT_ADDRESS %q is not a valid address", c.ContractAddress))
	} else if common.HexToAddress(c.ContractAddress) == (common.Address{}) {
		errs = append(errs, errors.New("CONTRACT_ADDRESS must not be the zero address"))
	}
	if c.VoteGasPercent < 100 {
		errs = append(errs, fmt.Errorf("VOTE_GAS_PERCENT %d must be at least 100", c.VoteGasPercent))
	}
	if c.ConfirmationTimeout <= 0 {
		errs = append(errs, errors.New("CONFIRMATION_TIMEOUT must be positive"))
	}
	return errs
}

func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func dbConnString() string {
	dbName, user, password, host, port := dbConfig()
	if host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
}

func dbConfig() (dbName string, user string, password string, host string, port string) {
	dbName = os.Getenv("POSTGRES_DB")
	user = os.Getenv("POSTGRES_USER")
	password = os.Getenv("POSTGRES_PASSWORD")
	host = os.Getenv("POSTGRES_HOST")
	port = getenv("POSTGRES_PORT", "5432")
	return
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parse[T any](errs *[]error, key string, fallback T, fn func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := fn(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return v
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
