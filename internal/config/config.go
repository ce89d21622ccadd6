package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	paperBaseURL = "https://paper-api.alpaca.markets"
	liveBaseURL  = "https://api.alpaca.markets"
)

// ErrCredentialsMissing is returned when the key pair for the selected
// mode is absent from the environment. It fires before any client is
// constructed, so no network call is ever attempted without credentials.
var ErrCredentialsMissing = errors.New("missing alpaca credentials")

type Config struct {
	Symbol       string
	ModelPath    string
	Paper        bool
	LookbackDays int
	APIKey       string
	APISecret    string
	BaseURL      string
}

// Mode names the credential pair a run trades with.
func (c Config) Mode() string {
	if c.Paper {
		return "paper"
	}
	return "live"
}

func Load() (Config, error) {
	loadDotEnvIfPresent(".env")
	return parse(os.Args[1:])
}

func parse(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("trader", flag.ContinueOnError)
	fs.StringVar(&cfg.Symbol, "symbol", "", "ticker symbol, e.g. SPY")
	fs.StringVar(&cfg.ModelPath, "model", "", "path to trained model artifact")
	fs.BoolVar(&cfg.Paper, "paper", false, "use paper trading account (omit for live)")
	fs.IntVar(&cfg.LookbackDays, "lookback-days", 365, "calendar days of daily bars to fetch")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	key, secret, err := credentials(cfg.Paper)
	if err != nil {
		return cfg, err
	}
	cfg.APIKey = key
	cfg.APISecret = secret
	cfg.BaseURL = liveBaseURL
	if cfg.Paper {
		cfg.BaseURL = paperBaseURL
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Symbol == "" {
		return fmt.Errorf("--symbol is required")
	}
	if cfg.ModelPath == "" {
		return fmt.Errorf("--model is required")
	}
	if cfg.LookbackDays <= 0 {
		return fmt.Errorf("lookback-days must be > 0")
	}
	return nil
}

// credentials picks the env key pair for the selected mode. Paper and
// live keys live in separate variables; a paper run never reads live keys.
func credentials(paper bool) (string, string, error) {
	keyVar, secretVar := "ALPACA_LIVE_API_KEY_ID", "ALPACA_LIVE_API_SECRET_KEY"
	if paper {
		keyVar, secretVar = "ALPACA_PAPER_API_KEY_ID", "ALPACA_PAPER_API_SECRET_KEY"
	}
	key := os.Getenv(keyVar)
	secret := os.Getenv(secretVar)
	if key == "" || secret == "" {
		return "", "", fmt.Errorf("%w: set %s and %s", ErrCredentialsMissing, keyVar, secretVar)
	}
	return key, secret, nil
}

// loadDotEnvIfPresent reads a .env file when one exists. godotenv never
// overrides variables already set in the real environment.
func loadDotEnvIfPresent(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}
