package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPaperCreds(t *testing.T) {
	t.Helper()
	t.Setenv("ALPACA_PAPER_API_KEY_ID", "paper-key")
	t.Setenv("ALPACA_PAPER_API_SECRET_KEY", "paper-secret")
}

func setLiveCreds(t *testing.T) {
	t.Helper()
	t.Setenv("ALPACA_LIVE_API_KEY_ID", "live-key")
	t.Setenv("ALPACA_LIVE_API_SECRET_KEY", "live-secret")
}

func TestParsePaperMode(t *testing.T) {
	setPaperCreds(t)

	cfg, err := parse([]string{"--symbol", "SPY", "--model", "model.json", "--paper"})
	require.NoError(t, err)

	assert.Equal(t, "SPY", cfg.Symbol)
	assert.Equal(t, "model.json", cfg.ModelPath)
	assert.True(t, cfg.Paper)
	assert.Equal(t, "paper", cfg.Mode())
	assert.Equal(t, "paper-key", cfg.APIKey)
	assert.Equal(t, "paper-secret", cfg.APISecret)
	assert.Equal(t, paperBaseURL, cfg.BaseURL)
	assert.Equal(t, 365, cfg.LookbackDays)
}

func TestParseDefaultsToLive(t *testing.T) {
	setLiveCreds(t)

	cfg, err := parse([]string{"--symbol", "SPY", "--model", "model.json"})
	require.NoError(t, err)

	assert.False(t, cfg.Paper)
	assert.Equal(t, "live", cfg.Mode())
	assert.Equal(t, "live-key", cfg.APIKey)
	assert.Equal(t, liveBaseURL, cfg.BaseURL)
}

func TestParseRequiresSymbolAndModel(t *testing.T) {
	setPaperCreds(t)

	_, err := parse([]string{"--model", "model.json", "--paper"})
	assert.Error(t, err)

	_, err = parse([]string{"--symbol", "SPY", "--paper"})
	assert.Error(t, err)
}

func TestParseMissingPaperCredentials(t *testing.T) {
	// live keys present must not satisfy a paper run
	setLiveCreds(t)
	t.Setenv("ALPACA_PAPER_API_KEY_ID", "")
	t.Setenv("ALPACA_PAPER_API_SECRET_KEY", "")

	_, err := parse([]string{"--symbol", "SPY", "--model", "model.json", "--paper"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
	assert.Contains(t, err.Error(), "ALPACA_PAPER_API_KEY_ID")
}

func TestParseMissingLiveCredentials(t *testing.T) {
	setPaperCreds(t)
	t.Setenv("ALPACA_LIVE_API_KEY_ID", "")
	t.Setenv("ALPACA_LIVE_API_SECRET_KEY", "")

	_, err := parse([]string{"--symbol", "SPY", "--model", "model.json"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestParseRejectsNonPositiveLookback(t *testing.T) {
	setPaperCreds(t)

	_, err := parse([]string{"--symbol", "SPY", "--model", "model.json", "--paper", "--lookback-days", "0"})
	assert.Error(t, err)
}

func TestLoadDotEnvSetsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "ALPACA_PAPER_API_KEY_ID=abc123\nALPACA_PAPER_API_SECRET_KEY=shh\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ALPACA_PAPER_API_KEY_ID", "")
	require.NoError(t, os.Unsetenv("ALPACA_PAPER_API_KEY_ID"))
	t.Setenv("ALPACA_PAPER_API_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("ALPACA_PAPER_API_SECRET_KEY"))

	loadDotEnvIfPresent(path)

	assert.Equal(t, "abc123", os.Getenv("ALPACA_PAPER_API_KEY_ID"))
	assert.Equal(t, "shh", os.Getenv("ALPACA_PAPER_API_SECRET_KEY"))
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ALPACA_PAPER_API_KEY_ID=from_file\n"), 0o600))
	t.Setenv("ALPACA_PAPER_API_KEY_ID", "from_env")

	loadDotEnvIfPresent(path)

	assert.Equal(t, "from_env", os.Getenv("ALPACA_PAPER_API_KEY_ID"))
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	loadDotEnvIfPresent(filepath.Join(t.TempDir(), ".env"))
}
