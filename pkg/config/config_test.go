package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkivi-sas/go-odoo-client/pkg/config"
)

const sampleConfig = `[default]
endpoint = production

[production]
protocol = xmlrpc+ssl
port     = 443
url      = odoo.example.com
db       = prod
user     = admin
password = secret

[staging]
url  = staging.example.com
db   = staging
user = tester
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "odoo.cfg")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv pins every ODOO_* variable the loader consults to empty, so
// the host environment cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ODOO_ENDPOINT", "ODOO_PROTOCOL", "ODOO_PORT",
		"ODOO_URL", "ODOO_DB", "ODOO_USER", "ODOO_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Endpoint)
	assert.Equal(t, "xmlrpc+ssl", cfg.Protocol)
	assert.Equal(t, 443, cfg.Port)
	assert.Equal(t, "odoo.example.com", cfg.URL)
	assert.Equal(t, "prod", cfg.DB)
	assert.Equal(t, "admin", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)
	t.Setenv("ODOO_USER", "robot")
	t.Setenv("ODOO_PORT", "8080")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "robot", cfg.User)
	assert.Equal(t, 8080, cfg.Port)
	// Untouched keys still come from the file.
	assert.Equal(t, "odoo.example.com", cfg.URL)
}

func TestLoadEndpointFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleConfig)
	t.Setenv("ODOO_ENDPOINT", "staging")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Endpoint)
	assert.Equal(t, "staging.example.com", cfg.URL)
	assert.Equal(t, "tester", cfg.User)
	// Keys the staging section omits fall back to defaults.
	assert.Equal(t, "jsonrpc", cfg.Protocol)
	assert.Equal(t, config.DefaultPort, cfg.Port)
}

func TestLoadEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("ODOO_URL", "odoo.example.com")
	t.Setenv("ODOO_DB", "prod")
	t.Setenv("ODOO_USER", "admin")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.cfg"))
	require.NoError(t, err)

	assert.Equal(t, "jsonrpc", cfg.Protocol)
	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, "odoo.example.com", cfg.URL)
}

func TestLoadReportsMissingKeys(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.cfg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
	assert.Contains(t, err.Error(), "db")
	assert.Contains(t, err.Error(), "user")
}
