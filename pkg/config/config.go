package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is one resolved connection profile for a remote Odoo instance.
type Config struct {
	Endpoint string // profile name the values came from
	Protocol string // jsonrpc, jsonrpc+ssl, xmlrpc or xmlrpc+ssl
	Port     int
	URL      string // host name, without scheme
	DB       string
	User     string
	Password string
}

// DefaultPort is used when neither the environment nor the profile set
// one. 8069 is the stock Odoo listen port.
const DefaultPort = 8069

// Load resolves the connection profile. Environment variables
// (ODOO_PROTOCOL, ODOO_PORT, ODOO_URL, ODOO_DB, ODOO_USER,
// ODOO_PASSWORD) win over the config file; the file is INI-style with a
// [default] section naming the active endpoint and one section per
// endpoint:
//
//	[default]
//	endpoint = production
//
//	[production]
//	protocol = jsonrpc
//	port     = 8069
//	url      = odoo.example.com
//	db       = production
//	user     = admin
//	password = secret
//
// configFile, when non-empty, is read instead of the usual locations
// (~/.odoo.cfg, then /etc/odoo.cfg).
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("ini")

	for _, path := range candidatePaths(configFile) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		break
	}

	v.SetEnvPrefix("odoo")
	v.AutomaticEnv()

	endpoint := v.GetString("endpoint")
	if endpoint == "" {
		endpoint = v.GetString("default.endpoint")
	}

	cfg := &Config{
		Endpoint: endpoint,
		Protocol: getString(v, endpoint, "protocol", "jsonrpc"),
		Port:     getInt(v, endpoint, "port", DefaultPort),
		URL:      getString(v, endpoint, "url", ""),
		DB:       getString(v, endpoint, "db", ""),
		User:     getString(v, endpoint, "user", ""),
		Password: getString(v, endpoint, "password", ""),
	}

	if missing := cfg.missingKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("incomplete configuration for endpoint %q: missing %s",
			endpoint, strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c *Config) missingKeys() []string {
	var missing []string
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if c.DB == "" {
		missing = append(missing, "db")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	return missing
}

func candidatePaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".odoo.cfg"))
	}
	return append(paths, "/etc/odoo.cfg")
}

// getString resolves key as ODOO_<KEY> from the environment first, then
// from the endpoint section of the file.
func getString(v *viper.Viper, endpoint, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	if endpoint != "" {
		if s := v.GetString(endpoint + "." + key); s != "" {
			return s
		}
	}
	return def
}

func getInt(v *viper.Viper, endpoint, key string, def int) int {
	if n := v.GetInt(key); n != 0 {
		return n
	}
	if endpoint != "" {
		if n := v.GetInt(endpoint + "." + key); n != 0 {
			return n
		}
	}
	return def
}
