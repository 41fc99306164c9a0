// Package odoorpc provides the transport adapters behind the invoicing
// Gateway port: one speaking Odoo's classic XML-RPC endpoints, one the
// JSON-RPC web session API. Both authenticate lazily on first use; an
// eager caller just invokes Login right after construction.
package odoorpc

import (
	"fmt"
	"strings"

	"github.com/alkivi-sas/go-odoo-client/internal/domain"
)

// Config identifies the remote instance and the credentials to open a
// session with. Protocol selects the adapter family and the scheme:
// jsonrpc / xmlrpc over http, jsonrpc+ssl / xmlrpc+ssl over https.
type Config struct {
	URL      string // host name, without scheme
	Port     int
	Protocol string
	DB       string
	User     string
	Password string
}

// BaseURL renders the scheme://host:port prefix for the configured
// protocol.
func (c Config) BaseURL() string {
	scheme := "http"
	if strings.HasSuffix(c.Protocol, "+ssl") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.URL, c.Port)
}

// transportErr tags a wire-level failure with the domain sentinel while
// keeping the cause in the chain.
func transportErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrTransport, err)
}
