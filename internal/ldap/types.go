package ldap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
)

// ConnectionConfig holds everything needed to open a directory session.
// A Client copies the config on construction and never mutates it afterwards.
type ConnectionConfig struct {
	// Connection settings
	URL     string        // ldap:// or ldaps:// URL of the directory server
	BindDN  string        // Domain root; default search base and well-known container anchor
	Timeout time.Duration `default:"30s"` // Dial and per-request timeout

	// Authentication settings
	Username       string // Username for simple bind (DN, UPN, or SAM format)
	Password       string // Password for simple bind
	KerberosRealm  string // Kerberos realm; enables GSSAPI authentication
	KerberosKeytab string // Path to Kerberos keytab file
	KerberosConfig string `default:"/etc/krb5.conf"` // Path to krb5.conf
	KerberosCCache string // Path to Kerberos credential cache
	KerberosSPN    string // Service principal override (default ldap/<host>)

	// TLS settings
	StartTLS      bool   // Upgrade ldap:// connections with StartTLS
	SkipTLSVerify bool   // Skip server certificate verification (not recommended)
	TLSCACertFile string // Path to PEM CA bundle used to verify the server
}

// DefaultConfig returns a configuration with defaults applied and no server set.
func DefaultConfig() *ConnectionConfig {
	cfg := &ConnectionConfig{}
	defaults.MustSet(cfg)
	return cfg
}

// NewConnectionConfig returns a validated simple-bind configuration.
func NewConnectionConfig(serverURL, bindDN, username, password string) (*ConnectionConfig, error) {
	cfg := DefaultConfig()
	cfg.URL = serverURL
	cfg.BindDN = bindDN
	cfg.Username = username
	cfg.Password = password

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first problem that would prevent a session from opening.
func (c *ConnectionConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("LDAP URL is required")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid LDAP URL %q: %w", c.URL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ldap", "ldaps":
	default:
		return fmt.Errorf("invalid LDAP URL %q: scheme must be ldap or ldaps", c.URL)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("invalid LDAP URL %q: missing host", c.URL)
	}

	if c.BindDN == "" {
		return fmt.Errorf("bind DN is required")
	}

	if _, err := ldap.ParseDN(c.BindDN); err != nil {
		return fmt.Errorf("invalid bind DN %q: %w", c.BindDN, err)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.StartTLS && strings.EqualFold(u.Scheme, "ldaps") {
		return fmt.Errorf("StartTLS cannot be combined with an ldaps:// URL")
	}

	return nil
}

// Host returns the server host name from URL.
func (c *ConnectionConfig) Host() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// tlsConfig builds the TLS configuration used for ldaps:// and StartTLS.
func (c *ConnectionConfig) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.Host(),
		InsecureSkipVerify: c.SkipTLSVerify, //nolint:gosec // opt-in via configuration
	}

	if c.TLSCACertFile != "" {
		pem, err := os.ReadFile(c.TLSCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", c.TLSCACertFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// GetAuthMethod determines the authentication method from the configuration.
func (c *ConnectionConfig) GetAuthMethod() AuthMethod {
	// Kerberos authentication takes precedence
	if c.KerberosRealm != "" {
		return AuthMethodKerberos
	}

	return AuthMethodSimpleBind
}

// AuthMethod defines authentication method types.
type AuthMethod int

const (
	AuthMethodSimpleBind AuthMethod = iota // Username/password authentication
	AuthMethodKerberos                     // GSSAPI/Kerberos authentication
)

// String returns string representation of authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	default:
		return "unknown"
	}
}

// Client is the set of directory primitives. Each call opens its own
// authenticated session and closes it before returning.
type Client interface {
	// Search returns every entry matched by req, or an error and no entries.
	Search(ctx context.Context, req *SearchRequest) ([]*Entry, error)

	// Add creates the entry dn with the given attributes.
	Add(ctx context.Context, dn string, attrs Attributes) error

	// Delete removes the entry dn.
	Delete(ctx context.Context, dn string) error

	// Modify applies a single attribute change to dn.
	Modify(ctx context.Context, dn string, change Change) error

	// BindDN returns the configured domain root.
	BindDN() string
}

// SearchRequest encapsulates LDAP search parameters.
type SearchRequest struct {
	BaseDN     string
	Scope      SearchScope
	Filter     string `default:"(objectClass=*)"`
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration
}

// SearchScope defines LDAP search scope.
type SearchScope int

const (
	ScopeBaseObject SearchScope = iota
	ScopeSingleLevel
	ScopeWholeSubtree
)

// String returns the short LDAP URL form of the scope.
func (s SearchScope) String() string {
	switch s {
	case ScopeBaseObject:
		return "base"
	case ScopeSingleLevel:
		return "one"
	case ScopeWholeSubtree:
		return "sub"
	default:
		return fmt.Sprintf("SearchScope(%d)", int(s))
	}
}

// ParseScope accepts base, one/onelevel, and sub/subtree (case-insensitive).
func ParseScope(s string) (SearchScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base":
		return ScopeBaseObject, nil
	case "one", "onelevel":
		return ScopeSingleLevel, nil
	case "sub", "subtree":
		return ScopeWholeSubtree, nil
	default:
		return 0, fmt.Errorf("invalid search scope %q: must be base, one or sub", s)
	}
}

// ChangeOperation is the kind of a modify change.
type ChangeOperation int

const (
	ChangeAdd ChangeOperation = iota
	ChangeDelete
	ChangeReplace
)

func (o ChangeOperation) String() string {
	switch o {
	case ChangeAdd:
		return "add"
	case ChangeDelete:
		return "delete"
	case ChangeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change is one modification applied to a single attribute.
type Change struct {
	Operation ChangeOperation
	Attribute string
	Values    []string
}

// ReplaceChange replaces every value of attribute with values.
func ReplaceChange(attribute string, values ...string) Change {
	return Change{Operation: ChangeReplace, Attribute: attribute, Values: values}
}

// DeleteChange removes values from attribute, or the whole attribute when values is empty.
func DeleteChange(attribute string, values ...string) Change {
	return Change{Operation: ChangeDelete, Attribute: attribute, Values: values}
}

// AddChange adds values to attribute.
func AddChange(attribute string, values ...string) Change {
	return Change{Operation: ChangeAdd, Attribute: attribute, Values: values}
}

// Attributes maps attribute names to their values. Lookups are
// case-insensitive, matching LDAP attribute type semantics.
type Attributes map[string][]string

func (a Attributes) key(name string) (string, bool) {
	if _, ok := a[name]; ok {
		return name, true
	}
	for k := range a {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// Has reports whether name is present with at least one non-empty value.
func (a Attributes) Has(name string) bool {
	return a.Get(name) != ""
}

// Get returns the first non-empty value of name.
func (a Attributes) Get(name string) string {
	for _, v := range a.Values(name) {
		if v != "" {
			return v
		}
	}
	return ""
}

// Values returns all values of name.
func (a Attributes) Values(name string) []string {
	if k, ok := a.key(name); ok {
		return a[k]
	}
	return nil
}

// Set replaces name (under any casing) with values.
func (a Attributes) Set(name string, values ...string) {
	if k, ok := a.key(name); ok {
		delete(a, k)
	}
	a[name] = values
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}
