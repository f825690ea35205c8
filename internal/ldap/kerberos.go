package ldap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3/gssapi"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

// kerberosCredentials is the resolved principal and credential source for a
// GSSAPI bind. It is derived from a ConnectionConfig without modifying it.
type kerberosCredentials struct {
	principal  string
	realm      string
	password   string
	ccache     string
	keytab     string
	krb5conf   string
	servicePN  string
	credSource string
}

// resolveKerberosCredentials picks a credential source in priority order:
// explicit ccache, default ccache, explicit keytab, default keytab, password.
func resolveKerberosCredentials(cfg *ConnectionConfig) (*kerberosCredentials, error) {
	creds := &kerberosCredentials{
		principal: cfg.Username,
		realm:     cfg.KerberosRealm,
		password:  cfg.Password,
		krb5conf:  cfg.KerberosConfig,
	}

	// user@REALM overrides an empty realm
	if name, realm, ok := strings.Cut(cfg.Username, "@"); ok {
		creds.principal = name
		if creds.realm == "" {
			creds.realm = realm
		}
	}

	if creds.realm == "" {
		return nil, fmt.Errorf("kerberos realm is required (set kerberos_realm or include realm in username)")
	}

	if creds.krb5conf == "" {
		creds.krb5conf = "/etc/krb5.conf"
	}

	if !fileExists(creds.krb5conf) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s", creds.krb5conf)
	}

	spn, err := servicePrincipal(cfg)
	if err != nil {
		return nil, err
	}
	creds.servicePN = spn

	switch {
	case cfg.KerberosCCache != "" && fileExists(cfg.KerberosCCache):
		creds.ccache, creds.credSource = cfg.KerberosCCache, "ccache"
	case fileExists(defaultCCachePath()):
		creds.ccache, creds.credSource = defaultCCachePath(), "default_ccache"
	case creds.principal == "":
		return nil, fmt.Errorf("username (principal) is required for Kerberos authentication without a credential cache")
	case cfg.KerberosKeytab != "" && fileExists(cfg.KerberosKeytab):
		creds.keytab, creds.credSource = cfg.KerberosKeytab, "keytab"
	case fileExists(defaultKeytabPath()):
		creds.keytab, creds.credSource = defaultKeytabPath(), "default_keytab"
	case creds.password != "":
		creds.credSource = "password"
	default:
		return nil, fmt.Errorf("no suitable Kerberos credentials found: provide kerberos_ccache, kerberos_keytab or password")
	}

	return creds, nil
}

func (k *kerberosCredentials) client() (*gssapi.Client, error) {
	switch {
	case k.ccache != "":
		return gssapi.NewClientFromCCache(k.ccache, k.krb5conf, krb5client.DisablePAFXFAST(true))
	case k.keytab != "":
		return gssapi.NewClientWithKeytab(k.principal, k.realm, k.keytab, k.krb5conf, krb5client.DisablePAFXFAST(true))
	default:
		return gssapi.NewClientWithPassword(k.principal, k.realm, k.password, k.krb5conf, krb5client.DisablePAFXFAST(true))
	}
}

// kerberosBind performs a GSSAPI bind on conn.
func kerberosBind(ctx context.Context, conn ldapConn, cfg *ConnectionConfig) error {
	creds, err := resolveKerberosCredentials(cfg)
	if err != nil {
		return fmt.Errorf("kerberos configuration error: %w", err)
	}

	tflog.SubsystemTrace(ctx, "ldap", "Performing GSSAPI bind", map[string]any{
		"principal":         creds.principal,
		"realm":             creds.realm,
		"spn":               creds.servicePN,
		"credential_source": creds.credSource,
	})

	client, err := creds.client()
	if err != nil {
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}
	defer func() {
		_ = client.DeleteSecContext()
	}()

	if err := conn.GSSAPIBind(client, creds.servicePN, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}

	return nil
}

// servicePrincipal returns KerberosSPN, or ldap/<host> from the server URL.
func servicePrincipal(cfg *ConnectionConfig) (string, error) {
	if cfg.KerberosSPN != "" {
		return cfg.KerberosSPN, nil
	}

	host := cfg.Host()
	if host == "" {
		return "", fmt.Errorf("no hostname found in URL: %s", cfg.URL)
	}

	return "ldap/" + host, nil
}

func defaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

func defaultKeytabPath() string {
	if keytab := os.Getenv("KRB5_KTNAME"); keytab != "" {
		return strings.TrimPrefix(keytab, "FILE:")
	}
	return "/etc/krb5.keytab"
}

// fileExists checks if a file exists and is readable.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}
