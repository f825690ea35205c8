package ldap

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ldapConn is the subset of *ldap.Conn a session uses.
type ldapConn interface {
	Bind(username, password string) error
	GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzid string) error
	SearchAsync(ctx context.Context, searchRequest *ldap.SearchRequest, bufferSize int) ldap.Response
	Add(addRequest *ldap.AddRequest) error
	Del(delRequest *ldap.DelRequest) error
	Modify(modifyRequest *ldap.ModifyRequest) error
	Close() error
}

var _ ldapConn = (*ldap.Conn)(nil)

// dialFunc opens an unauthenticated connection to the configured server.
type dialFunc func(ctx context.Context, cfg *ConnectionConfig) (ldapConn, error)

// dialDirectory connects to cfg.URL, negotiating TLS for ldaps:// or when
// StartTLS is set.
func dialDirectory(ctx context.Context, cfg *ConnectionConfig) (ldapConn, error) {
	tlsConfig, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	opts := []ldap.DialOpt{
		ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout}),
	}

	if strings.HasPrefix(strings.ToLower(cfg.URL), "ldaps://") {
		opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := ldap.DialURL(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}

	if cfg.StartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("StartTLS failed: %w", err)
		}
	}

	conn.SetTimeout(cfg.Timeout)

	return conn, nil
}

// withSession runs fn on a freshly dialed and bound connection. The
// connection is closed on every exit path, including bind failure.
func (c *client) withSession(ctx context.Context, operation string, fields map[string]any, fn func(conn ldapConn) error) error {
	return LogOperation(ctx, "ldap", operation, fields, func() error {
		LogConnectionEvent(ctx, "connection_attempt", map[string]any{
			"url":         c.config.URL,
			"auth_method": c.config.GetAuthMethod().String(),
		})

		conn, err := c.dial(ctx, c.config)
		if err != nil {
			LogConnectionEvent(ctx, "connection_failed", map[string]any{
				"url":   c.config.URL,
				"error": err.Error(),
			})
			return newConnectionError(operation, c.config.URL, err)
		}
		defer func() {
			if cerr := conn.Close(); cerr != nil {
				LogConnectionEvent(ctx, "close_failed", map[string]any{"error": cerr.Error()})
			}
			LogConnectionEvent(ctx, "connection_closed", nil)
		}()

		if err := c.authenticate(ctx, conn); err != nil {
			LogConnectionEvent(ctx, "authentication_failed", map[string]any{
				"auth_method": c.config.GetAuthMethod().String(),
				"error":       err.Error(),
			})
			ldapErr := NewLDAPError("bind", err)
			if ldapErr.Category == ErrorCategoryUnknown {
				ldapErr.Category = ErrorCategoryAuthentication
			}
			return ldapErr
		}

		LogConnectionEvent(ctx, "authentication_success", map[string]any{
			"auth_method": c.config.GetAuthMethod().String(),
		})

		return fn(conn)
	})
}

// authenticate binds conn using the configured method.
func (c *client) authenticate(ctx context.Context, conn ldapConn) error {
	switch method := c.config.GetAuthMethod(); method {
	case AuthMethodSimpleBind:
		return conn.Bind(c.config.Username, c.config.Password)
	case AuthMethodKerberos:
		return kerberosBind(ctx, conn, c.config)
	default:
		return fmt.Errorf("unsupported authentication method: %s", method.String())
	}
}
