package ldap

import (
	"context"
	"fmt"
	"sort"

	"github.com/creasty/defaults"
	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// searchBufferSize is the channel depth for streamed search results.
const searchBufferSize = 64

// client implements the Client interface. It holds no connection between calls.
type client struct {
	config *ConnectionConfig
	dial   dialFunc
}

// NewClient validates config and returns a Client bound to a private copy of it.
// No connection is opened until the first operation.
func NewClient(ctx context.Context, config *ConnectionConfig) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("connection configuration cannot be nil")
	}

	cfg := *config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tflog.SubsystemDebug(ctx, "ldap", "Created LDAP client", map[string]any{
		"url":         cfg.URL,
		"bind_dn":     cfg.BindDN,
		"auth_method": cfg.GetAuthMethod().String(),
		"start_tls":   cfg.StartTLS,
		"timeout":     cfg.Timeout.String(),
	})

	return &client{config: &cfg, dial: dialDirectory}, nil
}

// BindDN returns the configured domain root.
func (c *client) BindDN() string {
	return c.config.BindDN
}

// Search streams results from the server and returns them in arrival order.
// Any error, including one raised after some entries arrived, discards them.
func (c *client) Search(ctx context.Context, req *SearchRequest) ([]*Entry, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}

	search := *req
	if err := defaults.Set(&search); err != nil {
		return nil, fmt.Errorf("failed to apply search defaults: %w", err)
	}

	fields := map[string]any{
		"base_dn":    search.BaseDN,
		"scope":      search.Scope.String(),
		"filter":     search.Filter,
		"attributes": search.Attributes,
	}

	var entries []*Entry

	err := c.withSession(ctx, "search", fields, func(conn ldapConn) error {
		searchReq := ldap.NewSearchRequest(
			search.BaseDN,
			int(search.Scope),
			ldap.NeverDerefAliases,
			search.SizeLimit,
			int(search.TimeLimit.Seconds()),
			false,
			search.Filter,
			search.Attributes,
			nil,
		)

		response := conn.SearchAsync(ctx, searchReq, searchBufferSize)

		var collected []*Entry
		for response.Next() {
			if entry := response.Entry(); entry != nil {
				collected = append(collected, NewEntry(entry))
			}
		}

		if err := response.Err(); err != nil {
			LogLDAPError(ctx, "ldap", "search", err, map[string]any{
				"base_dn":           search.BaseDN,
				"entries_discarded": len(collected),
			})
			return wrapDNError("search", search.BaseDN, err)
		}

		entries = collected
		return nil
	})
	if err != nil {
		return nil, err
	}

	tflog.SubsystemTrace(ctx, "ldap", "Search returned entries", map[string]any{
		"base_dn":     search.BaseDN,
		"entry_count": len(entries),
	})

	return entries, nil
}

// Add creates dn with attrs. Attribute order is sorted for stable requests
// and attributes without values are left out.
func (c *client) Add(ctx context.Context, dn string, attrs Attributes) error {
	if dn == "" {
		return newValidationError("add", dn, ErrEmptyDN)
	}

	names := make([]string, 0, len(attrs))
	for name, values := range attrs {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return c.withSession(ctx, "add", map[string]any{"dn": dn, "attributes": names}, func(conn ldapConn) error {
		addReq := ldap.NewAddRequest(dn, nil)
		for _, name := range names {
			addReq.Attribute(name, attrs[name])
		}

		if err := conn.Add(addReq); err != nil {
			LogLDAPError(ctx, "ldap", "add", err, map[string]any{"dn": dn})
			return wrapDNError("add", dn, err)
		}
		return nil
	})
}

// Delete removes dn.
func (c *client) Delete(ctx context.Context, dn string) error {
	if dn == "" {
		return newValidationError("delete", dn, ErrEmptyDN)
	}

	return c.withSession(ctx, "delete", map[string]any{"dn": dn}, func(conn ldapConn) error {
		if err := conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
			LogLDAPError(ctx, "ldap", "delete", err, map[string]any{"dn": dn})
			return wrapDNError("delete", dn, err)
		}
		return nil
	})
}

// Modify applies change to dn.
func (c *client) Modify(ctx context.Context, dn string, change Change) error {
	if dn == "" {
		return newValidationError("modify", dn, ErrEmptyDN)
	}

	modReq := ldap.NewModifyRequest(dn, nil)
	switch change.Operation {
	case ChangeAdd:
		modReq.Add(change.Attribute, change.Values)
	case ChangeDelete:
		modReq.Delete(change.Attribute, change.Values)
	case ChangeReplace:
		modReq.Replace(change.Attribute, change.Values)
	default:
		return newValidationError("modify", dn, fmt.Errorf("unsupported change operation %d", change.Operation))
	}

	fields := map[string]any{
		"dn":          dn,
		"change":      change.Operation.String(),
		"attribute":   change.Attribute,
		"value_count": len(change.Values),
	}

	return c.withSession(ctx, "modify", fields, func(conn ldapConn) error {
		if err := conn.Modify(modReq); err != nil {
			LogLDAPError(ctx, "ldap", "modify", err, map[string]any{"dn": dn, "attribute": change.Attribute})
			return wrapDNError("modify", dn, err)
		}
		return nil
	})
}
