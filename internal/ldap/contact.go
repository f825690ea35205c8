package ldap

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ContactObjectClasses are set on every contact created by AddContact.
var ContactObjectClasses = []string{"top", "person", "organizationalPerson", "contact"}

// ContactOptions controls where AddContact places the new contact.
type ContactOptions struct {
	// Container is the DN the contact is created under.
	Container string
	// DefaultContainer is resolved when Container is empty.
	DefaultContainer ContainerKind `default:"users"`
}

// ContactManager creates contact objects.
type ContactManager struct {
	client   Client
	resolver *WellKnownResolver
}

// NewContactManager creates a manager writing through client.
func NewContactManager(client Client) *ContactManager {
	return &ContactManager{
		client:   client,
		resolver: NewWellKnownResolver(client),
	}
}

// AddContact creates a contact from attrs, which must include cn, and
// returns its DN. attrs is not modified.
func (m *ContactManager) AddContact(ctx context.Context, attrs Attributes, opts *ContactOptions) (string, error) {
	options := ContactOptions{}
	if opts != nil {
		options = *opts
	}
	if err := defaults.Set(&options); err != nil {
		return "", fmt.Errorf("failed to apply contact defaults: %w", err)
	}

	entry, cn, err := personAttributes("add_contact", attrs, m.client.BindDN(), ContactObjectClasses)
	if err != nil {
		return "", err
	}

	container, err := containerOrWellKnown(ctx, m.resolver, options.Container, options.DefaultContainer)
	if err != nil {
		return "", err
	}

	dn := CommonNameDN(cn, container)
	entry.Set("distinguishedName", dn)

	tflog.SubsystemDebug(ctx, "ldap", "Creating contact", map[string]any{
		"dn":        dn,
		"container": container,
	})

	if err := m.client.Add(ctx, dn, entry); err != nil {
		return "", err
	}

	return dn, nil
}

// PersonCategory returns the objectCategory value for person objects in the
// domain rooted at bindDN.
func PersonCategory(bindDN string) string {
	return "CN=Person,CN=Schema,CN=Configuration," + bindDN
}

// personAttributes copies attrs and fills in objectClass, objectCategory
// and name. It fails when attrs has no cn values. A blank cn is passed
// through for the server to reject.
func personAttributes(operation string, attrs Attributes, bindDN string, objectClasses []string) (Attributes, string, error) {
	values := attrs.Values("cn")
	if len(values) == 0 {
		return nil, "", newValidationError(operation, "", ErrMissingCommonName)
	}
	cn := values[0]

	entry := attrs.Clone()
	entry.Set("objectClass", objectClasses...)
	entry.Set("objectCategory", PersonCategory(bindDN))
	if !entry.Has("name") {
		entry.Set("name", cn)
	}

	return entry, cn, nil
}

// containerOrWellKnown returns container, or resolves kind when it is empty.
func containerOrWellKnown(ctx context.Context, resolver *WellKnownResolver, container string, kind ContainerKind) (string, error) {
	if container != "" {
		return container, nil
	}
	return resolver.Resolve(ctx, kind)
}
