package ldap

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// ContainerKind names a well-known Active Directory container.
type ContainerKind string

const (
	ContainerSystem            ContainerKind = "system"
	ContainerComputers         ContainerKind = "computers"
	ContainerDomainControllers ContainerKind = "dcs"
	ContainerUsers             ContainerKind = "users"
)

// Well-known object GUIDs as they appear in the domain's wellKnownObjects values.
const (
	GUIDSystemContainer            = "AB1D30F3768811D1ADED00C04FD8D5CD"
	GUIDComputersContainer         = "AA312825768811D1ADED00C04FD8D5CD"
	GUIDDomainControllersContainer = "A361B2FFFFD211D1AA4B00C04FD7D83A"
	GUIDUsersContainer             = "A9D1CA15768811D1ADED00C04FD8D5CD"
)

var wellKnownGUIDs = map[ContainerKind]string{
	ContainerSystem:            GUIDSystemContainer,
	ContainerComputers:         GUIDComputersContainer,
	ContainerDomainControllers: GUIDDomainControllersContainer,
	ContainerUsers:             GUIDUsersContainer,
}

// ContainerKinds lists every supported kind.
func ContainerKinds() []ContainerKind {
	return []ContainerKind{
		ContainerSystem,
		ContainerComputers,
		ContainerDomainControllers,
		ContainerUsers,
	}
}

// GUID returns the well-known object GUID for k.
func (k ContainerKind) GUID() (string, bool) {
	guid, ok := wellKnownGUIDs[k]
	return guid, ok
}

// ParseContainerKind accepts a kind name in any case.
func ParseContainerKind(s string) (ContainerKind, error) {
	kind := ContainerKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kind.GUID(); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownContainerKind, s)
	}
	return kind, nil
}

// WellKnownResolver finds well-known containers through the domain object's
// wellKnownObjects attribute.
type WellKnownResolver struct {
	client Client
}

// NewWellKnownResolver creates a resolver querying through client.
func NewWellKnownResolver(client Client) *WellKnownResolver {
	return &WellKnownResolver{client: client}
}

// Resolve returns the DN of the container of the given kind.
func (r *WellKnownResolver) Resolve(ctx context.Context, kind ContainerKind) (string, error) {
	guid, ok := kind.GUID()
	if !ok {
		return "", newValidationError("resolve_well_known_container", "", fmt.Errorf("%w: %q", ErrUnknownContainerKind, string(kind)))
	}

	baseDN := r.client.BindDN()
	entries, err := r.client.Search(ctx, &SearchRequest{
		BaseDN:     baseDN,
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=domain)",
		Attributes: []string{"wellKnownObjects"},
	})
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		for _, value := range entry.GetAttributeValues("wellKnownObjects") {
			if dn, ok := matchWellKnownObject(value, guid); ok {
				tflog.SubsystemTrace(ctx, "ldap", "Resolved well-known container", map[string]any{
					"kind": string(kind),
					"dn":   dn,
				})
				return dn, nil
			}
		}
	}

	return "", &LDAPError{
		Operation: "resolve_well_known_container",
		Category:  ErrorCategoryNotFound,
		Message:   fmt.Sprintf("no wellKnownObjects value for %s (%s)", kind, guid),
		DN:        baseDN,
		Cause:     ErrContainerNotFound,
	}
}

// matchWellKnownObject parses a B:32:<GUID>:<DN> value. The third
// colon-separated segment is the GUID and everything after the third colon
// is the DN, which may itself contain colons.
func matchWellKnownObject(value, guid string) (string, bool) {
	parts := strings.SplitN(value, ":", 4)
	if len(parts) != 4 || parts[2] != guid {
		return "", false
	}
	return parts[3], true
}
