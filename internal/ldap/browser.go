package ldap

import (
	"context"
)

// ContainerFilter matches organizational units, containers and builtin
// domains, excluding the System and Program Data containers.
const ContainerFilter = "(&(|(objectClass=organizationalUnit)(objectCategory=Container)(objectClass=builtinDomain))" +
	"(!(|(cn=System)(cn=Program Data))))"

// ObjectFilter matches everything the console shows inside a container.
const ObjectFilter = "(|" + ContainerFilter +
	"(objectCategory=person)" +
	"(objectCategory=group)" +
	"(objectCategory=computer)" +
	"(objectCategory=MSMQ-Custom-Recipient)" +
	"(objectClass=printQueue)" +
	"(objectCategory=Volume))"

// containerAttributes are requested by ListContainers.
var containerAttributes = []string{"name", "distinguishedName"}

// ObjectBrowser lists and reads directory objects the way the console tree does.
type ObjectBrowser struct {
	client Client
}

// NewObjectBrowser creates a browser querying through client.
func NewObjectBrowser(client Client) *ObjectBrowser {
	return &ObjectBrowser{client: client}
}

// ListContainers returns the immediate child containers of parentDN, or of
// the domain root when parentDN is empty.
func (b *ObjectBrowser) ListContainers(ctx context.Context, parentDN string) ([]*Entry, error) {
	if parentDN == "" {
		parentDN = b.client.BindDN()
	}

	return b.client.Search(ctx, &SearchRequest{
		BaseDN:     parentDN,
		Scope:      ScopeSingleLevel,
		Filter:     ContainerFilter,
		Attributes: containerAttributes,
	})
}

// ReadObject returns the single entry at dn with the requested attributes
// (all user attributes when attrs is empty).
func (b *ObjectBrowser) ReadObject(ctx context.Context, dn string, attrs []string) ([]*Entry, error) {
	if dn == "" {
		return nil, newValidationError("read_object", dn, ErrEmptyDN)
	}

	return b.client.Search(ctx, &SearchRequest{
		BaseDN:     dn,
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: attrs,
	})
}

// ListObjects returns the immediate children of containerDN matching ObjectFilter.
func (b *ObjectBrowser) ListObjects(ctx context.Context, containerDN string, attrs []string) ([]*Entry, error) {
	if containerDN == "" {
		return nil, newValidationError("list_objects", containerDN, ErrEmptyDN)
	}

	return b.client.Search(ctx, &SearchRequest{
		BaseDN:     containerDN,
		Scope:      ScopeSingleLevel,
		Filter:     ObjectFilter,
		Attributes: attrs,
	})
}
