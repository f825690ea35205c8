package ldap

import (
	"context"
)

// Directory bundles the primitives and the console-level operations built
// on them behind a single handle. It is safe for concurrent use.
type Directory struct {
	client   Client
	resolver *WellKnownResolver
	browser  *ObjectBrowser
	contacts *ContactManager
	users    *UserManager
}

// NewDirectory validates config and returns a Directory. No connection is
// opened until the first operation.
func NewDirectory(ctx context.Context, config *ConnectionConfig) (*Directory, error) {
	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewDirectoryWithClient(client), nil
}

// NewDirectoryWithClient builds a Directory on an existing Client.
func NewDirectoryWithClient(client Client) *Directory {
	return &Directory{
		client:   client,
		resolver: NewWellKnownResolver(client),
		browser:  NewObjectBrowser(client),
		contacts: NewContactManager(client),
		users:    NewUserManager(client),
	}
}

// Client returns the underlying primitives.
func (d *Directory) Client() Client { return d.client }

// BindDN returns the configured domain root.
func (d *Directory) BindDN() string { return d.client.BindDN() }

func (d *Directory) Search(ctx context.Context, req *SearchRequest) ([]*Entry, error) {
	return d.client.Search(ctx, req)
}

func (d *Directory) Add(ctx context.Context, dn string, attrs Attributes) error {
	return d.client.Add(ctx, dn, attrs)
}

func (d *Directory) Delete(ctx context.Context, dn string) error {
	return d.client.Delete(ctx, dn)
}

func (d *Directory) Modify(ctx context.Context, dn string, change Change) error {
	return d.client.Modify(ctx, dn, change)
}

func (d *Directory) ResolveWellKnownContainer(ctx context.Context, kind ContainerKind) (string, error) {
	return d.resolver.Resolve(ctx, kind)
}

func (d *Directory) ListContainers(ctx context.Context, parentDN string) ([]*Entry, error) {
	return d.browser.ListContainers(ctx, parentDN)
}

func (d *Directory) ReadObject(ctx context.Context, dn string, attrs []string) ([]*Entry, error) {
	return d.browser.ReadObject(ctx, dn, attrs)
}

func (d *Directory) ListObjects(ctx context.Context, containerDN string, attrs []string) ([]*Entry, error) {
	return d.browser.ListObjects(ctx, containerDN, attrs)
}

func (d *Directory) AddContact(ctx context.Context, attrs Attributes, opts *ContactOptions) (string, error) {
	return d.contacts.AddContact(ctx, attrs, opts)
}

func (d *Directory) AddUser(ctx context.Context, attrs Attributes, password, confirm string, opts *UserOptions) (string, error) {
	return d.users.AddUser(ctx, attrs, password, confirm, opts)
}

func (d *Directory) SetPassword(ctx context.Context, dn, password string) error {
	return d.users.SetPassword(ctx, dn, password)
}
