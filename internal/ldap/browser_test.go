package ldap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFilters(t *testing.T) {
	assert.Equal(t,
		"(&(|(objectClass=organizationalUnit)(objectCategory=Container)(objectClass=builtinDomain))(!(|(cn=System)(cn=Program Data))))",
		ContainerFilter)
	assert.Equal(t,
		"(|(&(|(objectClass=organizationalUnit)(objectCategory=Container)(objectClass=builtinDomain))(!(|(cn=System)(cn=Program Data))))"+
			"(objectCategory=person)(objectCategory=group)(objectCategory=computer)"+
			"(objectCategory=MSMQ-Custom-Recipient)(objectClass=printQueue)(objectCategory=Volume))",
		ObjectFilter)
}

func TestObjectBrowser_ListContainers(t *testing.T) {
	ctx := context.Background()
	children := []*Entry{{DN: "OU=Staff," + testBindDN, Attributes: Attributes{"name": {"Staff"}}}}

	tests := map[string]struct {
		parent   string
		wantBase string
	}{
		"explicit parent":        {parent: "OU=Corp," + testBindDN, wantBase: "OU=Corp," + testBindDN},
		"empty parent uses root": {parent: "", wantBase: testBindDN},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			client := &MockClient{}
			client.On("Search", ctx, &SearchRequest{
				BaseDN:     tc.wantBase,
				Scope:      ScopeSingleLevel,
				Filter:     ContainerFilter,
				Attributes: []string{"name", "distinguishedName"},
			}).Return(children, nil).Once()

			entries, err := NewObjectBrowser(client).ListContainers(ctx, tc.parent)

			require.NoError(t, err)
			assert.Equal(t, children, entries)
			client.AssertExpectations(t)
		})
	}
}

func TestObjectBrowser_ReadObject(t *testing.T) {
	ctx := context.Background()
	dn := "CN=Jane,CN=Users," + testBindDN

	client := &MockClient{}
	client.On("Search", ctx, &SearchRequest{
		BaseDN:     dn,
		Scope:      ScopeBaseObject,
		Filter:     "(objectClass=*)",
		Attributes: []string{"cn", "mail"},
	}).Return([]*Entry{{DN: dn}}, nil).Once()

	entries, err := NewObjectBrowser(client).ReadObject(ctx, dn, []string{"cn", "mail"})

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, dn, entries[0].DN)
	client.AssertExpectations(t)

	_, err = NewObjectBrowser(client).ReadObject(ctx, "", nil)
	assert.ErrorIs(t, err, ErrEmptyDN)
}

func TestObjectBrowser_ListObjects(t *testing.T) {
	ctx := context.Background()
	container := "CN=Users," + testBindDN

	client := &MockClient{}
	client.On("Search", ctx, mock.MatchedBy(func(req *SearchRequest) bool {
		return req.BaseDN == container &&
			req.Scope == ScopeSingleLevel &&
			req.Filter == ObjectFilter &&
			len(req.Attributes) == 0
	})).Return([]*Entry{}, nil).Once()

	entries, err := NewObjectBrowser(client).ListObjects(ctx, container, nil)

	require.NoError(t, err)
	assert.Empty(t, entries)
	client.AssertExpectations(t)

	_, err = NewObjectBrowser(client).ListObjects(ctx, "", nil)
	assert.ErrorIs(t, err, ErrEmptyDN)
}
