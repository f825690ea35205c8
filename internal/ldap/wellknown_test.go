package ldap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWellKnownResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		kind ContainerKind
		want string
	}{
		"system":    {kind: ContainerSystem, want: "CN=System," + testBindDN},
		"computers": {kind: ContainerComputers, want: "CN=Computers," + testBindDN},
		"dcs":       {kind: ContainerDomainControllers, want: "OU=Domain Controllers," + testBindDN},
		"users":     {kind: ContainerUsers, want: "CN=Users," + testBindDN},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			client := &MockClient{}
			client.On("Search", ctx, mock.MatchedBy(func(req *SearchRequest) bool {
				return isWellKnownLookup(req) &&
					assert.ObjectsAreEqual([]string{"wellKnownObjects"}, req.Attributes)
			})).Return(domainEntry(), nil).Once()

			dn, err := NewWellKnownResolver(client).Resolve(ctx, tc.kind)

			require.NoError(t, err)
			assert.Equal(t, tc.want, dn)
			client.AssertExpectations(t)
		})
	}
}

func TestWellKnownResolver_ResolveFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown kind never searches", func(t *testing.T) {
		client := &MockClient{}

		_, err := NewWellKnownResolver(client).Resolve(ctx, ContainerKind("printers"))

		require.ErrorIs(t, err, ErrUnknownContainerKind)
		assert.True(t, IsValidationError(err))
		client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("no matching token", func(t *testing.T) {
		client := &MockClient{}
		client.On("Search", ctx, mock.Anything).Return([]*Entry{{
			DN:         testBindDN,
			Attributes: Attributes{"wellKnownObjects": {"B:32:" + GUIDSystemContainer + ":CN=System," + testBindDN}},
		}}, nil)

		_, err := NewWellKnownResolver(client).Resolve(ctx, ContainerUsers)

		require.ErrorIs(t, err, ErrContainerNotFound)
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("search error is returned", func(t *testing.T) {
		searchErr := NewLDAPError("search", errors.New("connection refused"))
		client := &MockClient{}
		client.On("Search", ctx, mock.Anything).Return(nil, searchErr)

		dn, err := NewWellKnownResolver(client).Resolve(ctx, ContainerUsers)

		assert.Empty(t, dn)
		require.ErrorIs(t, err, searchErr)
	})
}

func TestMatchWellKnownObject(t *testing.T) {
	tests := map[string]struct {
		value  string
		guid   string
		wantDN string
		wantOK bool
	}{
		"match": {
			value:  "B:32:" + GUIDUsersContainer + ":CN=Users,DC=example,DC=com",
			guid:   GUIDUsersContainer,
			wantDN: "CN=Users,DC=example,DC=com",
			wantOK: true,
		},
		"dn containing a colon": {
			value:  "B:32:" + GUIDUsersContainer + ":OU=Staff: 2024,DC=example,DC=com",
			guid:   GUIDUsersContainer,
			wantDN: "OU=Staff: 2024,DC=example,DC=com",
			wantOK: true,
		},
		"different guid": {
			value: "B:32:" + GUIDSystemContainer + ":CN=System,DC=example,DC=com",
			guid:  GUIDUsersContainer,
		},
		"guid comparison is exact": {
			value: "B:32:a9d1ca15768811d1aded00c04fd8d5cd:CN=Users,DC=example,DC=com",
			guid:  GUIDUsersContainer,
		},
		"malformed": {
			value: "CN=Users,DC=example,DC=com",
			guid:  GUIDUsersContainer,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dn, ok := matchWellKnownObject(tc.value, tc.guid)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantDN, dn)
		})
	}
}

func TestParseContainerKind(t *testing.T) {
	for _, kind := range ContainerKinds() {
		parsed, err := ParseContainerKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	parsed, err := ParseContainerKind(" Users ")
	require.NoError(t, err)
	assert.Equal(t, ContainerUsers, parsed)

	_, err = ParseContainerKind("domain")
	assert.ErrorIs(t, err, ErrUnknownContainerKind)
}
