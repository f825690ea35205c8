package ldap

import (
	"context"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/mock"
)

const testBindDN = "DC=example,DC=com"

// MockClient implements the Client interface for testing the managers.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Search(ctx context.Context, req *SearchRequest) ([]*Entry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	entries, ok := args.Get(0).([]*Entry)
	if !ok {
		return nil, args.Error(1)
	}
	return entries, args.Error(1)
}

func (m *MockClient) Add(ctx context.Context, dn string, attrs Attributes) error {
	args := m.Called(ctx, dn, attrs)
	return args.Error(0)
}

func (m *MockClient) Delete(ctx context.Context, dn string) error {
	args := m.Called(ctx, dn)
	return args.Error(0)
}

func (m *MockClient) Modify(ctx context.Context, dn string, change Change) error {
	args := m.Called(ctx, dn, change)
	return args.Error(0)
}

func (m *MockClient) BindDN() string {
	return testBindDN
}

// domainEntry is the domain object as returned by the well-known lookup.
func domainEntry() []*Entry {
	return []*Entry{{
		DN: testBindDN,
		Attributes: Attributes{
			"wellKnownObjects": {
				"B:32:" + GUIDSystemContainer + ":CN=System," + testBindDN,
				"B:32:" + GUIDComputersContainer + ":CN=Computers," + testBindDN,
				"B:32:" + GUIDDomainControllersContainer + ":OU=Domain Controllers," + testBindDN,
				"B:32:" + GUIDUsersContainer + ":CN=Users," + testBindDN,
			},
		},
	}}
}

// isWellKnownLookup matches the search issued by WellKnownResolver.
func isWellKnownLookup(req *SearchRequest) bool {
	return req.BaseDN == testBindDN &&
		req.Scope == ScopeBaseObject &&
		req.Filter == "(objectClass=domain)"
}

// mockConn implements ldapConn for session tests.
type mockConn struct {
	mock.Mock
}

func (m *mockConn) Bind(username, password string) error {
	args := m.Called(username, password)
	return args.Error(0)
}

func (m *mockConn) GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzid string) error {
	args := m.Called(client, servicePrincipal, authzid)
	return args.Error(0)
}

func (m *mockConn) SearchAsync(ctx context.Context, searchRequest *ldap.SearchRequest, bufferSize int) ldap.Response {
	args := m.Called(ctx, searchRequest, bufferSize)
	resp, ok := args.Get(0).(ldap.Response)
	if !ok {
		return &fakeResponse{}
	}
	return resp
}

func (m *mockConn) Add(addRequest *ldap.AddRequest) error {
	args := m.Called(addRequest)
	return args.Error(0)
}

func (m *mockConn) Del(delRequest *ldap.DelRequest) error {
	args := m.Called(delRequest)
	return args.Error(0)
}

func (m *mockConn) Modify(modifyRequest *ldap.ModifyRequest) error {
	args := m.Called(modifyRequest)
	return args.Error(0)
}

func (m *mockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeResponse replays entries then reports err.
type fakeResponse struct {
	entries []*ldap.Entry
	err     error
	next    int
	current *ldap.Entry
}

func (r *fakeResponse) Entry() *ldap.Entry { return r.current }

func (r *fakeResponse) Referral() string { return "" }

func (r *fakeResponse) Controls() []ldap.Control { return nil }

func (r *fakeResponse) Err() error {
	if r.next < len(r.entries) {
		return nil
	}
	return r.err
}

func (r *fakeResponse) Next() bool {
	if r.next < len(r.entries) {
		r.current = r.entries[r.next]
		r.next++
		return true
	}
	r.current = nil
	return false
}

// newTestClient returns a client whose sessions use conn.
func newTestClient(conn ldapConn) *client {
	cfg := DefaultConfig()
	cfg.URL = "ldap://dc1.example.com"
	cfg.BindDN = testBindDN
	cfg.Username = "administrator@example.com"
	cfg.Password = "password"

	return &client{
		config: cfg,
		dial: func(context.Context, *ConnectionConfig) (ldapConn, error) {
			return conn, nil
		},
	}
}
