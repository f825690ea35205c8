package ldap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeDNValue(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "plain", input: "John Doe", expected: "John Doe"},
		{name: "comma", input: "Doe, John", expected: `Doe\, John`},
		{name: "plus", input: "John+Doe", expected: `John\+Doe`},
		{name: "double quote", input: `John "JD" Doe`, expected: `John \"JD\" Doe`},
		{name: "backslash", input: `John\Doe`, expected: `John\\Doe`},
		{name: "angle brackets", input: "John<>Doe", expected: `John\<\>Doe`},
		{name: "semicolon", input: "John;Doe", expected: `John\;Doe`},
		{name: "leading hash", input: "#1", expected: `\#1`},
		{name: "inner hash", input: "No#1", expected: "No#1"},
		{name: "leading and trailing space", input: " John ", expected: `\ John\ `},
		{name: "nul", input: "a\x00b", expected: `a\00b`},
		{name: "unicode", input: "Zoë Müller", expected: "Zoë Müller"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EscapeDNValue(tc.input))
		})
	}
}

func TestCommonNameDN(t *testing.T) {
	assert.Equal(t, "CN=Jane Doe,CN=Users,DC=example,DC=com", CommonNameDN("Jane Doe", "CN=Users,DC=example,DC=com"))
	assert.Equal(t, `CN=Doe\, Jane,CN=Users,DC=example,DC=com`, CommonNameDN("Doe, Jane", "CN=Users,DC=example,DC=com"))
}

func TestValidateDNSyntax(t *testing.T) {
	require.NoError(t, ValidateDNSyntax("CN=Jane,OU=Staff,DC=example,DC=com"))
	require.NoError(t, ValidateDNSyntax(`CN=Doe\, Jane,DC=example,DC=com`))
	assert.ErrorIs(t, ValidateDNSyntax("  "), ErrEmptyDN)
	assert.Error(t, ValidateDNSyntax("not a dn"))
}

func TestNormalizeDNCase(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"lowercase types":    {input: "cn=john,ou=users,dc=example,dc=com", want: "CN=john,OU=users,DC=example,DC=com"},
		"already normalized": {input: "CN=John,DC=example,DC=com", want: "CN=John,DC=example,DC=com"},
		"escaped comma kept": {input: `cn=Doe\, John,dc=example,dc=com`, want: `CN=Doe\, John,DC=example,DC=com`},
		"multi-valued rdn":   {input: "cn=a+sn=b,dc=example", want: "CN=a+SN=b,DC=example"},
		"empty":              {input: "", want: ""},
		"invalid":            {input: "garbage", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := NormalizeDNCase(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDNsEqual(t *testing.T) {
	assert.True(t, DNsEqual("CN=Users,DC=Example,DC=com", "cn=users,dc=example,dc=com"))
	assert.False(t, DNsEqual("CN=Users,DC=example,DC=com", "CN=Computers,DC=example,DC=com"))
}

func TestGetDNParent(t *testing.T) {
	parent, err := GetDNParent("CN=Jane,OU=Staff,DC=example,DC=com")
	require.NoError(t, err)
	assert.Equal(t, "OU=Staff,DC=example,DC=com", parent)

	parent, err = GetDNParent(`cn=Jane,ou=Sales\, EMEA,dc=example,dc=com`)
	require.NoError(t, err)
	assert.Equal(t, `OU=Sales\, EMEA,DC=example,DC=com`, parent)

	_, err = GetDNParent("DC=com")
	assert.Error(t, err)

	_, err = GetDNParent("")
	assert.ErrorIs(t, err, ErrEmptyDN)
}

func TestExtractRDNValue(t *testing.T) {
	value, err := ExtractRDNValue(`CN=Doe\, Jane,OU=Staff,DC=example,DC=com`, "cn")
	require.NoError(t, err)
	assert.Equal(t, "Doe, Jane", value)

	value, err = ExtractRDNValue("CN=Jane,OU=Staff,DC=example,DC=com", "OU")
	require.NoError(t, err)
	assert.Equal(t, "Staff", value)

	_, err = ExtractRDNValue("CN=Jane,DC=example,DC=com", "OU")
	assert.Error(t, err)
}

func TestRDNValue(t *testing.T) {
	value, err := RDNValue(`OU=Sales\, EMEA,DC=example,DC=com`)
	require.NoError(t, err)
	assert.Equal(t, "Sales, EMEA", value)

	value, err = RDNValue("CN=Builtin,DC=example,DC=com")
	require.NoError(t, err)
	assert.Equal(t, "Builtin", value)

	_, err = RDNValue("")
	assert.ErrorIs(t, err, ErrEmptyDN)
}
