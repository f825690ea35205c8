package provider

import (
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearProviderEnv isolates a test from the caller's AD_* environment.
func clearProviderEnv(t *testing.T) {
	t.Helper()

	for _, env := range []string{
		"AD_LDAP_URL", "AD_BIND_DN", "AD_USERNAME", "AD_PASSWORD",
		"AD_KERBEROS_REALM", "AD_KERBEROS_KEYTAB", "AD_KERBEROS_CONFIG", "AD_KERBEROS_CCACHE", "AD_KERBEROS_SPN",
		"AD_START_TLS", "AD_SKIP_TLS_VERIFY", "AD_TLS_CA_CERT_FILE", "AD_CONNECT_TIMEOUT",
	} {
		t.Setenv(env, "")
	}
}

func nullProviderModel() *ADUCProviderModel {
	return &ADUCProviderModel{
		LdapURL:        types.StringNull(),
		BindDN:         types.StringNull(),
		Username:       types.StringNull(),
		Password:       types.StringNull(),
		KerberosRealm:  types.StringNull(),
		KerberosKeytab: types.StringNull(),
		KerberosConfig: types.StringNull(),
		KerberosCCache: types.StringNull(),
		KerberosSPN:    types.StringNull(),
		StartTLS:       types.BoolNull(),
		SkipTLSVerify:  types.BoolNull(),
		TLSCACertFile:  types.StringNull(),
		ConnectTimeout: types.Int64Null(),
	}
}

func TestBuildLDAPConfig(t *testing.T) {
	clearProviderEnv(t)

	p := &ADUCProvider{version: "test"}
	data := nullProviderModel()
	data.LdapURL = types.StringValue("ldaps://dc1.example.com")
	data.BindDN = types.StringValue("DC=example,DC=com")
	data.Username = types.StringValue("admin@example.com")
	data.Password = types.StringValue("secret")
	data.ConnectTimeout = types.Int64Value(5)

	var diags diag.Diagnostics
	config := p.buildLDAPConfig(data, &diags)

	require.False(t, diags.HasError(), "unexpected diagnostics: %v", diags)
	assert.Equal(t, "ldaps://dc1.example.com", config.URL)
	assert.Equal(t, "DC=example,DC=com", config.BindDN)
	assert.Equal(t, "admin@example.com", config.Username)
	assert.Equal(t, "secret", config.Password)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, "/etc/krb5.conf", config.KerberosConfig)
	assert.False(t, config.StartTLS)
}

func TestBuildLDAPConfigEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AD_LDAP_URL", "ldap://dc1.example.com")
	t.Setenv("AD_BIND_DN", "DC=example,DC=com")
	t.Setenv("AD_KERBEROS_REALM", "EXAMPLE.COM")
	t.Setenv("AD_KERBEROS_CCACHE", "/tmp/krb5cc_1000")
	t.Setenv("AD_START_TLS", "true")
	t.Setenv("AD_CONNECT_TIMEOUT", "12")

	p := &ADUCProvider{version: "test"}

	var diags diag.Diagnostics
	config := p.buildLDAPConfig(nullProviderModel(), &diags)

	require.False(t, diags.HasError(), "unexpected diagnostics: %v", diags)
	assert.Equal(t, "ldap://dc1.example.com", config.URL)
	assert.Equal(t, "EXAMPLE.COM", config.KerberosRealm)
	assert.Equal(t, "/tmp/krb5cc_1000", config.KerberosCCache)
	assert.True(t, config.StartTLS)
	assert.Equal(t, 12*time.Second, config.Timeout)
}

func TestBuildLDAPConfigConfigOverridesEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AD_LDAP_URL", "ldap://env.example.com")
	t.Setenv("AD_BIND_DN", "DC=example,DC=com")
	t.Setenv("AD_USERNAME", "env-user")
	t.Setenv("AD_PASSWORD", "env-pass")
	t.Setenv("AD_SKIP_TLS_VERIFY", "true")

	p := &ADUCProvider{version: "test"}
	data := nullProviderModel()
	data.LdapURL = types.StringValue("ldaps://config.example.com")
	data.SkipTLSVerify = types.BoolValue(false)

	var diags diag.Diagnostics
	config := p.buildLDAPConfig(data, &diags)

	require.False(t, diags.HasError(), "unexpected diagnostics: %v", diags)
	assert.Equal(t, "ldaps://config.example.com", config.URL)
	assert.Equal(t, "env-user", config.Username)
	assert.False(t, config.SkipTLSVerify)
}

func TestBuildLDAPConfigMissingSettings(t *testing.T) {
	testCases := map[string]struct {
		url, bindDN, username, password string
		wantSummaries                   []string
	}{
		"nothing configured": {
			wantSummaries: []string{"Missing LDAP URL", "Missing Bind DN", "Missing Authentication Configuration"},
		},
		"missing bind dn": {
			url: "ldaps://dc1.example.com", username: "admin", password: "secret",
			wantSummaries: []string{"Missing Bind DN"},
		},
		"username without password": {
			url: "ldaps://dc1.example.com", bindDN: "DC=example,DC=com", username: "admin",
			wantSummaries: []string{"Missing Authentication Configuration"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			clearProviderEnv(t)

			data := nullProviderModel()
			if tc.url != "" {
				data.LdapURL = types.StringValue(tc.url)
			}
			if tc.bindDN != "" {
				data.BindDN = types.StringValue(tc.bindDN)
			}
			if tc.username != "" {
				data.Username = types.StringValue(tc.username)
			}
			if tc.password != "" {
				data.Password = types.StringValue(tc.password)
			}

			var diags diag.Diagnostics
			(&ADUCProvider{}).buildLDAPConfig(data, &diags)

			var summaries []string
			for _, d := range diags.Errors() {
				summaries = append(summaries, d.Summary())
			}
			assert.ElementsMatch(t, tc.wantSummaries, summaries)
		})
	}
}

func TestBuildLDAPConfigInvalidEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AD_START_TLS", "sometimes")
	t.Setenv("AD_CONNECT_TIMEOUT", "soon")

	p := &ADUCProvider{version: "test"}
	data := nullProviderModel()
	data.LdapURL = types.StringValue("ldap://dc1.example.com")
	data.BindDN = types.StringValue("DC=example,DC=com")
	data.Username = types.StringValue("admin")
	data.Password = types.StringValue("secret")

	var diags diag.Diagnostics
	p.buildLDAPConfig(data, &diags)

	require.Equal(t, 2, diags.ErrorsCount(), "diagnostics: %v", diags)
	for _, d := range diags.Errors() {
		assert.Equal(t, "Invalid Environment Variable", d.Summary())
	}
	assert.Contains(t, diags.Errors()[0].Detail(), `AD_START_TLS="sometimes" is not a boolean`)
	assert.Contains(t, diags.Errors()[1].Detail(), `AD_CONNECT_TIMEOUT="soon" is not an integer`)
}

func TestSettingPrefersAttribute(t *testing.T) {
	t.Setenv("AD_CONNECT_TIMEOUT", "soon")
	t.Setenv("AD_BIND_DN", "DC=env,DC=example")

	var diags diag.Diagnostics
	assert.Equal(t, int64(3), settingInt64(types.Int64Value(3), "connect_timeout", "AD_CONNECT_TIMEOUT", 30, &diags))
	assert.Equal(t, "DC=env,DC=example", settingString(types.StringValue(""), "AD_BIND_DN"))
	assert.False(t, diags.HasError())
}

// TestAccProvider_WellKnownContainer verifies that a configured provider can bind and read.
func TestAccProvider_WellKnownContainer(t *testing.T) {
	config := testAccPreCheckWithConfig(t)

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + `
data "aduc_well_known_container" "users" {
  kind = "users"
}
`,
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttrSet("data.aduc_well_known_container.users", "dn"),
					resource.TestCheckResourceAttrWith("data.aduc_well_known_container.users", "dn", func(value string) error {
						if len(value) < len(config.BindDN) {
							return fmt.Errorf("expected %q to be below %q", value, config.BindDN)
						}
						return nil
					}),
				),
			},
		},
	})
}
