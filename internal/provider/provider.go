package provider

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure ADUCProvider satisfies various provider interfaces.
var _ provider.Provider = &ADUCProvider{}
var _ provider.ProviderWithFunctions = &ADUCProvider{}
var _ provider.ProviderWithEphemeralResources = &ADUCProvider{}
var _ provider.ProviderWithConfigValidators = &ADUCProvider{}

var ldapURLRegex = regexp.MustCompile(`^(?i)ldaps?://[^/?#\s]+`)

// ADUCProvider defines the provider implementation.
type ADUCProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// ADUCProviderModel describes the provider data model.
type ADUCProviderModel struct {
	LdapURL types.String `tfsdk:"ldap_url"`
	BindDN  types.String `tfsdk:"bind_dn"`

	// Authentication settings
	Username types.String `tfsdk:"username"`
	Password types.String `tfsdk:"password"`

	// Kerberos settings (optional)
	KerberosRealm  types.String `tfsdk:"kerberos_realm"`
	KerberosKeytab types.String `tfsdk:"kerberos_keytab"`
	KerberosConfig types.String `tfsdk:"kerberos_config"`
	KerberosCCache types.String `tfsdk:"kerberos_ccache"`
	KerberosSPN    types.String `tfsdk:"kerberos_spn"`

	// TLS settings
	StartTLS      types.Bool   `tfsdk:"start_tls"`
	SkipTLSVerify types.Bool   `tfsdk:"skip_tls_verify"`
	TLSCACertFile types.String `tfsdk:"tls_ca_cert_file"`

	ConnectTimeout types.Int64 `tfsdk:"connect_timeout"`
}

func (p *ADUCProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "aduc"
	resp.Version = p.version
}

func (p *ADUCProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The ADUC provider manages Active Directory users and contacts and browses the directory " +
			"the way the Active Directory Users and Computers console does. Every operation opens its own LDAP session, " +
			"binds, performs one request and closes the session.",
		Attributes: map[string]schema.Attribute{
			"ldap_url": schema.StringAttribute{
				MarkdownDescription: "LDAP URL of the domain controller (e.g., `ldaps://dc1.example.com:636`). " +
					"Can be set via the `AD_LDAP_URL` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.RegexMatches(ldapURLRegex, "must be an ldap:// or ldaps:// URL"),
				},
			},
			"bind_dn": schema.StringAttribute{
				MarkdownDescription: "Distinguished name of the domain root (e.g., `DC=example,DC=com`). Used as the " +
					"base for well-known container lookups and for new objects' `objectCategory`. " +
					"Can be set via the `AD_BIND_DN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},

			// Authentication settings
			"username": schema.StringAttribute{
				MarkdownDescription: "Username for authentication. Supports `DOMAIN\\username`, `username@domain.com`, " +
					"or a distinguished name for simple binds. Can be set via the `AD_USERNAME` environment variable.",
				Optional: true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password for authentication. Can be set via the `AD_PASSWORD` environment variable.",
				Optional:            true,
				Sensitive:           true,
			},

			// Kerberos settings
			"kerberos_realm": schema.StringAttribute{
				MarkdownDescription: "Kerberos realm. Setting it selects GSSAPI authentication. " +
					"Can be set via the `AD_KERBEROS_REALM` environment variable.",
				Optional: true,
			},
			"kerberos_keytab": schema.StringAttribute{
				MarkdownDescription: "Path to a Kerberos keytab file. Can be set via the `AD_KERBEROS_KEYTAB` environment variable.",
				Optional:            true,
			},
			"kerberos_config": schema.StringAttribute{
				MarkdownDescription: "Path to the Kerberos configuration file. Defaults to `/etc/krb5.conf`. " +
					"Can be set via the `AD_KERBEROS_CONFIG` environment variable.",
				Optional: true,
			},
			"kerberos_ccache": schema.StringAttribute{
				MarkdownDescription: "Path to a Kerberos credential cache. Takes precedence over keytab and password. " +
					"Can be set via the `AD_KERBEROS_CCACHE` environment variable.",
				Optional: true,
			},
			"kerberos_spn": schema.StringAttribute{
				MarkdownDescription: "Service principal name of the LDAP service. Defaults to `ldap/<host>`. " +
					"Can be set via the `AD_KERBEROS_SPN` environment variable.",
				Optional: true,
			},

			// TLS settings
			"start_tls": schema.BoolAttribute{
				MarkdownDescription: "Upgrade an `ldap://` connection with StartTLS. Defaults to `false`. " +
					"Can be set via the `AD_START_TLS` environment variable.",
				Optional: true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Not recommended for production use. " +
					"Defaults to `false`. Can be set via the `AD_SKIP_TLS_VERIFY` environment variable.",
				Optional: true,
			},
			"tls_ca_cert_file": schema.StringAttribute{
				MarkdownDescription: "Path to a PEM file of CA certificates used to verify the server. " +
					"Can be set via the `AD_TLS_CA_CERT_FILE` environment variable.",
				Optional: true,
			},

			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: "Connection and request timeout in seconds. Defaults to `30`. " +
					"Can be set via the `AD_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(1),
				},
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *ADUCProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		// A trusted CA is meaningless when verification is skipped
		providervalidator.Conflicting(
			path.MatchRoot("tls_ca_cert_file"),
			path.MatchRoot("skip_tls_verify"),
		),
	}
}

func (p *ADUCProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data ADUCProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring ADUC provider", map[string]any{
		"version": p.version,
	})

	config := p.buildLDAPConfig(&data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	start := time.Now()
	directory, err := ldapclient.NewDirectory(ctx, config)
	if err != nil {
		tflog.Error(ctx, "Failed to create LDAP client", map[string]any{
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Create LDAP Client",
			"The provider configuration is not usable. "+
				"Please verify the ldap_url, bind_dn and authentication settings.\n\n"+
				"LDAP Client Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "ADUC provider configured successfully", map[string]any{
		"ldap_url":    config.URL,
		"bind_dn":     config.BindDN,
		"auth_method": config.GetAuthMethod().String(),
	})

	resp.DataSourceData = directory
	resp.ResourceData = directory
}

// configureLogging adds persistent fields for all provider logs.
func (p *ADUCProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "aduc")
	ctx = tflog.SetField(ctx, "provider_version", p.version)

	tflog.Debug(ctx, "ADUC provider logging configured")

	return ctx
}

// buildLDAPConfig constructs the LDAP client configuration from provider config and environment variables.
func (p *ADUCProvider) buildLDAPConfig(data *ADUCProviderModel, diags *diag.Diagnostics) *ldapclient.ConnectionConfig {
	config := ldapclient.DefaultConfig()

	config.URL = settingString(data.LdapURL, "AD_LDAP_URL")
	config.BindDN = settingString(data.BindDN, "AD_BIND_DN")

	if config.URL == "" {
		diags.AddAttributeError(
			path.Root("ldap_url"),
			"Missing LDAP URL",
			"The provider requires the URL of a domain controller. "+
				"Set the ldap_url attribute or the AD_LDAP_URL environment variable.",
		)
	}
	if config.BindDN == "" {
		diags.AddAttributeError(
			path.Root("bind_dn"),
			"Missing Bind DN",
			"The provider requires the distinguished name of the domain root. "+
				"Set the bind_dn attribute or the AD_BIND_DN environment variable.",
		)
	}

	username := settingString(data.Username, "AD_USERNAME")
	password := settingString(data.Password, "AD_PASSWORD")
	kerberosRealm := settingString(data.KerberosRealm, "AD_KERBEROS_REALM")

	hasPasswordAuth := username != "" && password != ""
	hasKerberosAuth := kerberosRealm != ""

	if !hasPasswordAuth && !hasKerberosAuth {
		diags.AddError(
			"Missing Authentication Configuration",
			"The provider binds to the directory either with a password or with Kerberos.\n\n"+
				"Password bind: set username and password (or AD_USERNAME and AD_PASSWORD).\n"+
				"Kerberos bind: set kerberos_realm (or AD_KERBEROS_REALM) together with a credential cache, "+
				"a keytab, or username and password.",
		)
	}

	if diags.HasError() {
		return config
	}

	config.Username = username
	config.Password = password
	config.KerberosRealm = kerberosRealm
	config.KerberosKeytab = settingString(data.KerberosKeytab, "AD_KERBEROS_KEYTAB")
	config.KerberosCCache = settingString(data.KerberosCCache, "AD_KERBEROS_CCACHE")
	config.KerberosSPN = settingString(data.KerberosSPN, "AD_KERBEROS_SPN")
	if krb5conf := settingString(data.KerberosConfig, "AD_KERBEROS_CONFIG"); krb5conf != "" {
		config.KerberosConfig = krb5conf
	}

	config.StartTLS = settingBool(data.StartTLS, "start_tls", "AD_START_TLS", false, diags)
	config.SkipTLSVerify = settingBool(data.SkipTLSVerify, "skip_tls_verify", "AD_SKIP_TLS_VERIFY", false, diags)
	config.TLSCACertFile = settingString(data.TLSCACertFile, "AD_TLS_CA_CERT_FILE")

	if connectTimeout := settingInt64(data.ConnectTimeout, "connect_timeout", "AD_CONNECT_TIMEOUT", 30, diags); connectTimeout > 0 {
		config.Timeout = time.Duration(connectTimeout) * time.Second
	}

	return config
}

// settingString returns the configured value, or the environment variable
// envVar when the attribute is unset or empty.
func settingString(value types.String, envVar string) string {
	if v := value.ValueString(); v != "" {
		return v
	}
	return os.Getenv(envVar)
}

// settingBool resolves a boolean like settingString. A malformed environment
// value is reported against attr rather than silently ignored.
func settingBool(value types.Bool, attr, envVar string, fallback bool, diags *diag.Diagnostics) bool {
	if !value.IsNull() {
		return value.ValueBool()
	}
	raw := os.Getenv(envVar)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		invalidEnvironment(diags, attr, envVar, raw, "a boolean")
		return fallback
	}
	return parsed
}

// settingInt64 resolves an integer like settingBool.
func settingInt64(value types.Int64, attr, envVar string, fallback int64, diags *diag.Diagnostics) int64 {
	if !value.IsNull() {
		return value.ValueInt64()
	}
	raw := os.Getenv(envVar)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		invalidEnvironment(diags, attr, envVar, raw, "an integer")
		return fallback
	}
	return parsed
}

func invalidEnvironment(diags *diag.Diagnostics, attr, envVar, raw, want string) {
	diags.AddAttributeError(
		path.Root(attr),
		"Invalid Environment Variable",
		fmt.Sprintf("%s=%q is not %s. Unset it or set the %s attribute instead.", envVar, raw, want, attr),
	)
}

func (p *ADUCProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewUserResource,
		NewContactResource,
	}
}

func (p *ADUCProvider) EphemeralResources(ctx context.Context) []func() ephemeral.EphemeralResource {
	return []func() ephemeral.EphemeralResource{
		// No ephemeral resources defined yet
	}
}

func (p *ADUCProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewWellKnownContainerDataSource,
		NewContainersDataSource,
		NewObjectDataSource,
		NewObjectsDataSource,
		NewSearchDataSource,
	}
}

func (p *ADUCProvider) Functions(ctx context.Context) []func() function.Function {
	return []func() function.Function{
		NewUserAccountControlFunction,
		NewCommonNameDNFunction,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &ADUCProvider{
			version: version,
		}
	}
}
