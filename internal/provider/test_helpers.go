package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-framework/providerserver"
	"github.com/hashicorp/terraform-plugin-go/tfprotov6"
	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestLDAPURL   = "AD_TEST_LDAP_URL"
	EnvTestBindDN    = "AD_TEST_BIND_DN"
	EnvTestUsername  = "AD_TEST_USERNAME"
	EnvTestPassword  = "AD_TEST_PASSWORD"
	EnvTestContainer = "AD_TEST_CONTAINER"
	EnvTestKeytab    = "AD_TEST_KEYTAB"
	EnvTestRealm     = "AD_TEST_REALM"

	// Test object name prefixes to avoid conflicts.
	TestUserPrefix    = "tf-user-"
	TestContactPrefix = "tf-contact-"
)

// testAccProtoV6ProviderFactories is used to instantiate a provider during acceptance testing.
// The factory function is called for each Terraform CLI command to create a provider
// server that the CLI can connect to and interact with.
var testAccProtoV6ProviderFactories = map[string]func() (tfprotov6.ProviderServer, error){
	"aduc": providerserver.NewProtocol6WithError(New("test")()),
}

// TestConfig holds common test configuration.
type TestConfig struct {
	LDAPURL     string
	BindDN      string
	Username    string
	Password    string
	Container   string
	Keytab      string
	Realm       string
	UseKerberos bool
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	config := &TestConfig{
		LDAPURL:   os.Getenv(EnvTestLDAPURL),
		BindDN:    os.Getenv(EnvTestBindDN),
		Username:  os.Getenv(EnvTestUsername),
		Password:  os.Getenv(EnvTestPassword),
		Container: os.Getenv(EnvTestContainer),
		Keytab:    os.Getenv(EnvTestKeytab),
		Realm:     os.Getenv(EnvTestRealm),
	}

	config.UseKerberos = config.Keytab != "" && config.Realm != ""

	if config.Container == "" && config.BindDN != "" {
		config.Container = "CN=Users," + config.BindDN
	}

	return config
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

func testAccPreCheck(t *testing.T) {
	testAccPreCheckWithConfig(t)
}

// testAccPreCheckWithConfig skips the test unless a real directory is configured.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.LDAPURL == "" {
		t.Skipf("Skipping test: %s must be set", EnvTestLDAPURL)
	}

	if config.BindDN == "" {
		t.Skipf("Skipping test: %s must be set", EnvTestBindDN)
	}

	if !config.UseKerberos && (config.Username == "" || config.Password == "") {
		t.Skipf("Skipping test: %s and %s must be set (or configure Kerberos)", EnvTestUsername, EnvTestPassword)
	}

	return config
}

// testProviderConfig generates the provider block for acceptance tests.
func testProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"aduc\" {\n")
	providerConfig.WriteString(fmt.Sprintf("  ldap_url = %q\n", config.LDAPURL))
	providerConfig.WriteString(fmt.Sprintf("  bind_dn  = %q\n", config.BindDN))

	if config.Username != "" {
		providerConfig.WriteString(fmt.Sprintf("  username = %q\n", config.Username))
	}

	if config.UseKerberos {
		providerConfig.WriteString(fmt.Sprintf("  kerberos_realm  = %q\n", config.Realm))
		providerConfig.WriteString(fmt.Sprintf("  kerberos_keytab = %q\n", config.Keytab))
	} else {
		providerConfig.WriteString(fmt.Sprintf("  password = %q\n", config.Password))
	}

	providerConfig.WriteString("}\n")
	return providerConfig.String()
}

// generateTestName returns a unique object name that fits a user logon name.
func generateTestName(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:20-len(prefix)]
}

// testDirectory opens a Directory using the acceptance test configuration.
func testDirectory(ctx context.Context) (*ldapclient.Directory, error) {
	config := GetTestConfig()

	ldapConfig := ldapclient.DefaultConfig()
	ldapConfig.URL = config.LDAPURL
	ldapConfig.BindDN = config.BindDN
	ldapConfig.Username = config.Username
	ldapConfig.Password = config.Password
	ldapConfig.KerberosRealm = config.Realm
	ldapConfig.KerberosKeytab = config.Keytab

	return ldapclient.NewDirectory(ctx, ldapConfig)
}

// testCheckObjectExists verifies that the object behind resourceName exists in AD.
func testCheckObjectExists(resourceName string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return fmt.Errorf("resource not found: %s", resourceName)
		}

		dn := rs.Primary.Attributes["dn"]
		if dn == "" {
			return fmt.Errorf("resource dn not set")
		}

		ctx := context.Background()
		directory, err := testDirectory(ctx)
		if err != nil {
			return fmt.Errorf("failed to create LDAP client: %v", err)
		}

		entries, err := directory.ReadObject(ctx, dn, []string{"objectClass"})
		if err != nil {
			return fmt.Errorf("object %s does not exist: %v", dn, err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("object %s does not exist", dn)
		}

		return nil
	}
}

// testCheckObjectsDestroyed verifies that every resource of resourceType is gone.
func testCheckObjectsDestroyed(resourceType string) resource.TestCheckFunc {
	return func(s *terraform.State) error {
		ctx := context.Background()
		directory, err := testDirectory(ctx)
		if err != nil {
			return fmt.Errorf("failed to create LDAP client: %v", err)
		}

		for _, rs := range s.RootModule().Resources {
			if rs.Type != resourceType {
				continue
			}

			dn := rs.Primary.Attributes["dn"]
			entries, err := directory.ReadObject(ctx, dn, []string{"objectClass"})
			if err != nil {
				if ldapclient.IsNotFoundError(err) {
					continue
				}
				return fmt.Errorf("error checking %s: %v", dn, err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("%s %s still exists", resourceType, dn)
			}
		}

		return nil
	}
}
