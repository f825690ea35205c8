package provider

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/hashicorp/terraform-plugin-testing/helper/resource"
	"github.com/hashicorp/terraform-plugin-testing/terraform"
	"github.com/stretchr/testify/assert"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

func TestMergeUserAccountControl(t *testing.T) {
	const trustedForDelegation = 0x00080000

	testCases := map[string]struct {
		current int64
		options ldapclient.UserOptions
		want    int64
	}{
		"unset account gets normal flag": {
			current: 0,
			options: ldapclient.UserOptions{AccountDisabled: true},
			want:    0x0202,
		},
		"enable keeps unmanaged bits": {
			current: 0x0202 | trustedForDelegation,
			options: ldapclient.UserOptions{},
			want:    0x0200 | trustedForDelegation,
		},
		"cannot change password": {
			current: 0x0200,
			options: ldapclient.UserOptions{CannotChangePassword: true},
			want:    0x0240,
		},
		"never expires drops cannot change": {
			current: 0x0240,
			options: ldapclient.UserOptions{AccountDisabled: true, CannotChangePassword: true, PasswordNeverExpires: true},
			want:    0x010202,
		},
		"must change password does not touch flags": {
			current: 0x0200,
			options: ldapclient.UserOptions{MustChangePassword: true},
			want:    0x0200,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, mergeUserAccountControl(tc.current, tc.options))
		})
	}
}

func TestAccUserResource_basic(t *testing.T) {
	config := testAccPreCheckWithConfig(t)
	name := generateTestName(TestUserPrefix)

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		CheckDestroy:             testCheckObjectsDestroyed("aduc_user"),
		Steps: []resource.TestStep{
			// Create and Read testing
			{
				Config: testAccUserResourceConfig(name, config.Container, "Passw0rd!Initial", false),
				Check: resource.ComposeAggregateTestCheckFunc(
					testCheckObjectExists("aduc_user.test"),
					resource.TestCheckResourceAttr("aduc_user.test", "cn", name),
					resource.TestCheckResourceAttr("aduc_user.test", "sam_account_name", name),
					resource.TestCheckResourceAttr("aduc_user.test", "dn", fmt.Sprintf("CN=%s,%s", name, config.Container)),
					resource.TestCheckResourceAttr("aduc_user.test", "account_disabled", "false"),
					resource.TestCheckResourceAttr("aduc_user.test", "user_account_control", "512"),
					resource.TestCheckResourceAttr("aduc_user.test", "attributes.givenName.0", "Terraform"),
					resource.TestCheckResourceAttrSet("aduc_user.test", "id"),
				),
			},
			// Update flags and attributes in place
			{
				Config: testAccUserResourceConfig(name, config.Container, "Passw0rd!Initial", true),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("aduc_user.test", "account_disabled", "true"),
					resource.TestCheckResourceAttr("aduc_user.test", "user_account_control", "514"),
					resource.TestCheckResourceAttr("aduc_user.test", "attributes.description.0", "disabled by terraform"),
				),
			},
			// Password rotation
			{
				Config: testAccUserResourceConfig(name, config.Container, "Passw0rd!Rotated", true),
				Check: resource.ComposeAggregateTestCheckFunc(
					resource.TestCheckResourceAttr("aduc_user.test", "password", "Passw0rd!Rotated"),
				),
			},
			// ImportState testing
			{
				ResourceName:      "aduc_user.test",
				ImportState:       true,
				ImportStateVerify: true,
				ImportStateIdFunc: testAccImportStateDN("aduc_user.test"),
				ImportStateVerifyIgnore: []string{
					"password",
					"confirm_password",
					"must_change_password",
					"cannot_change_password",
					"attributes",
				},
			},
		},
	})
}

func TestAccUserResource_passwordMismatch(t *testing.T) {
	config := testAccPreCheckWithConfig(t)

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + fmt.Sprintf(`
resource "aduc_user" "test" {
  cn               = "tf-mismatch"
  container        = %[1]q
  password         = "Passw0rd!One"
  confirm_password = "Passw0rd!Two"
}
`, config.Container),
				ExpectError: regexp.MustCompile(`Password Mismatch`),
				PlanOnly:    true,
			},
		},
	})
}

func TestAccUserResource_longCommonName(t *testing.T) {
	config := testAccPreCheckWithConfig(t)

	resource.Test(t, resource.TestCase{
		PreCheck:                 func() { testAccPreCheck(t) },
		ProtoV6ProviderFactories: testAccProtoV6ProviderFactories,
		Steps: []resource.TestStep{
			{
				Config: testProviderConfig() + fmt.Sprintf(`
resource "aduc_user" "test" {
  cn        = "Terraform Acceptance Test User"
  container = %[1]q
  password  = "Passw0rd!One"
}
`, config.Container),
				ExpectError: regexp.MustCompile(`SAM Account Name Required`),
				PlanOnly:    true,
			},
		},
	})
}

func testAccUserResourceConfig(name, container, password string, disabled bool) string {
	description := "managed by terraform"
	if disabled {
		description = "disabled by terraform"
	}

	return testProviderConfig() + fmt.Sprintf(`
resource "aduc_user" "test" {
  cn               = %[1]q
  container        = %[2]q
  password         = %[3]q
  confirm_password = %[3]q
  account_disabled = %[4]t

  attributes = {
    givenName   = ["Terraform"]
    sn          = ["Acceptance"]
    description = [%[5]q]
  }
}
`, name, container, password, disabled, description)
}

// testAccImportStateDN returns the dn attribute of resourceName as the import ID.
func testAccImportStateDN(resourceName string) resource.ImportStateIdFunc {
	return func(s *terraform.State) (string, error) {
		rs, ok := s.RootModule().Resources[resourceName]
		if !ok {
			return "", fmt.Errorf("resource not found: %s", resourceName)
		}
		return rs.Primary.Attributes["dn"], nil
	}
}
