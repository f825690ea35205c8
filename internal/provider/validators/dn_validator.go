package validators

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

var _ validator.String = dnValidator{}

type dnValidator struct{}

func (v dnValidator) Description(_ context.Context) string {
	return "value must be a distinguished name such as CN=Users,DC=example,DC=com"
}

func (v dnValidator) MarkdownDescription(_ context.Context) string {
	return "value must be a distinguished name such as `CN=Users,DC=example,DC=com`"
}

func (v dnValidator) ValidateString(ctx context.Context, req validator.StringRequest, resp *validator.StringResponse) {
	if req.ConfigValue.IsNull() || req.ConfigValue.IsUnknown() {
		return
	}

	dn := req.ConfigValue.ValueString()
	err := ldapclient.ValidateDNSyntax(dn)
	if err == nil {
		return
	}

	reason := err.Error()
	if errors.Is(err, ldapclient.ErrEmptyDN) {
		reason = "the value is blank"
	}

	resp.Diagnostics.AddAttributeError(
		req.Path,
		"Invalid Distinguished Name",
		fmt.Sprintf("%q cannot be parsed as a Distinguished Name (%s). %s.", dn, reason, v.Description(ctx)),
	)
}

// IsValidDN checks that a configured string parses as an LDAP distinguished
// name. Null and unknown values pass.
func IsValidDN() validator.String {
	return dnValidator{}
}
