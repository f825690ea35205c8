package planmodifiers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// samAccountNameMaxLength is the pre-Windows 2000 logon name limit for users.
const samAccountNameMaxLength = 20

var samAccountNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

type useCommonNameForSAMAccountName struct {
	source path.Path
}

// UseCommonNameForSAMAccountName returns a plan modifier that sets
// sam_account_name to the value of cn when sam_account_name is not
// configured, provided cn is a valid user logon name.
func UseCommonNameForSAMAccountName() planmodifier.String {
	return useCommonNameForSAMAccountName{
		source: path.Root("cn"),
	}
}

func (m useCommonNameForSAMAccountName) Description(_ context.Context) string {
	return fmt.Sprintf("uses the value of %s if sam_account_name is not explicitly configured", m.source)
}

func (m useCommonNameForSAMAccountName) MarkdownDescription(_ context.Context) string {
	return fmt.Sprintf("uses the value of `%s` if `sam_account_name` is not explicitly configured", m.source)
}

// PlanModifyString implements the plan modification logic.
func (m useCommonNameForSAMAccountName) PlanModifyString(ctx context.Context, req planmodifier.StringRequest, resp *planmodifier.StringResponse) {
	if !req.ConfigValue.IsNull() {
		return
	}

	var cn types.String
	resp.Diagnostics.Append(req.Plan.GetAttribute(ctx, m.source, &cn)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if cn.IsUnknown() || cn.IsNull() {
		return
	}

	name := cn.ValueString()

	if len(name) > samAccountNameMaxLength {
		resp.Diagnostics.AddAttributeError(
			req.Path,
			"SAM Account Name Required",
			fmt.Sprintf(
				"The common name '%s' is %d characters long, which exceeds the %d character limit for user logon names. "+
					"Please explicitly specify a 'sam_account_name' that is %d characters or less.",
				name, len(name), samAccountNameMaxLength, samAccountNameMaxLength,
			),
		)
		return
	}

	if !samAccountNameRegex.MatchString(name) {
		resp.Diagnostics.AddAttributeError(
			req.Path,
			"SAM Account Name Required",
			fmt.Sprintf(
				"The common name '%s' contains characters that are not valid for user logon names. "+
					"Logon names can only contain letters, numbers, dots, underscores, and hyphens. "+
					"Please explicitly specify a valid 'sam_account_name'.",
				name,
			),
		)
		return
	}

	resp.PlanValue = types.StringValue(name)
}
