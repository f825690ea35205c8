package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

var _ function.Function = &UserAccountControlFunction{}

// UserAccountControlFunction implements the user_account_control function.
type UserAccountControlFunction struct{}

// userAccountControlFlags is the object argument of user_account_control.
type userAccountControlFlags struct {
	CannotChangePassword types.Bool `tfsdk:"cannot_change_password"`
	PasswordNeverExpires types.Bool `tfsdk:"password_never_expires"`
	AccountDisabled      types.Bool `tfsdk:"account_disabled"`
}

// Metadata returns the function name.
func (f UserAccountControlFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "user_account_control"
}

// Definition returns the function signature.
func (f UserAccountControlFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Compute a userAccountControl value",
		Description: "Returns the userAccountControl value a new user receives for the given account flags. Null flags count as false.",
		MarkdownDescription: "Returns the `userAccountControl` value a new user receives for the given account flags:\n\n" +
			"- `NORMAL_ACCOUNT` (0x200) is always set\n" +
			"- `PASSWD_CANT_CHANGE` (0x40) is set for `cannot_change_password` unless `password_never_expires` is set\n" +
			"- `DONT_EXPIRE_PASSWORD` (0x10000) is set for `password_never_expires`\n" +
			"- `ACCOUNTDISABLE` (0x2) is set for `account_disabled`",
		Parameters: []function.Parameter{
			function.ObjectParameter{
				Name:        "flags",
				Description: "Account flags: cannot_change_password, password_never_expires and account_disabled.",
				AttributeTypes: map[string]attr.Type{
					"cannot_change_password": types.BoolType,
					"password_never_expires": types.BoolType,
					"account_disabled":       types.BoolType,
				},
			},
		},
		Return: function.Int64Return{},
	}
}

// Run implements the function logic.
func (f UserAccountControlFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var flags userAccountControlFlags

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &flags))
	if resp.Error != nil {
		return
	}

	uac := ldapclient.UserAccountControl(ldapclient.UserOptions{
		CannotChangePassword: flags.CannotChangePassword.ValueBool(),
		PasswordNeverExpires: flags.PasswordNeverExpires.ValueBool(),
		AccountDisabled:      flags.AccountDisabled.ValueBool(),
	})

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, int64(uac)))
}

// NewUserAccountControlFunction creates a new instance of the user_account_control function.
func NewUserAccountControlFunction() function.Function {
	return &UserAccountControlFunction{}
}
