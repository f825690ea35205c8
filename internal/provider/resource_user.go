package provider

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/boolplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-aduc/internal/provider/planmodifiers"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &UserResource{}
var _ resource.ResourceWithImportState = &UserResource{}
var _ resource.ResourceWithValidateConfig = &UserResource{}

// managedUACBits are the userAccountControl flags owned by this resource.
// Other bits found on the account are preserved on update.
const managedUACBits = ldapclient.UACAccountDisabled | ldapclient.UACPasswordCantChange | ldapclient.UACPasswordNeverExpires

func NewUserResource() resource.Resource {
	return &UserResource{}
}

// UserResource defines the resource implementation.
type UserResource struct {
	directory *ldapclient.Directory
}

// UserResourceModel describes the resource data model.
type UserResourceModel struct {
	ID                   types.String `tfsdk:"id"`               // objectGUID (computed)
	DN                   types.String `tfsdk:"dn"`               // Computed
	CN                   types.String `tfsdk:"cn"`               // Required
	Container            types.String `tfsdk:"container"`        // Optional+Computed, defaults to the Users container
	SAMAccountName       types.String `tfsdk:"sam_account_name"` // Optional+Computed, defaults to cn
	Attributes           types.Map    `tfsdk:"attributes"`
	Password             types.String `tfsdk:"password"`
	ConfirmPassword      types.String `tfsdk:"confirm_password"`
	MustChangePassword   types.Bool   `tfsdk:"must_change_password"`
	CannotChangePassword types.Bool   `tfsdk:"cannot_change_password"`
	PasswordNeverExpires types.Bool   `tfsdk:"password_never_expires"`
	AccountDisabled      types.Bool   `tfsdk:"account_disabled"`
	InetOrgPerson        types.Bool   `tfsdk:"inet_org_person"`
	UserAccountControl   types.Int64  `tfsdk:"user_account_control"` // Computed
}

func (r *UserResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_user"
}

func (r *UserResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages an Active Directory user account the way the **New Object - User** dialog creates it: " +
			"the account is added with its control flags, then its password is set.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The objectGUID of the user.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the user, `CN=<cn>,<container>`.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"cn": schema.StringAttribute{
				MarkdownDescription: "The common name of the user. Special characters are escaped in the DN.",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 64),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"container": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the container to create the user in. " +
					"Defaults to the domain's well-known Users container.",
				Optional: true,
				Computed: true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
					stringplanmodifier.RequiresReplace(),
				},
			},
			"sam_account_name": schema.StringAttribute{
				MarkdownDescription: "The pre-Windows 2000 logon name. Defaults to `cn` when `cn` is a valid logon name.",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 20),
				},
				PlanModifiers: []planmodifier.String{
					planmodifiers.UseCommonNameForSAMAccountName(),
				},
			},
			"attributes": schema.MapAttribute{
				MarkdownDescription: "Additional LDAP attributes to set on the user, keyed by attribute name " +
					"(e.g., `givenName`, `sn`, `mail`, `userPrincipalName`). Only the attributes listed here are managed.",
				Optional:    true,
				ElementType: helpers.AttributeValuesType.ElemType,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "The initial password of the user. Changing it resets the password.",
				Required:            true,
				Sensitive:           true,
			},
			"confirm_password": schema.StringAttribute{
				MarkdownDescription: "Confirmation of `password`. Defaults to `password`; the user is not created when they differ.",
				Optional:            true,
				Sensitive:           true,
			},
			"must_change_password": schema.BoolAttribute{
				MarkdownDescription: "Require the user to change the password at next logon. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(false),
			},
			"cannot_change_password": schema.BoolAttribute{
				MarkdownDescription: "Prevent the user from changing the password. Ignored when `password_never_expires` is set. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(false),
			},
			"password_never_expires": schema.BoolAttribute{
				MarkdownDescription: "Exempt the password from the domain's maximum password age. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(false),
			},
			"account_disabled": schema.BoolAttribute{
				MarkdownDescription: "Create the account disabled. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(false),
			},
			"inet_org_person": schema.BoolAttribute{
				MarkdownDescription: "Add the `inetOrgPerson` object class. Changing it forces a new user. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
				Default:             booldefault.StaticBool(false),
				PlanModifiers: []planmodifier.Bool{
					boolplanmodifier.RequiresReplace(),
				},
			},
			"user_account_control": schema.Int64Attribute{
				MarkdownDescription: "The userAccountControl value of the account.",
				Computed:            true,
			},
		},
	}
}

func (r *UserResource) ValidateConfig(ctx context.Context, req resource.ValidateConfigRequest, resp *resource.ValidateConfigResponse) {
	var data UserResourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if data.Password.IsUnknown() || data.ConfirmPassword.IsUnknown() || data.ConfirmPassword.IsNull() {
		return
	}

	if data.Password.ValueString() != data.ConfirmPassword.ValueString() {
		resp.Diagnostics.AddAttributeError(
			path.Root("confirm_password"),
			"Password Mismatch",
			"The confirm_password value does not match password.",
		)
	}
}

func (r *UserResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	directory, ok := req.ProviderData.(*ldapclient.Directory)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *ldapclient.Directory, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	r.directory = directory
}

func (r *UserResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data UserResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogResourceOperation(ctx, "aduc_user", "create", map[string]any{
		"cn":        data.CN.ValueString(),
		"container": data.Container.ValueString(),
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	attrs, diags := helpers.AttributesFromMap(ctx, data.Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	attrs.Set("cn", data.CN.ValueString())
	if sam := data.SAMAccountName.ValueString(); !data.SAMAccountName.IsUnknown() && sam != "" {
		attrs.Set("sAMAccountName", sam)
	}

	options := r.userOptions(&data)

	password := data.Password.ValueString()
	confirm := password
	if !data.ConfirmPassword.IsNull() {
		confirm = data.ConfirmPassword.ValueString()
	}

	dn, err := r.directory.AddUser(ctx, attrs, password, confirm, options)
	if err != nil {
		if dn == "" {
			resp.Diagnostics.AddError(
				"Error Creating User",
				"Could not create user, unexpected error: "+err.Error(),
			)
			return
		}

		// The account exists but has no password: record it so Terraform
		// taints and replaces it.
		r.setCreatedState(&data, dn, options)
		resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
		resp.Diagnostics.AddError(
			"Error Setting User Password",
			fmt.Sprintf("User %s was created but its password could not be set: %s", dn, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Created AD user", map[string]any{
		"dn": dn,
	})

	r.setCreatedState(&data, dn, options)

	found, diags := r.refresh(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	if !found {
		resp.Diagnostics.AddError(
			"Error Reading Created User",
			fmt.Sprintf("User %s was created but could not be read back.", dn),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *UserResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data UserResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogResourceOperation(ctx, "aduc_user", "read", map[string]any{
		"dn": data.DN.ValueString(),
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	found, diags := r.refresh(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	if !found {
		tflog.Debug(ctx, "AD user no longer exists, removing from state", map[string]any{
			"dn": data.DN.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *UserResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan, state UserResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := state.DN.ValueString()

	finish := ldapclient.LogResourceOperation(ctx, "aduc_user", "update", map[string]any{
		"dn": dn,
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	changes, diags := r.userChanges(ctx, &plan, &state)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	passwordChanged := !plan.Password.Equal(state.Password)
	if passwordChanged {
		if !plan.ConfirmPassword.IsNull() && plan.ConfirmPassword.ValueString() != plan.Password.ValueString() {
			resp.Diagnostics.AddAttributeError(
				path.Root("confirm_password"),
				"Password Mismatch",
				"The confirm_password value does not match password.",
			)
			return
		}

		if err := r.directory.SetPassword(ctx, dn, plan.Password.ValueString()); err != nil {
			resp.Diagnostics.AddError(
				"Error Setting User Password",
				fmt.Sprintf("Could not set password of user %s: %s", dn, err.Error()),
			)
			return
		}

		// Setting a password stamps pwdLastSet; restore the must-change marker.
		if plan.MustChangePassword.ValueBool() && plan.MustChangePassword.Equal(state.MustChangePassword) {
			changes = append(changes, ldapclient.ReplaceChange("pwdLastSet", ldapclient.PwdLastSetMustChange))
		}
	}

	for _, change := range changes {
		tflog.Debug(ctx, "Modifying AD user", map[string]any{
			"dn":        dn,
			"attribute": change.Attribute,
			"operation": change.Operation.String(),
		})

		if err := r.directory.Modify(ctx, dn, change); err != nil {
			resp.Diagnostics.AddError(
				"Error Updating User",
				fmt.Sprintf("Could not %s %s of user %s: %s", change.Operation, change.Attribute, dn, err.Error()),
			)
			return
		}
	}

	plan.ID = state.ID
	plan.DN = state.DN
	plan.UserAccountControl = state.UserAccountControl

	found, diags := r.refresh(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	if !found {
		resp.Diagnostics.AddError(
			"Error Reading Updated User",
			fmt.Sprintf("User %s could not be read back after update.", dn),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *UserResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data UserResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogResourceOperation(ctx, "aduc_user", "delete", map[string]any{
		"dn": data.DN.ValueString(),
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	if err := r.directory.Delete(ctx, data.DN.ValueString()); err != nil {
		if ldapclient.IsNotFoundError(err) {
			tflog.Debug(ctx, "AD user already deleted", map[string]any{
				"dn": data.DN.ValueString(),
			})
			return
		}

		resp.Diagnostics.AddError(
			"Error Deleting User",
			"Could not delete user, unexpected error: "+err.Error(),
		)
	}
}

// ImportState imports a user by DN. The password is not readable, so the
// next apply resets it to the configured value.
func (r *UserResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	ctx = initializeLogging(ctx)

	dn, err := ldapclient.NormalizeDNCase(req.ID)
	if err != nil || dn == "" {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			fmt.Sprintf("The import ID must be the distinguished name of a user, got %q.", req.ID),
		)
		return
	}

	cn, err := ldapclient.ExtractRDNValue(dn, "CN")
	if err != nil {
		resp.Diagnostics.AddError("Invalid Import ID", err.Error())
		return
	}
	container, err := ldapclient.GetDNParent(dn)
	if err != nil {
		resp.Diagnostics.AddError("Invalid Import ID", err.Error())
		return
	}

	data := UserResourceModel{
		ID:                   types.StringValue(dn),
		DN:                   types.StringValue(dn),
		CN:                   types.StringValue(cn),
		Container:            types.StringValue(container),
		Attributes:           types.MapNull(helpers.AttributeValuesType.ElemType),
		Password:             types.StringNull(),
		ConfirmPassword:      types.StringNull(),
		MustChangePassword:   types.BoolValue(false),
		CannotChangePassword: types.BoolValue(false),
		PasswordNeverExpires: types.BoolValue(false),
		AccountDisabled:      types.BoolValue(false),
		SAMAccountName:       types.StringNull(),
		UserAccountControl:   types.Int64Null(),
	}

	found, diags := r.refresh(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	if !found {
		resp.Diagnostics.AddError(
			"Error Importing User",
			fmt.Sprintf("No user found with DN %s.", dn),
		)
		return
	}

	tflog.Debug(ctx, "Imported AD user", map[string]any{
		"dn":   dn,
		"guid": data.ID.ValueString(),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *UserResource) userOptions(data *UserResourceModel) *ldapclient.UserOptions {
	options := &ldapclient.UserOptions{
		MustChangePassword:   data.MustChangePassword.ValueBool(),
		CannotChangePassword: data.CannotChangePassword.ValueBool(),
		PasswordNeverExpires: data.PasswordNeverExpires.ValueBool(),
		AccountDisabled:      data.AccountDisabled.ValueBool(),
		InetOrgPerson:        data.InetOrgPerson.ValueBool(),
	}
	if !data.Container.IsUnknown() {
		options.Container = data.Container.ValueString()
	}
	return options
}

// setCreatedState fills the computed attributes known right after AddUser.
func (r *UserResource) setCreatedState(data *UserResourceModel, dn string, options *ldapclient.UserOptions) {
	data.ID = types.StringValue(dn)
	data.DN = types.StringValue(dn)
	data.UserAccountControl = types.Int64Value(int64(ldapclient.UserAccountControl(*options)))

	if data.Container.IsUnknown() || data.Container.IsNull() {
		if parent, err := ldapclient.GetDNParent(dn); err == nil {
			data.Container = types.StringValue(parent)
		} else {
			data.Container = types.StringNull()
		}
	}
	if data.SAMAccountName.IsUnknown() {
		data.SAMAccountName = types.StringNull()
	}
}

// userChanges builds the modify requests for everything but the password.
func (r *UserResource) userChanges(ctx context.Context, plan, state *UserResourceModel) ([]ldapclient.Change, diag.Diagnostics) {
	var diags diag.Diagnostics
	var changes []ldapclient.Change

	if !plan.CannotChangePassword.Equal(state.CannotChangePassword) ||
		!plan.PasswordNeverExpires.Equal(state.PasswordNeverExpires) ||
		!plan.AccountDisabled.Equal(state.AccountDisabled) {
		uac := mergeUserAccountControl(state.UserAccountControl.ValueInt64(), *r.userOptions(plan))
		changes = append(changes, ldapclient.ReplaceChange("userAccountControl", strconv.FormatInt(uac, 10)))
	}

	if !plan.MustChangePassword.Equal(state.MustChangePassword) {
		changes = append(changes, ldapclient.ReplaceChange("pwdLastSet", ldapclient.PwdLastSet(plan.MustChangePassword.ValueBool())))
	}

	if !plan.SAMAccountName.IsUnknown() && !plan.SAMAccountName.IsNull() && !plan.SAMAccountName.Equal(state.SAMAccountName) {
		changes = append(changes, ldapclient.ReplaceChange("sAMAccountName", plan.SAMAccountName.ValueString()))
	}

	planned, d := helpers.AttributesFromMap(ctx, plan.Attributes)
	diags.Append(d...)
	prior, d := helpers.AttributesFromMap(ctx, state.Attributes)
	diags.Append(d...)
	if diags.HasError() {
		return nil, diags
	}

	changes = append(changes, helpers.AttributeChanges(prior, planned)...)

	return changes, diags
}

// mergeUserAccountControl replaces the managed flags of current with those
// computed from options, keeping every other bit.
func mergeUserAccountControl(current int64, options ldapclient.UserOptions) int64 {
	if current == 0 {
		current = int64(ldapclient.UACNormalAccount)
	}
	computed := int64(ldapclient.UserAccountControl(options))
	return current&^int64(managedUACBits) | computed&int64(managedUACBits)
}

// refresh reads the user at data.DN into data. It reports false when the
// user no longer exists.
func (r *UserResource) refresh(ctx context.Context, data *UserResourceModel) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	managed, d := helpers.AttributesFromMap(ctx, data.Attributes)
	diags.Append(d...)
	if diags.HasError() {
		return false, diags
	}

	requested := append([]string{"objectGUID", "objectClass", "sAMAccountName", "userAccountControl"}, helpers.AttributeNames(managed)...)

	entries, err := r.directory.ReadObject(ctx, data.DN.ValueString(), requested)
	if err != nil {
		if ldapclient.IsNotFoundError(err) {
			return false, diags
		}
		diags.AddError(
			"Error Reading User",
			fmt.Sprintf("Could not read user %s: %s", data.DN.ValueString(), err.Error()),
		)
		return false, diags
	}
	if len(entries) == 0 {
		return false, diags
	}

	entry := entries[0]

	if guid := entry.GetAttributeValue("objectGUID"); guid != "" {
		data.ID = types.StringValue(guid)
	}
	if sam := entry.GetAttributeValue("sAMAccountName"); sam != "" {
		data.SAMAccountName = types.StringValue(sam)
	}

	if raw := entry.GetAttributeValue("userAccountControl"); raw != "" {
		uac, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			diags.AddError(
				"Error Reading User",
				fmt.Sprintf("User %s has an invalid userAccountControl value %q.", data.DN.ValueString(), raw),
			)
			return false, diags
		}
		data.UserAccountControl = types.Int64Value(uac)
		data.AccountDisabled = types.BoolValue(uac&int64(ldapclient.UACAccountDisabled) != 0)
		data.PasswordNeverExpires = types.BoolValue(uac&int64(ldapclient.UACPasswordNeverExpires) != 0)
	}

	data.InetOrgPerson = types.BoolValue(slices.ContainsFunc(entry.GetAttributeValues("objectClass"), func(class string) bool {
		return strings.EqualFold(class, ldapclient.InetOrgPersonClass)
	}))

	if !data.Attributes.IsNull() {
		refreshed, d := helpers.AttributesToMap(ctx, helpers.RefreshAttributes(managed, entry))
		diags.Append(d...)
		data.Attributes = refreshed
	}

	if data.SAMAccountName.IsUnknown() {
		data.SAMAccountName = types.StringNull()
	}

	return true, diags
}
