package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &ContactResource{}
var _ resource.ResourceWithImportState = &ContactResource{}

func NewContactResource() resource.Resource {
	return &ContactResource{}
}

// ContactResource defines the resource implementation.
type ContactResource struct {
	directory *ldapclient.Directory
}

// ContactResourceModel describes the resource data model.
type ContactResourceModel struct {
	ID         types.String `tfsdk:"id"`
	DN         types.String `tfsdk:"dn"`
	CN         types.String `tfsdk:"cn"`
	Container  types.String `tfsdk:"container"`
	Attributes types.Map    `tfsdk:"attributes"`
}

func (r *ContactResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_contact"
}

func (r *ContactResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Manages an Active Directory contact, a mail-enabled person without a logon account.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The objectGUID of the contact.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the contact.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"cn": schema.StringAttribute{
				MarkdownDescription: "The common name of the contact.",
				Required:            true,
				Validators: []validator.String{
					stringvalidator.LengthBetween(1, 64),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"container": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the container to create the contact in. " +
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
			"attributes": schema.MapAttribute{
				MarkdownDescription: "Additional LDAP attributes to set on the contact, keyed by attribute name " +
					"(e.g., `givenName`, `sn`, `mail`, `displayName`). Only the attributes listed here are managed.",
				Optional:    true,
				ElementType: helpers.AttributeValuesType.ElemType,
			},
		},
	}
}

func (r *ContactResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *ContactResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data ContactResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogResourceOperation(ctx, "aduc_contact", "create", map[string]any{
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

	options := &ldapclient.ContactOptions{}
	if !data.Container.IsUnknown() {
		options.Container = data.Container.ValueString()
	}

	dn, err := r.directory.AddContact(ctx, attrs, options)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Creating Contact",
			"Could not create contact, unexpected error: "+err.Error(),
		)
		return
	}

	tflog.Debug(ctx, "Created AD contact", map[string]any{
		"dn": dn,
	})

	data.ID = types.StringValue(dn)
	data.DN = types.StringValue(dn)
	if data.Container.IsUnknown() || data.Container.IsNull() {
		parent, err := ldapclient.GetDNParent(dn)
		if err != nil {
			resp.Diagnostics.AddError("Error Creating Contact", err.Error())
			return
		}
		data.Container = types.StringValue(parent)
	}

	found, diags := r.refresh(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	if !found {
		resp.Diagnostics.AddError(
			"Error Reading Created Contact",
			fmt.Sprintf("Contact %s was created but could not be read back.", dn),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *ContactResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data ContactResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogResourceOperation(ctx, "aduc_contact", "read", map[string]any{
		"dn": data.DN.ValueString(),
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	found, diags := r.refresh(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	if !found {
		tflog.Debug(ctx, "AD contact no longer exists, removing from state", map[string]any{
			"dn": data.DN.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *ContactResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan, state ContactResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := state.DN.ValueString()

	finish := ldapclient.LogResourceOperation(ctx, "aduc_contact", "update", map[string]any{
		"dn": dn,
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	planned, diags := helpers.AttributesFromMap(ctx, plan.Attributes)
	resp.Diagnostics.Append(diags...)
	prior, diags := helpers.AttributesFromMap(ctx, state.Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	for _, change := range helpers.AttributeChanges(prior, planned) {
		if err := r.directory.Modify(ctx, dn, change); err != nil {
			resp.Diagnostics.AddError(
				"Error Updating Contact",
				fmt.Sprintf("Could not %s %s of contact %s: %s", change.Operation, change.Attribute, dn, err.Error()),
			)
			return
		}
	}

	plan.ID = state.ID
	plan.DN = state.DN

	found, diags := r.refresh(ctx, &plan)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	if !found {
		resp.Diagnostics.AddError(
			"Error Reading Updated Contact",
			fmt.Sprintf("Contact %s could not be read back after update.", dn),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *ContactResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data ContactResourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogResourceOperation(ctx, "aduc_contact", "delete", map[string]any{
		"dn": data.DN.ValueString(),
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	if err := r.directory.Delete(ctx, data.DN.ValueString()); err != nil {
		if ldapclient.IsNotFoundError(err) {
			tflog.Debug(ctx, "AD contact already deleted", map[string]any{
				"dn": data.DN.ValueString(),
			})
			return
		}

		resp.Diagnostics.AddError(
			"Error Deleting Contact",
			"Could not delete contact, unexpected error: "+err.Error(),
		)
	}
}

func (r *ContactResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	ctx = initializeLogging(ctx)

	dn, err := ldapclient.NormalizeDNCase(req.ID)
	if err != nil || dn == "" {
		resp.Diagnostics.AddError(
			"Invalid Import ID",
			fmt.Sprintf("The import ID must be the distinguished name of a contact, got %q.", req.ID),
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

	data := ContactResourceModel{
		ID:         types.StringValue(dn),
		DN:         types.StringValue(dn),
		CN:         types.StringValue(cn),
		Container:  types.StringValue(container),
		Attributes: types.MapNull(helpers.AttributeValuesType.ElemType),
	}

	found, diags := r.refresh(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}
	if !found {
		resp.Diagnostics.AddError(
			"Error Importing Contact",
			fmt.Sprintf("No contact found with DN %s.", dn),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// refresh reads the contact at data.DN into data. It reports false when
// the contact no longer exists.
func (r *ContactResource) refresh(ctx context.Context, data *ContactResourceModel) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	managed, d := helpers.AttributesFromMap(ctx, data.Attributes)
	diags.Append(d...)
	if diags.HasError() {
		return false, diags
	}

	requested := append([]string{"objectGUID"}, helpers.AttributeNames(managed)...)

	entries, err := r.directory.ReadObject(ctx, data.DN.ValueString(), requested)
	if err != nil {
		if ldapclient.IsNotFoundError(err) {
			return false, diags
		}
		diags.AddError(
			"Error Reading Contact",
			fmt.Sprintf("Could not read contact %s: %s", data.DN.ValueString(), err.Error()),
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

	if !data.Attributes.IsNull() {
		refreshed, d := helpers.AttributesToMap(ctx, helpers.RefreshAttributes(managed, entry))
		diags.Append(d...)
		data.Attributes = refreshed
	}

	return true, diags
}
