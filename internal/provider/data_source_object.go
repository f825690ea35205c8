package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &ObjectDataSource{}

func NewObjectDataSource() datasource.DataSource {
	return &ObjectDataSource{}
}

// ObjectDataSource reads the attributes of a single directory object, like
// opening its properties page.
type ObjectDataSource struct {
	directory *ldapclient.Directory
}

// ObjectDataSourceModel describes the data source data model.
type ObjectDataSourceModel struct {
	ID         types.String `tfsdk:"id"`
	DN         types.String `tfsdk:"dn"`
	Attributes types.List   `tfsdk:"attributes"`
	Found      types.Bool   `tfsdk:"found"`
	Values     types.Map    `tfsdk:"values"`
}

func (d *ObjectDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_object"
}

func (d *ObjectDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Reads a single directory object by DN. A missing object is reported through `found` rather than as an error. " +
			"`objectSid` and `objectGUID` are returned in their string forms.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `dn`.",
				Computed:            true,
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the object.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"attributes": schema.ListAttribute{
				MarkdownDescription: "The attributes to return. Defaults to all user attributes.",
				Optional:            true,
				ElementType:         types.StringType,
			},
			"found": schema.BoolAttribute{
				MarkdownDescription: "Whether the object exists.",
				Computed:            true,
			},
			"values": schema.MapAttribute{
				MarkdownDescription: "The returned attributes, keyed by name as reported by the server.",
				Computed:            true,
				ElementType:         helpers.AttributeValuesType.ElemType,
			},
		},
	}
}

func (d *ObjectDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.directory = directoryFromProviderData(req, resp)
}

func (d *ObjectDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data ObjectDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	dn := data.DN.ValueString()

	finish := ldapclient.LogDataSourceOperation(ctx, "aduc_object", "read", map[string]any{
		"dn": dn,
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	attrs, diags := helpers.StringsFromList(ctx, data.Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.ID = types.StringValue(dn)

	entries, err := d.directory.ReadObject(ctx, dn, attrs)
	if err != nil && !ldapclient.IsNotFoundError(err) {
		resp.Diagnostics.AddError(
			"Error Reading Object",
			fmt.Sprintf("Could not read %s: %s", dn, err.Error()),
		)
		return
	}

	if len(entries) == 0 {
		tflog.Debug(ctx, "Directory object not found", map[string]any{
			"dn": dn,
		})
		data.Found = types.BoolValue(false)
		data.Values = types.MapValueMust(helpers.AttributeValuesType.ElemType, map[string]attr.Value{})
		resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
		return
	}

	values, diags := helpers.AttributesToMap(ctx, entries[0].Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.Found = types.BoolValue(true)
	data.Values = values

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
