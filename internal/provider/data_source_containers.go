package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &ContainersDataSource{}

var containerAttrTypes = map[string]attr.Type{
	"name": types.StringType,
	"dn":   types.StringType,
}

func NewContainersDataSource() datasource.DataSource {
	return &ContainersDataSource{}
}

// ContainersDataSource lists the child containers of a DN, like expanding a
// node in the console tree.
type ContainersDataSource struct {
	directory *ldapclient.Directory
}

// ContainersDataSourceModel describes the data source data model.
type ContainersDataSourceModel struct {
	ID         types.String `tfsdk:"id"`
	Parent     types.String `tfsdk:"parent"`
	Containers types.List   `tfsdk:"containers"`
}

func (d *ContainersDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_containers"
}

func (d *ContainersDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists the organizational units, containers and builtin domains directly below a DN. " +
			"The System and Program Data containers are omitted.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The DN that was listed.",
				Computed:            true,
			},
			"parent": schema.StringAttribute{
				MarkdownDescription: "The DN to list. Defaults to the domain root (`bind_dn`).",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"containers": schema.ListNestedAttribute{
				MarkdownDescription: "The child containers in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name": schema.StringAttribute{
							MarkdownDescription: "The container's name.",
							Computed:            true,
						},
						"dn": schema.StringAttribute{
							MarkdownDescription: "The container's distinguished name.",
							Computed:            true,
						},
					},
				},
			},
		},
	}
}

func (d *ContainersDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.directory = directoryFromProviderData(req, resp)
}

func (d *ContainersDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data ContainersDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	parent := data.Parent.ValueString()
	if parent == "" {
		parent = d.directory.BindDN()
	}

	finish := ldapclient.LogDataSourceOperation(ctx, "aduc_containers", "read", map[string]any{
		"parent": parent,
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	entries, err := d.directory.ListContainers(ctx, parent)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Listing Containers",
			fmt.Sprintf("Could not list containers below %s: %s", parent, err.Error()),
		)
		return
	}

	elemType := types.ObjectType{AttrTypes: containerAttrTypes}
	elements := make([]attr.Value, 0, len(entries))
	for _, entry := range entries {
		name := entry.GetAttributeValue("name")
		if name == "" {
			name, _ = ldapclient.RDNValue(entry.DN)
		}

		obj, diags := types.ObjectValue(containerAttrTypes, map[string]attr.Value{
			"name": types.StringValue(name),
			"dn":   types.StringValue(entry.DN),
		})
		resp.Diagnostics.Append(diags...)
		if resp.Diagnostics.HasError() {
			return
		}
		elements = append(elements, obj)
	}

	containers, diags := types.ListValue(elemType, elements)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.ID = types.StringValue(parent)
	data.Containers = containers

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
