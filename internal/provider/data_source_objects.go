package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &ObjectsDataSource{}

func NewObjectsDataSource() datasource.DataSource {
	return &ObjectsDataSource{}
}

// ObjectsDataSource lists the objects shown in the console's detail pane
// for a container.
type ObjectsDataSource struct {
	directory *ldapclient.Directory
}

// ObjectsDataSourceModel describes the data source data model.
type ObjectsDataSourceModel struct {
	ID         types.String `tfsdk:"id"`
	Container  types.String `tfsdk:"container"`
	Attributes types.List   `tfsdk:"attributes"`
	Objects    types.List   `tfsdk:"objects"`
}

func (d *ObjectsDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_objects"
}

func (d *ObjectsDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Lists the users, contacts, groups, computers, printers, shared folders, queue aliases and " +
			"sub-containers directly inside a container.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `container`.",
				Computed:            true,
			},
			"container": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the container to list.",
				Required:            true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"attributes": schema.ListAttribute{
				MarkdownDescription: "The attributes to return for each object. Defaults to all user attributes.",
				Optional:            true,
				ElementType:         types.StringType,
			},
			"objects": schema.ListNestedAttribute{
				MarkdownDescription: "The objects in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: entryNestedAttributes(),
				},
			},
		},
	}
}

func (d *ObjectsDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.directory = directoryFromProviderData(req, resp)
}

func (d *ObjectsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data ObjectsDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	container := data.Container.ValueString()

	finish := ldapclient.LogDataSourceOperation(ctx, "aduc_objects", "read", map[string]any{
		"container": container,
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	attrs, diags := helpers.StringsFromList(ctx, data.Attributes)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	entries, err := d.directory.ListObjects(ctx, container, attrs)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Listing Objects",
			fmt.Sprintf("Could not list objects in %s: %s", container, err.Error()),
		)
		return
	}

	objects, diags := entriesToList(ctx, entries)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.ID = types.StringValue(container)
	data.Objects = objects

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
