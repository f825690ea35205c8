package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &WellKnownContainerDataSource{}

func NewWellKnownContainerDataSource() datasource.DataSource {
	return &WellKnownContainerDataSource{}
}

// WellKnownContainerDataSource resolves a well-known container to its DN.
type WellKnownContainerDataSource struct {
	directory *ldapclient.Directory
}

// WellKnownContainerDataSourceModel describes the data source data model.
type WellKnownContainerDataSourceModel struct {
	ID   types.String `tfsdk:"id"`
	Kind types.String `tfsdk:"kind"`
	DN   types.String `tfsdk:"dn"`
}

func (d *WellKnownContainerDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_well_known_container"
}

func (d *WellKnownContainerDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Resolves a well-known container of the domain through the domain object's `wellKnownObjects` " +
			"attribute, so that renamed or relocated containers are still found.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Same as `dn`.",
				Computed:            true,
			},
			"kind": schema.StringAttribute{
				MarkdownDescription: "The container to resolve: `system`, `computers`, `dcs` (Domain Controllers) or `users`. Case-insensitive.",
				Required:            true,
				Validators: []validator.String{
					validators.IsContainerKind(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The distinguished name of the container.",
				Computed:            true,
			},
		},
	}
}

func (d *WellKnownContainerDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.directory = directoryFromProviderData(req, resp)
}

func (d *WellKnownContainerDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data WellKnownContainerDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogDataSourceOperation(ctx, "aduc_well_known_container", "read", map[string]any{
		"kind": data.Kind.ValueString(),
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	kind, err := ldapclient.ParseContainerKind(data.Kind.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Invalid Container Kind", err.Error())
		return
	}

	dn, err := d.directory.ResolveWellKnownContainer(ctx, kind)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Resolving Well-Known Container",
			fmt.Sprintf("Could not resolve the %s container: %s", kind, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Resolved well-known container", map[string]any{
		"kind": string(kind),
		"dn":   dn,
	})

	data.ID = types.StringValue(dn)
	data.DN = types.StringValue(dn)

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}
