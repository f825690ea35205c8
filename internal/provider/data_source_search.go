package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/helpers"
	"github.com/isometry/terraform-provider-aduc/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &SearchDataSource{}

func NewSearchDataSource() datasource.DataSource {
	return &SearchDataSource{}
}

// SearchDataSource runs an arbitrary LDAP search.
type SearchDataSource struct {
	directory *ldapclient.Directory
}

// SearchDataSourceModel describes the data source data model.
type SearchDataSourceModel struct {
	ID         types.String `tfsdk:"id"`
	Base       types.String `tfsdk:"base"`
	Scope      types.String `tfsdk:"scope"`
	Filter     types.String `tfsdk:"filter"`
	Attributes types.List   `tfsdk:"attributes"`
	SizeLimit  types.Int64  `tfsdk:"size_limit"`
	Entries    types.List   `tfsdk:"entries"`
}

func (d *SearchDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_search"
}

func (d *SearchDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Runs an LDAP search and returns every matching entry. The search fails as a whole " +
			"when the server reports an error part way through.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "A summary of the search: `<base>?<scope>?<filter>`.",
				Computed:            true,
			},
			"base": schema.StringAttribute{
				MarkdownDescription: "The search base. Defaults to the domain root (`bind_dn`).",
				Optional:            true,
				Validators: []validator.String{
					validators.IsValidDN(),
				},
			},
			"scope": schema.StringAttribute{
				MarkdownDescription: "The search scope: `base`, `one` or `sub`. Defaults to `sub`.",
				Optional:            true,
				Validators: []validator.String{
					validators.IsSearchScope(),
				},
			},
			"filter": schema.StringAttribute{
				MarkdownDescription: "The LDAP filter. Defaults to `(objectClass=*)`.",
				Optional:            true,
			},
			"attributes": schema.ListAttribute{
				MarkdownDescription: "The attributes to return. Defaults to all user attributes.",
				Optional:            true,
				ElementType:         types.StringType,
			},
			"size_limit": schema.Int64Attribute{
				MarkdownDescription: "The maximum number of entries the server should return. `0` means no limit.",
				Optional:            true,
				Validators: []validator.Int64{
					int64validator.AtLeast(0),
				},
			},
			"entries": schema.ListNestedAttribute{
				MarkdownDescription: "The matching entries in server order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: entryNestedAttributes(),
				},
			},
		},
	}
}

func (d *SearchDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	d.directory = directoryFromProviderData(req, resp)
}

func (d *SearchDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data SearchDataSourceModel

	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	searchReq, diags := d.searchRequest(ctx, &data)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	finish := ldapclient.LogDataSourceOperation(ctx, "aduc_search", "read", map[string]any{
		"base":   searchReq.BaseDN,
		"scope":  searchReq.Scope.String(),
		"filter": searchReq.Filter,
	})
	defer func() { finish(diagnosticsError(resp.Diagnostics)) }()

	entries, err := d.directory.Search(ctx, searchReq)
	if err != nil {
		resp.Diagnostics.AddError(
			"Error Searching Directory",
			fmt.Sprintf("Search of %s failed: %s", searchReq.BaseDN, err.Error()),
		)
		return
	}

	tflog.Debug(ctx, "Directory search completed", map[string]any{
		"entries": len(entries),
	})

	list, diags := entriesToList(ctx, entries)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	data.ID = types.StringValue(fmt.Sprintf("%s?%s?%s", searchReq.BaseDN, searchReq.Scope, searchReq.Filter))
	data.Entries = list

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// searchRequest builds the search from configuration, filling defaults.
func (d *SearchDataSource) searchRequest(ctx context.Context, data *SearchDataSourceModel) (*ldapclient.SearchRequest, diag.Diagnostics) {
	var diags diag.Diagnostics

	searchReq := &ldapclient.SearchRequest{
		BaseDN:    data.Base.ValueString(),
		Scope:     ldapclient.ScopeWholeSubtree,
		Filter:    data.Filter.ValueString(),
		SizeLimit: int(data.SizeLimit.ValueInt64()),
	}
	if searchReq.BaseDN == "" {
		searchReq.BaseDN = d.directory.BindDN()
	}
	if searchReq.Filter == "" {
		searchReq.Filter = "(objectClass=*)"
	}

	if scope := data.Scope.ValueString(); scope != "" {
		parsed, err := ldapclient.ParseScope(scope)
		if err != nil {
			diags.AddAttributeError(path.Root("scope"), "Invalid Search Scope", err.Error())
			return nil, diags
		}
		searchReq.Scope = parsed
	}

	attrs, listDiags := helpers.StringsFromList(ctx, data.Attributes)
	diags.Append(listDiags...)
	searchReq.Attributes = attrs

	return searchReq, diags
}
