package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
	"github.com/isometry/terraform-provider-aduc/internal/provider/helpers"
)

// entryAttrTypes is the object type of one directory entry in data source results.
var entryAttrTypes = map[string]attr.Type{
	"dn":     types.StringType,
	"values": helpers.AttributeValuesType,
}

// entryNestedAttributes is the schema of one entry in a result list.
func entryNestedAttributes() map[string]schema.Attribute {
	return map[string]schema.Attribute{
		"dn": schema.StringAttribute{
			MarkdownDescription: "The distinguished name of the entry.",
			Computed:            true,
		},
		"values": schema.MapAttribute{
			MarkdownDescription: "The returned attributes, keyed by name as reported by the server.",
			Computed:            true,
			ElementType:         helpers.AttributeValuesType.ElemType,
		},
	}
}

// entriesToList converts search results into a list of {dn, values} objects,
// preserving server order.
func entriesToList(ctx context.Context, entries []*ldapclient.Entry) (types.List, diag.Diagnostics) {
	var diags diag.Diagnostics
	elemType := types.ObjectType{AttrTypes: entryAttrTypes}

	elements := make([]attr.Value, 0, len(entries))
	for _, entry := range entries {
		values, d := helpers.AttributesToMap(ctx, entry.Attributes)
		diags.Append(d...)
		if diags.HasError() {
			return types.ListNull(elemType), diags
		}

		obj, d := types.ObjectValue(entryAttrTypes, map[string]attr.Value{
			"dn":     types.StringValue(entry.DN),
			"values": values,
		})
		diags.Append(d...)
		if diags.HasError() {
			return types.ListNull(elemType), diags
		}
		elements = append(elements, obj)
	}

	list, d := types.ListValue(elemType, elements)
	diags.Append(d...)
	return list, diags
}

// directoryFromProviderData extracts the configured directory for a data source.
func directoryFromProviderData(req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) *ldapclient.Directory {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return nil
	}

	directory, ok := req.ProviderData.(*ldapclient.Directory)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *ldapclient.Directory, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)
		return nil
	}

	return directory
}
