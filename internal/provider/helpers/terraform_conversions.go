// Package helpers provides conversions between Terraform framework values
// and the directory types used by resources and data sources.
package helpers

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

// AttributeValuesType is the Terraform type of an LDAP attribute map:
// attribute name to its list of values.
var AttributeValuesType = types.MapType{ElemType: types.ListType{ElemType: types.StringType}}

// AttributesFromMap converts a map(list(string)) into directory attributes.
// A null or unknown map yields empty attributes.
func AttributesFromMap(ctx context.Context, value types.Map) (ldapclient.Attributes, diag.Diagnostics) {
	attrs := ldapclient.Attributes{}
	if value.IsNull() || value.IsUnknown() {
		return attrs, nil
	}

	var raw map[string][]string
	diags := value.ElementsAs(ctx, &raw, false)
	if diags.HasError() {
		return nil, diags
	}

	for name, values := range raw {
		attrs.Set(name, values...)
	}
	return attrs, diags
}

// AttributesToMap converts directory attributes into a map(list(string)).
func AttributesToMap(ctx context.Context, attrs map[string][]string) (types.Map, diag.Diagnostics) {
	if attrs == nil {
		attrs = map[string][]string{}
	}
	return types.MapValueFrom(ctx, AttributeValuesType.ElemType, attrs)
}

// RefreshAttributes returns the current values of the managed attribute
// names from entry, keyed by the names as configured. Values that match the
// configuration in any order keep the configured order, since the directory
// does not preserve it. Attributes the entry no longer carries are dropped
// so that Terraform plans to restore them, unless they were configured empty.
func RefreshAttributes(managed ldapclient.Attributes, entry *ldapclient.Entry) map[string][]string {
	refreshed := make(map[string][]string, len(managed))
	for name, configured := range managed {
		values := entry.GetAttributeValues(name)
		switch {
		case SameValues(configured, values):
			refreshed[name] = append([]string{}, configured...)
		case len(values) > 0:
			refreshed[name] = values
		}
	}
	return refreshed
}

// SameValues reports whether a and b hold the same values with the same
// multiplicity, ignoring order.
func SameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		if counts[v] == 0 {
			return false
		}
		counts[v]--
	}
	return true
}

// AttributeNames returns the sorted names of attrs.
func AttributeNames(attrs ldapclient.Attributes) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringsFromList converts a list(string) into a slice. A null or unknown
// list yields nil.
func StringsFromList(ctx context.Context, value types.List) ([]string, diag.Diagnostics) {
	if value.IsNull() || value.IsUnknown() {
		return nil, nil
	}

	var result []string
	diags := value.ElementsAs(ctx, &result, false)
	return result, diags
}

// StringsToList converts a slice into a list(string).
func StringsToList(values []string) types.List {
	elements := make([]attr.Value, len(values))
	for i, v := range values {
		elements[i] = types.StringValue(v)
	}
	return types.ListValueMust(types.StringType, elements)
}

// AttributeChanges computes the modify requests that turn the managed
// attributes in prior into those in planned. Attributes dropped from
// configuration are deleted; new or changed attributes are replaced.
// Reordering the values of an attribute is not a change.
func AttributeChanges(prior, planned ldapclient.Attributes) []ldapclient.Change {
	var changes []ldapclient.Change

	for _, name := range AttributeNames(planned) {
		values := planned[name]
		if !SameValues(prior.Values(name), values) {
			changes = append(changes, ldapclient.ReplaceChange(name, values...))
		}
	}

	for _, name := range AttributeNames(prior) {
		if !hasName(planned, name) {
			changes = append(changes, ldapclient.DeleteChange(name))
		}
	}

	return changes
}

func hasName(attrs ldapclient.Attributes, name string) bool {
	for k := range attrs {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
