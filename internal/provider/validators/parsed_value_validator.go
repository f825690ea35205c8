package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = parsedValueValidator{}

// parsedValueValidator accepts any value its parse function accepts. The
// parse functions used here ignore case, so "Users" and "USERS" are equal.
type parsedValueValidator struct {
	what    string
	allowed []string
	parse   func(string) error
}

// Description describes the validation in plain text.
func (v parsedValueValidator) Description(_ context.Context) string {
	return fmt.Sprintf("value must be a %s: one of %s (case-insensitive)", v.what, strings.Join(v.allowed, ", "))
}

// MarkdownDescription describes the validation in Markdown.
func (v parsedValueValidator) MarkdownDescription(_ context.Context) string {
	quoted := make([]string, len(v.allowed))
	for i, value := range v.allowed {
		quoted[i] = "`" + value + "`"
	}
	return fmt.Sprintf("value must be a %s: one of %s (case-insensitive)", v.what, strings.Join(quoted, ", "))
}

// ValidateString performs the validation.
func (v parsedValueValidator) ValidateString(_ context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if err := v.parse(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Value",
			fmt.Sprintf(
				"The value %q is not a valid %s. Must be one of: %s (case-insensitive)",
				value,
				v.what,
				strings.Join(v.allowed, ", "),
			),
		)
	}
}

// IsContainerKind returns a validator which ensures that any configured
// attribute value names a well-known container kind (system, computers,
// dcs or users).
func IsContainerKind() validator.String {
	kinds := ldapclient.ContainerKinds()
	allowed := make([]string, len(kinds))
	for i, kind := range kinds {
		allowed[i] = string(kind)
	}

	return parsedValueValidator{
		what:    "well-known container kind",
		allowed: allowed,
		parse: func(s string) error {
			_, err := ldapclient.ParseContainerKind(s)
			return err
		},
	}
}

// IsSearchScope returns a validator which ensures that any configured
// attribute value is a search scope accepted by ldapclient.ParseScope.
func IsSearchScope() validator.String {
	return parsedValueValidator{
		what:    "search scope",
		allowed: []string{"base", "one", "onelevel", "sub", "subtree"},
		parse: func(s string) error {
			_, err := ldapclient.ParseScope(s)
			return err
		},
	}
}
