package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/function"

	ldapclient "github.com/isometry/terraform-provider-aduc/internal/ldap"
)

var _ function.Function = &CommonNameDNFunction{}

// CommonNameDNFunction implements the common_name_dn function.
type CommonNameDNFunction struct{}

// Metadata returns the function name.
func (f CommonNameDNFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "common_name_dn"
}

// Definition returns the function signature.
func (f CommonNameDNFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Build the DN of a named object in a container",
		Description: "Returns CN=<cn>,<container> with special characters in cn escaped, matching the DN aduc_user and aduc_contact create.",
		MarkdownDescription: "Returns `CN=<cn>,<container>` with special characters in `cn` escaped, " +
			"matching the DN `aduc_user` and `aduc_contact` create. For example, `Doe, Jane` becomes `CN=Doe\\, Jane,<container>`.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:        "cn",
				Description: "The common name of the object.",
			},
			function.StringParameter{
				Name:        "container",
				Description: "The distinguished name of the container.",
			},
		},
		Return: function.StringReturn{},
	}
}

// Run implements the function logic.
func (f CommonNameDNFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var cn, container string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &cn, &container))
	if resp.Error != nil {
		return
	}

	if cn == "" {
		resp.Error = function.NewArgumentFuncError(0, "cn cannot be empty")
		return
	}
	if err := ldapclient.ValidateDNSyntax(container); err != nil {
		resp.Error = function.NewArgumentFuncError(1, fmt.Sprintf("invalid container: %s", err.Error()))
		return
	}

	resp.Error = function.ConcatFuncErrors(resp.Error, resp.Result.Set(ctx, ldapclient.CommonNameDN(cn, container)))
}

// NewCommonNameDNFunction creates a new instance of the common_name_dn function.
func NewCommonNameDNFunction() function.Function {
	return &CommonNameDNFunction{}
}
