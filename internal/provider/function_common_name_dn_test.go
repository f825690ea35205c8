package provider_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isometry/terraform-provider-aduc/internal/provider"
)

func runCommonNameDN(cn, container string) (string, *function.FuncError) {
	req := function.RunRequest{
		Arguments: function.NewArgumentsData([]attr.Value{
			types.StringValue(cn),
			types.StringValue(container),
		}),
	}
	resp := function.RunResponse{
		Result: function.NewResultData(types.StringUnknown()),
	}

	provider.CommonNameDNFunction{}.Run(context.Background(), req, &resp)
	if resp.Error != nil {
		return "", resp.Error
	}

	return resp.Result.Value().(types.String).ValueString(), nil
}

func TestCommonNameDNFunction_Metadata(t *testing.T) {
	var resp function.MetadataResponse
	provider.CommonNameDNFunction{}.Metadata(context.Background(), function.MetadataRequest{}, &resp)

	assert.Equal(t, "common_name_dn", resp.Name)
}

func TestCommonNameDNFunction_Run(t *testing.T) {
	dn, err := runCommonNameDN("Jane Doe", "CN=Users,DC=example,DC=com")
	require.Nil(t, err)
	assert.Equal(t, "CN=Jane Doe,CN=Users,DC=example,DC=com", dn)

	dn, err = runCommonNameDN("Doe, Jane", "OU=Staff,DC=example,DC=com")
	require.Nil(t, err)
	assert.Equal(t, `CN=Doe\, Jane,OU=Staff,DC=example,DC=com`, dn)
}

func TestCommonNameDNFunction_Errors(t *testing.T) {
	_, err := runCommonNameDN("", "CN=Users,DC=example,DC=com")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "cn cannot be empty")

	_, err = runCommonNameDN("Jane", "not a dn")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "invalid container")
}
