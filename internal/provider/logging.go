package provider

import (
	"context"
	"errors"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// initializeLogging initializes the provider and ldap subsystems.
// Call it at the beginning of each data source Read method and each
// resource Create/Read/Update/Delete/ImportState method, and pass the
// returned context to the directory.
func initializeLogging(ctx context.Context) context.Context {
	// Pattern: TF_LOG_PROVIDER_ADUC_<SUBSYSTEM>
	ctx = tflog.NewSubsystem(ctx, "provider",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_ADUC_PROVIDER"))
	return tflog.NewSubsystem(ctx, "ldap",
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_ADUC_LDAP"))
}

// diagnosticsError folds error diagnostics into a single error for
// operation logging. It returns nil when there are no errors.
func diagnosticsError(diags diag.Diagnostics) error {
	var errs []error
	for _, d := range diags.Errors() {
		errs = append(errs, errors.New(d.Summary()+": "+d.Detail()))
	}
	return errors.Join(errs...)
}
