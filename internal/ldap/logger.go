package ldap

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// LogOperation is a helper function to log an operation with timing.
// Failures are logged at debug level; the error is always returned to the caller.
func LogOperation(ctx context.Context, subsystem, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	logFields := make(map[string]any, len(fields)+3)
	maps.Copy(logFields, SanitizeFields(fields))
	logFields["operation"] = operation

	tflog.SubsystemDebug(ctx, subsystem, "Starting operation", logFields)

	err := fn()

	logFields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		logFields["error"] = err.Error()
		tflog.SubsystemDebug(ctx, subsystem, "Operation failed", logFields)
	} else {
		tflog.SubsystemDebug(ctx, subsystem, "Operation completed successfully", logFields)
	}

	return err
}

// LogLDAPError logs LDAP-specific error information.
func LogLDAPError(ctx context.Context, subsystem string, operation string, err error, fields map[string]any) {
	logFields := make(map[string]any, len(fields)+5)
	maps.Copy(logFields, SanitizeFields(fields))
	logFields["operation"] = operation
	logFields["error"] = err.Error()

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		logFields["ldap_result_code"] = resultErr.ResultCode
		if resultErr.MatchedDN != "" {
			logFields["ldap_matched_dn"] = resultErr.MatchedDN
		}
		if resultErr.Err != nil {
			logFields["ldap_diagnostic_message"] = resultErr.Err.Error()
		}
	}

	tflog.SubsystemDebug(ctx, subsystem, "LDAP operation failed", logFields)
}

// LogConnectionEvent logs session lifecycle events on the ldap subsystem.
func LogConnectionEvent(ctx context.Context, event string, fields map[string]any) {
	logFields := make(map[string]any, len(fields)+1)
	maps.Copy(logFields, SanitizeFields(fields))
	logFields["event"] = event

	switch event {
	case "connection_failed", "authentication_failed", "close_failed":
		tflog.SubsystemDebug(ctx, "ldap", "Connection event", logFields)
	default:
		tflog.SubsystemTrace(ctx, "ldap", "Connection event", logFields)
	}
}

var sensitiveKeys = map[string]bool{
	"password":         true,
	"passwd":           true,
	"confirm_password": true,
	"unicodepwd":       true,
	"secret":           true,
	"token":            true,
	"key":              true,
	"private_key":      true,
	"credential":       true,
	"credentials":      true,
}

// SanitizeFields returns a copy of fields with sensitive values redacted.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any, len(fields))

	for k, v := range fields {
		if sensitiveKeys[strings.ToLower(k)] {
			sanitized[k] = "[REDACTED]"
			continue
		}
		if str, ok := v.(string); ok && containsSensitivePattern(str) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		sanitized[k] = v
	}

	return sanitized
}

func containsSensitivePattern(s string) bool {
	patterns := []string{
		"password=",
		"passwd=",
		"unicodepwd=",
		"secret=",
		"token=",
	}

	lower := strings.ToLower(s)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// LogResourceOperation provides standardized entry/exit logging for Terraform resource operations.
func LogResourceOperation(ctx context.Context, resource, operation string, fields map[string]any) func(error) {
	return logProviderOperation(ctx, "resource", resource, operation, fields)
}

// LogDataSourceOperation provides standardized entry/exit logging for Terraform data source operations.
func LogDataSourceOperation(ctx context.Context, dataSource, operation string, fields map[string]any) func(error) {
	return logProviderOperation(ctx, "data_source", dataSource, operation, fields)
}

func logProviderOperation(ctx context.Context, kind, name, operation string, fields map[string]any) func(error) {
	start := time.Now()
	label := strings.ReplaceAll(kind, "_", " ")

	entryFields := make(map[string]any, len(fields)+2)
	maps.Copy(entryFields, SanitizeFields(fields))
	entryFields[kind] = name
	entryFields["operation"] = operation

	tflog.SubsystemDebug(ctx, "provider", "Starting "+label+" operation", entryFields)

	return func(err error) {
		exitFields := maps.Clone(entryFields)
		exitFields["duration_ms"] = time.Since(start).Milliseconds()
		exitFields["has_error"] = err != nil

		if err != nil {
			exitFields["error"] = err.Error()
			tflog.SubsystemError(ctx, "provider", strings.ToUpper(label[:1])+label[1:]+" operation failed", exitFields)
			return
		}

		tflog.SubsystemDebug(ctx, "provider", strings.ToUpper(label[:1])+label[1:]+" operation completed", exitFields)
	}
}
