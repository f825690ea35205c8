package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ErrorCategory represents different categories of LDAP errors.
type ErrorCategory string

const (
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// Errors reported before any request reaches the directory.
var (
	ErrMissingCommonName    = errors.New("attributes must include cn")
	ErrPasswordMismatch     = errors.New("password and confirmation do not match")
	ErrUnknownContainerKind = errors.New("unknown well-known container kind")
	ErrContainerNotFound    = errors.New("well-known container not found")
	ErrEmptyDN              = errors.New("DN cannot be empty")
)

// LDAPError provides enhanced error information for LDAP operations.
type LDAPError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	LDAPCode  uint16        // LDAP result code
	Message   string        // Human-readable message
	ServerMsg string        // Server-provided message
	DN        string        // DN involved in the operation (if applicable)
	Cause     error         // Underlying error
}

func (e *LDAPError) Error() string {
	var parts []string

	if e.LDAPCode > 0 {
		parts = append(parts, fmt.Sprintf("LDAP %s failed (code %d)", e.Operation, e.LDAPCode))
	} else {
		parts = append(parts, fmt.Sprintf("LDAP %s failed", e.Operation))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.ServerMsg != "" && e.ServerMsg != e.Message {
		parts = append(parts, fmt.Sprintf("server: %s", e.ServerMsg))
	}

	if e.DN != "" {
		parts = append(parts, fmt.Sprintf("DN: %s", e.DN))
	}

	return strings.Join(parts, " - ")
}

func (e *LDAPError) Unwrap() error {
	return e.Cause
}

// NewLDAPError classifies err as the failure of operation.
func NewLDAPError(operation string, err error) *LDAPError {
	if err == nil {
		return nil
	}

	ldapErr := &LDAPError{
		Operation: operation,
		Cause:     err,
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		ldapErr.LDAPCode = resultErr.ResultCode
		ldapErr.Category = categorizeError(resultErr.ResultCode)
		ldapErr.Message = resultCodeMessage(resultErr.ResultCode)
		if resultErr.Err != nil {
			ldapErr.ServerMsg = resultErr.Err.Error()
		}
	} else {
		ldapErr.Category = categorizeGenericError(err)
		ldapErr.Message = err.Error()
	}

	return ldapErr
}

// newValidationError reports a request rejected before any network I/O.
func newValidationError(operation, dn string, cause error) *LDAPError {
	return &LDAPError{
		Operation: operation,
		Category:  ErrorCategoryValidation,
		Message:   cause.Error(),
		DN:        dn,
		Cause:     cause,
	}
}

// newConnectionError reports a failure to reach the server.
func newConnectionError(operation, url string, cause error) *LDAPError {
	return &LDAPError{
		Operation: operation,
		Category:  ErrorCategoryConnection,
		Message:   fmt.Sprintf("failed to connect to %s", url),
		ServerMsg: cause.Error(),
		Cause:     cause,
	}
}

// resultCategories maps the result codes this package distinguishes. Codes
// not listed are ErrorCategoryUnknown.
var resultCategories = map[uint16]ErrorCategory{
	ldap.LDAPResultInvalidCredentials:          ErrorCategoryAuthentication,
	ldap.LDAPResultInappropriateAuthentication: ErrorCategoryAuthentication,
	ldap.LDAPResultStrongAuthRequired:          ErrorCategoryAuthentication,
	ldap.LDAPResultAuthMethodNotSupported:      ErrorCategoryAuthentication,
	ldap.ErrorEmptyPassword:                    ErrorCategoryAuthentication,

	ldap.LDAPResultInsufficientAccessRights: ErrorCategoryPermission,

	ldap.LDAPResultNoSuchObject:           ErrorCategoryNotFound,
	ldap.LDAPResultNoSuchAttribute:        ErrorCategoryNotFound,
	ldap.LDAPResultUndefinedAttributeType: ErrorCategoryNotFound,

	ldap.LDAPResultEntryAlreadyExists:     ErrorCategoryConflict,
	ldap.LDAPResultAttributeOrValueExists: ErrorCategoryConflict,
	ldap.LDAPResultObjectClassViolation:   ErrorCategoryConflict,
	ldap.LDAPResultNotAllowedOnNonLeaf:    ErrorCategoryConflict,

	ldap.LDAPResultInvalidAttributeSyntax: ErrorCategoryValidation,
	ldap.LDAPResultConstraintViolation:    ErrorCategoryValidation,
	ldap.LDAPResultUnwillingToPerform:     ErrorCategoryValidation, // AD's answer to a password that fails policy
	ldap.LDAPResultInvalidDNSyntax:        ErrorCategoryValidation,
	ldap.LDAPResultNamingViolation:        ErrorCategoryValidation,
	ldap.LDAPResultFilterError:            ErrorCategoryValidation,
	ldap.ErrorFilterCompile:               ErrorCategoryValidation,

	ldap.LDAPResultServerDown:         ErrorCategoryServer,
	ldap.LDAPResultUnavailable:        ErrorCategoryServer,
	ldap.LDAPResultBusy:               ErrorCategoryServer,
	ldap.LDAPResultTimeLimitExceeded:  ErrorCategoryServer,
	ldap.LDAPResultAdminLimitExceeded: ErrorCategoryServer,
	ldap.LDAPResultSizeLimitExceeded:  ErrorCategoryServer,

	ldap.LDAPResultConnectError:  ErrorCategoryConnection,
	ldap.LDAPResultProtocolError: ErrorCategoryConnection,
	ldap.ErrorNetwork:            ErrorCategoryConnection,
}

func categorizeError(code uint16) ErrorCategory {
	if category, ok := resultCategories[code]; ok {
		return category
	}
	return ErrorCategoryUnknown
}

// Errors without a result code (dial failures, Kerberos, wrapped stdlib
// errors) are classified by the first matching keyword.
var genericErrorKeywords = []struct {
	category ErrorCategory
	keywords []string
}{
	{ErrorCategoryConnection, []string{"connection", "network", "timeout", "broken pipe"}},
	{ErrorCategoryAuthentication, []string{"authentication", "credentials", "kerberos"}},
	{ErrorCategoryPermission, []string{"permission", "denied"}},
}

func categorizeGenericError(err error) ErrorCategory {
	msg := strings.ToLower(err.Error())

	for _, rule := range genericErrorKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(msg, keyword) {
				return rule.category
			}
		}
	}

	return ErrorCategoryUnknown
}

// resultCodeMessage returns go-ldap's description of code.
func resultCodeMessage(code uint16) string {
	if msg, ok := ldap.LDAPResultCodeMap[code]; ok {
		return msg
	}
	return fmt.Sprintf("LDAP error (code %d)", code)
}

// WrapError wraps err with operation context unless it is already an *LDAPError.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		if ldapErr.Operation == "" {
			ldapErr.Operation = operation
		}
		return err
	}

	return NewLDAPError(operation, err)
}

// wrapDNError is WrapError with the target DN recorded.
func wrapDNError(operation, dn string, err error) error {
	wrapped := WrapError(operation, err)

	var ldapErr *LDAPError
	if errors.As(wrapped, &ldapErr) && ldapErr.DN == "" {
		ldapErr.DN = dn
	}

	return wrapped
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var ldapErr *LDAPError
	if errors.As(err, &ldapErr) {
		return ldapErr.Category
	}

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		return categorizeError(resultErr.ResultCode)
	}

	return categorizeGenericError(err)
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsConflictError checks if an error indicates a conflict (already exists).
func IsConflictError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConflict
}

// IsAuthenticationError checks if an error indicates an authentication problem.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}

// IsPermissionError checks if an error indicates a permission problem.
func IsPermissionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryPermission
}

// IsConnectionError checks if an error indicates the server could not be reached.
func IsConnectionError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConnection
}

// IsValidationError checks if an error was raised by local input validation
// or rejected by the server as malformed.
func IsValidationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryValidation
}
