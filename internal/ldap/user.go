package ldap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// userAccountControl flags written by AddUser.
const (
	UACAccountDisabled      int32 = 0x00000002 // Account is disabled
	UACPasswordCantChange   int32 = 0x00000040 // User cannot change password
	UACNormalAccount        int32 = 0x00000200 // Normal user account
	UACPasswordNeverExpires int32 = 0x00010000 // Password never expires
)

// pwdLastSet values: 0 forces a change at next logon, -1 stamps the current time.
const (
	PwdLastSetMustChange = "0"
	PwdLastSetNow        = "-1"
)

// UserObjectClasses are set on every user; InetOrgPersonClass is appended on request.
var UserObjectClasses = []string{"top", "person", "organizationalPerson", "user"}

const InetOrgPersonClass = "inetOrgPerson"

// UserOptions are the account flags applied when a user is created.
type UserOptions struct {
	MustChangePassword   bool // Expire the password so it must be changed at next logon
	CannotChangePassword bool // Ignored when PasswordNeverExpires is set
	PasswordNeverExpires bool
	AccountDisabled      bool
	InetOrgPerson        bool // Add the inetOrgPerson object class

	// Container is the DN the user is created under.
	Container string
	// DefaultContainer is resolved when Container is empty.
	DefaultContainer ContainerKind `default:"users"`
}

// UserAccountControl computes the userAccountControl value for opts.
func UserAccountControl(opts UserOptions) int32 {
	uac := UACNormalAccount
	if opts.CannotChangePassword && !opts.PasswordNeverExpires {
		uac |= UACPasswordCantChange
	}
	if opts.PasswordNeverExpires {
		uac |= UACPasswordNeverExpires
	}
	if opts.AccountDisabled {
		uac |= UACAccountDisabled
	}
	return uac
}

// PwdLastSet returns the pwdLastSet value for the must-change flag.
func PwdLastSet(mustChange bool) string {
	if mustChange {
		return PwdLastSetMustChange
	}
	return PwdLastSetNow
}

// UserManager creates user accounts and sets their passwords.
type UserManager struct {
	client   Client
	resolver *WellKnownResolver
}

// NewUserManager creates a manager writing through client.
func NewUserManager(client Client) *UserManager {
	return &UserManager{
		client:   client,
		resolver: NewWellKnownResolver(client),
	}
}

// AddUser creates a user from attrs, which must include cn, then sets its
// password. password and confirm must match; nothing is sent otherwise.
// The DN is returned even when only the password step fails.
func (m *UserManager) AddUser(ctx context.Context, attrs Attributes, password, confirm string, opts *UserOptions) (string, error) {
	if password != confirm {
		return "", newValidationError("add_user", "", ErrPasswordMismatch)
	}

	options := UserOptions{}
	if opts != nil {
		options = *opts
	}
	if err := defaults.Set(&options); err != nil {
		return "", fmt.Errorf("failed to apply user defaults: %w", err)
	}

	objectClasses := append([]string(nil), UserObjectClasses...)
	if options.InetOrgPerson {
		objectClasses = append(objectClasses, InetOrgPersonClass)
	}

	entry, cn, err := personAttributes("add_user", attrs, m.client.BindDN(), objectClasses)
	if err != nil {
		return "", err
	}

	uac := UserAccountControl(options)
	entry.Set("userAccountControl", strconv.FormatInt(int64(uac), 10))
	entry.Set("pwdLastSet", PwdLastSet(options.MustChangePassword))

	container, err := containerOrWellKnown(ctx, m.resolver, options.Container, options.DefaultContainer)
	if err != nil {
		return "", err
	}

	dn := CommonNameDN(cn, container)
	entry.Set("distinguishedName", dn)

	tflog.SubsystemDebug(ctx, "ldap", "Creating user", map[string]any{
		"dn":                   dn,
		"container":            container,
		"user_account_control": uac,
		"must_change_password": options.MustChangePassword,
		"inet_org_person":      options.InetOrgPerson,
	})

	if err := m.client.Add(ctx, dn, entry); err != nil {
		return "", err
	}

	if err := m.SetPassword(ctx, dn, password); err != nil {
		return dn, err
	}

	return dn, nil
}

// SetPassword replaces the unicodePwd of dn.
func (m *UserManager) SetPassword(ctx context.Context, dn, password string) error {
	if dn == "" {
		return newValidationError("set_password", dn, ErrEmptyDN)
	}

	encoded, err := EncodePassword(password)
	if err != nil {
		return newValidationError("set_password", dn, err)
	}

	return m.client.Modify(ctx, dn, ReplaceChange(PasswordAttribute, encoded))
}
