/*
Package ldap provides the Active Directory Users and Computers operations
behind the aduc Terraform provider.

# Sessions

Every primitive on Client (Search, Add, Delete, Modify) opens its own
connection, binds with the configured credentials, performs one request and
closes the connection before returning. Nothing is pooled, cached or retried
between calls, so a Client is safe for concurrent use and a failed call
leaves no state behind.

Search streams results from the server. An error at any point, including
after some entries have arrived, fails the whole search and returns no
entries.

# Console Operations

Higher-level operations are built only from the primitives:

  - WellKnownResolver: locates the System, Computers, Domain Controllers and
    Users containers through the domain object's wellKnownObjects attribute
  - ObjectBrowser: lists child containers, reads one object, lists the
    objects shown inside a container
  - ContactManager: creates contacts
  - UserManager: creates users with account flags and sets passwords

Directory bundles all of them behind one constructor.

# Error Handling

Failures are returned as *LDAPError carrying a category (connection,
authentication, permission, not_found, conflict, validation, server).
Input rejected before any network I/O wraps one of the sentinel errors
(ErrMissingCommonName, ErrPasswordMismatch, ErrUnknownContainerKind,
ErrEmptyDN) and can be matched with errors.Is.

# Logging

The package logs through the tflog "ldap" subsystem at debug and trace
level only. Passwords and unicodePwd values are never logged.

# Example Usage

	cfg, err := ldap.NewConnectionConfig(
		"ldaps://dc1.example.com",
		"DC=example,DC=com",
		"administrator@example.com",
		"password",
	)
	if err != nil {
		return err
	}

	dir, err := ldap.NewDirectory(ctx, cfg)
	if err != nil {
		return err
	}

	dn, err := dir.AddUser(ctx, ldap.Attributes{
		"cn":             {"Jane Doe"},
		"sAMAccountName": {"jdoe"},
	}, "S3cret!", "S3cret!", &ldap.UserOptions{MustChangePassword: true})
*/
package ldap
