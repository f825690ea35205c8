package ldap_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/isometry/terraform-provider-aduc/internal/ldap"
)

// ExampleDirectory_AddUser shows creating a user in the well-known Users container.
func ExampleDirectory_AddUser() {
	cfg, err := ldap.NewConnectionConfig("ldaps://dc1.example.com", "DC=example,DC=com", "administrator@example.com", "password")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	dir, err := ldap.NewDirectory(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	dn, err := dir.AddUser(ctx, ldap.Attributes{
		"cn":             {"Jane Doe"},
		"sAMAccountName": {"jdoe"},
		"givenName":      {"Jane"},
		"sn":             {"Doe"},
	}, "S3cret!", "S3cret!", &ldap.UserOptions{MustChangePassword: true})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("created", dn)
}

func ExampleUserAccountControl() {
	fmt.Println(ldap.UserAccountControl(ldap.UserOptions{}))
	fmt.Println(ldap.UserAccountControl(ldap.UserOptions{PasswordNeverExpires: true, AccountDisabled: true}))
	// Output:
	// 512
	// 66050
}

func ExampleEncodePassword() {
	encoded, err := ldap.EncodePassword("ab")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(encoded)
	// Output: IgBhAGIAIgA=
}

func ExampleCommonNameDN() {
	fmt.Println(ldap.CommonNameDN("Doe, Jane", "CN=Users,DC=example,DC=com"))
	// Output: CN=Doe\, Jane,CN=Users,DC=example,DC=com
}

func ExampleParseContainerKind() {
	kind, err := ldap.ParseContainerKind("DCs")
	if err != nil {
		log.Fatal(err)
	}
	guid, _ := kind.GUID()
	fmt.Println(kind, guid)

	_, err = ldap.ParseContainerKind("printers")
	fmt.Println(errors.Is(err, ldap.ErrUnknownContainerKind))
	// Output:
	// dcs A361B2FFFFD211D1AA4B00C04FD7D83A
	// true
}
