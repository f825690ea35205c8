package ldap

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// PasswordAttribute is the write-only attribute holding an account password.
const PasswordAttribute = "unicodePwd"

// EncodePassword produces the unicodePwd value for password: the password in
// double quotes, transcoded to UTF-16LE, then base64 encoded.
func EncodePassword(password string) (string, error) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	quoted, err := encoder.String(`"` + password + `"`)
	if err != nil {
		return "", fmt.Errorf("failed to encode password as UTF-16LE: %w", err)
	}

	return base64.StdEncoding.EncodeToString([]byte(quoted)), nil
}
