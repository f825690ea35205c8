package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// EscapeDNValue escapes an attribute value for use in a DN (RFC 4514):
// the characters , + " \ < > ; always, a leading #, leading and trailing
// spaces, and NUL as \00.
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	for i, r := range value {
		switch r {
		case ',', '+', '"', '\\', '<', '>', ';':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '#':
			if i == 0 {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		case ' ':
			if i == 0 || i == len(value)-1 {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		case 0:
			b.WriteString("\\00")
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// CommonNameDN returns CN=<cn>,<container> with cn escaped.
func CommonNameDN(cn, container string) string {
	return "CN=" + EscapeDNValue(cn) + "," + container
}

// ValidateDNSyntax validates that a string is a properly formatted Distinguished Name.
func ValidateDNSyntax(dn string) error {
	if strings.TrimSpace(dn) == "" {
		return ErrEmptyDN
	}

	if _, err := ldap.ParseDN(dn); err != nil {
		return fmt.Errorf("invalid DN syntax: %w", err)
	}

	return nil
}

// NormalizeDNCase upper-cases attribute types, leaving values as given.
// "cn=john,ou=users,dc=example,dc=com" becomes "CN=john,OU=users,DC=example,DC=com".
func NormalizeDNCase(dn string) (string, error) {
	dn = strings.TrimSpace(dn)
	if dn == "" {
		return "", nil
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	return formatDN(parsed.RDNs), nil
}

// DNsEqual compares two DNs ignoring attribute type and value case.
func DNsEqual(a, b string) bool {
	pa, errA := ldap.ParseDN(a)
	pb, errB := ldap.ParseDN(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return pa.EqualFold(pb)
}

// GetDNParent returns dn without its first RDN.
// "CN=John,OU=Users,DC=example,DC=com" becomes "OU=Users,DC=example,DC=com".
func GetDNParent(dn string) (string, error) {
	if dn == "" {
		return "", ErrEmptyDN
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	if len(parsed.RDNs) <= 1 {
		return "", fmt.Errorf("DN has no parent: %s", dn)
	}

	return formatDN(parsed.RDNs[1:]), nil
}

// ExtractRDNValue returns the unescaped value of the first RDN component of
// type attrType, e.g. "John Doe" for CN in "CN=John Doe,OU=Users,DC=example,DC=com".
func ExtractRDNValue(dn, attrType string) (string, error) {
	if dn == "" {
		return "", ErrEmptyDN
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, attrType) {
				return attr.Value, nil
			}
		}
	}

	return "", fmt.Errorf("attribute type '%s' not found in DN '%s'", attrType, dn)
}

// RDNValue returns the unescaped value naming dn, e.g. "Staff" for
// "OU=Staff,DC=example,DC=com".
func RDNValue(dn string) (string, error) {
	if dn == "" {
		return "", ErrEmptyDN
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}
	if len(parsed.RDNs) == 0 || len(parsed.RDNs[0].Attributes) == 0 {
		return "", fmt.Errorf("DN has no RDN: %s", dn)
	}

	return parsed.RDNs[0].Attributes[0].Value, nil
}

func formatDN(rdns []*ldap.RelativeDN) string {
	parts := make([]string, 0, len(rdns))
	for _, rdn := range rdns {
		attrs := make([]string, 0, len(rdn.Attributes))
		for _, attr := range rdn.Attributes {
			attrs = append(attrs, strings.ToUpper(attr.Type)+"="+EscapeDNValue(attr.Value))
		}
		parts = append(parts, strings.Join(attrs, "+"))
	}
	return strings.Join(parts, ",")
}
