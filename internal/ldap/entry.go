package ldap

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/go-objectsid"
	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
)

// Entry is one search result: a DN and its attribute values in server order.
type Entry struct {
	DN         string
	Attributes Attributes
}

// GetAttributeValue returns the first value of name, or "".
func (e *Entry) GetAttributeValue(name string) string {
	return e.Attributes.Get(name)
}

// GetAttributeValues returns every value of name.
func (e *Entry) GetAttributeValues(name string) []string {
	return e.Attributes.Values(name)
}

// HasAttribute reports whether name was returned with a non-empty value.
func (e *Entry) HasAttribute(name string) bool {
	return e.Attributes.Has(name)
}

// binaryDecoders render binary attributes that are meaningless as raw strings.
var binaryDecoders = map[string]func([]byte) (string, error){
	"objectsid":  decodeObjectSID,
	"objectguid": decodeObjectGUID,
}

// NewEntry converts a go-ldap entry, decoding objectSid and objectGUID.
// Other values that are not valid UTF-8, such as thumbnailPhoto or
// mS-DS-ConsistencyGuid, are rendered as standard base64.
func NewEntry(e *ldap.Entry) *Entry {
	entry := &Entry{
		DN:         e.DN,
		Attributes: make(Attributes, len(e.Attributes)),
	}

	for _, attr := range e.Attributes {
		if len(attr.ByteValues) == 0 {
			entry.Attributes[attr.Name] = append([]string(nil), attr.Values...)
			continue
		}

		decode := binaryDecoders[strings.ToLower(attr.Name)]
		values := make([]string, 0, len(attr.ByteValues))
		for _, raw := range attr.ByteValues {
			values = append(values, renderValue(raw, decode))
		}
		entry.Attributes[attr.Name] = values
	}

	return entry
}

// renderValue applies decode when set, falling back to the raw value.
func renderValue(raw []byte, decode func([]byte) (string, error)) string {
	if decode != nil {
		if s, err := decode(raw); err == nil {
			return s
		}
	}
	if !utf8.Valid(raw) {
		return base64.StdEncoding.EncodeToString(raw)
	}
	return string(raw)
}

// decodeObjectSID renders a binary SID as S-1-5-21-...
func decodeObjectSID(b []byte) (string, error) {
	// revision, sub-authority count, 6-byte authority, 4 bytes per sub-authority
	if len(b) < 8 || len(b) != 8+4*int(b[1]) {
		return "", fmt.Errorf("invalid SID length %d", len(b))
	}
	return objectsid.Decode(b).String(), nil
}

// decodeObjectGUID renders a 16-byte AD GUID. The first three groups are
// little-endian on the wire.
func decodeObjectGUID(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("invalid GUID length %d", len(b))
	}

	swapped := make([]byte, 16)
	copy(swapped, b)
	swapped[0], swapped[1], swapped[2], swapped[3] = b[3], b[2], b[1], b[0]
	swapped[4], swapped[5] = b[5], b[4]
	swapped[6], swapped[7] = b[7], b[6]

	id, err := uuid.FromBytes(swapped)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
