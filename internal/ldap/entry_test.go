package ldap

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	sid := []byte{1, 5, 0, 0, 0, 0, 0, 5, 21, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 244, 1, 0, 0}
	guid := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

	raw := &ldap.Entry{
		DN: "CN=Administrator,CN=Users," + testBindDN,
		Attributes: []*ldap.EntryAttribute{
			{Name: "cn", Values: []string{"Administrator"}, ByteValues: [][]byte{[]byte("Administrator")}},
			{Name: "memberOf", Values: []string{"CN=B", "CN=A"}, ByteValues: [][]byte{[]byte("CN=B"), []byte("CN=A")}},
			{Name: "objectSid", Values: []string{string(sid)}, ByteValues: [][]byte{sid}},
			{Name: "objectGUID", Values: []string{string(guid)}, ByteValues: [][]byte{guid}},
		},
	}

	entry := NewEntry(raw)

	assert.Equal(t, raw.DN, entry.DN)
	assert.Equal(t, "Administrator", entry.GetAttributeValue("CN"))
	assert.Equal(t, []string{"CN=B", "CN=A"}, entry.GetAttributeValues("memberof"), "value order preserved")
	assert.Equal(t, "S-1-5-21-1-2-3-500", entry.GetAttributeValue("objectSid"))
	assert.Equal(t, "03020100-0504-0706-0809-0a0b0c0d0e0f", entry.GetAttributeValue("objectGUID"))
	assert.False(t, entry.HasAttribute("mail"))
}

func TestNewEntryMalformedBinaryFallsBackToRaw(t *testing.T) {
	raw := &ldap.Entry{
		DN: "CN=x," + testBindDN,
		Attributes: []*ldap.EntryAttribute{
			{Name: "objectGUID", Values: []string{"short"}, ByteValues: [][]byte{[]byte("short")}},
			{Name: "objectSid", Values: []string{"\x01\x09"}, ByteValues: [][]byte{{1, 9}}},
		},
	}

	entry := NewEntry(raw)

	assert.Equal(t, "short", entry.GetAttributeValue("objectGUID"))
	assert.Equal(t, "\x01\x09", entry.GetAttributeValue("objectSid"))
}

func TestNewEntryEncodesBinaryValues(t *testing.T) {
	photo := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	logonHours := []byte{0xff, 0xff, 0xff}

	raw := &ldap.Entry{
		DN: "CN=Jane,CN=Users," + testBindDN,
		Attributes: []*ldap.EntryAttribute{
			{Name: "thumbnailPhoto", Values: []string{string(photo)}, ByteValues: [][]byte{photo}},
			{Name: "logonHours", Values: []string{string(logonHours)}, ByteValues: [][]byte{logonHours}},
			{Name: "description", Values: []string{"Größe"}, ByteValues: [][]byte{[]byte("Größe")}},
			{Name: "objectGUID", Values: []string{"\xff\xfe"}, ByteValues: [][]byte{{0xff, 0xfe}}},
		},
	}

	entry := NewEntry(raw)

	assert.Equal(t, "/9j/4AAQ", entry.GetAttributeValue("thumbnailPhoto"))
	assert.Equal(t, "////", entry.GetAttributeValue("logonHours"))
	assert.Equal(t, "Größe", entry.GetAttributeValue("description"))
	assert.Equal(t, "//4=", entry.GetAttributeValue("objectGUID"), "undecodable GUID is encoded")
}

func TestAttributes(t *testing.T) {
	attrs := Attributes{"CN": {"Jane"}, "description": {"", "second"}}

	assert.True(t, attrs.Has("cn"))
	assert.Equal(t, "Jane", attrs.Get("cn"))
	assert.Equal(t, "second", attrs.Get("description"), "Get skips empty values")
	assert.False(t, attrs.Has("mail"))

	attrs.Set("cn", "John")
	assert.Equal(t, []string{"John"}, attrs["cn"])
	_, stale := attrs["CN"]
	assert.False(t, stale, "Set replaces differently-cased keys")

	clone := attrs.Clone()
	clone["cn"][0] = "changed"
	assert.Equal(t, "John", attrs.Get("cn"), "Clone is deep")

	empty := Attributes{"cn": {""}}
	assert.False(t, empty.Has("cn"))
}
