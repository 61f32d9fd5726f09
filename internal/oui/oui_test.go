package oui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMacSeparatorsAndCase(t *testing.T) {
	variants := []string{
		"8c:1f:64:aa:bb:cc",
		"8C:1F:64:AA:BB:CC",
		"8c-1f-64-aa-bb-cc",
		"8C-1F-64-aa-BB-cc",
		"  8c:1f:64:aa:bb:cc ",
	}
	for _, v := range variants {
		assert.Equal(t, "8C:1F:64:AA:BB:CC", NormalizeMac(v), "input %q", v)
	}
}

func TestNormalizeMacRejectsGarbage(t *testing.T) {
	for _, v := range []string{"", "not-a-mac", "8C:1F:64:AA:BB", "8C:1F:64:AA:BB:CC:DD", "zz:1f:64:aa:bb:cc"} {
		assert.Empty(t, NormalizeMac(v), "input %q", v)
	}
}

func TestLookupVendorIdempotent(t *testing.T) {
	first := LookupVendor("8C:1F:64:AA:BB:CC")
	second := LookupVendor("8C:1F:64:AA:BB:CC")
	assert.Equal(t, "Dasscom", first)
	assert.Equal(t, first, second)
}

func TestLookupVendorUnknown(t *testing.T) {
	assert.Equal(t, UnknownVendor, LookupVendor("02:00:00:00:00:01"))
	assert.Equal(t, UnknownVendor, LookupVendor("garbage"))
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("8c-1f-64-0a-0b-0c", DasscomOUI))
	assert.True(t, HasPrefix("8C:1F:64:0A:0B:0C", "8c-1f-64"))
	assert.False(t, HasPrefix("00:00:0C:0A:0B:0C", DasscomOUI))
	assert.False(t, HasPrefix("", DasscomOUI))
}
