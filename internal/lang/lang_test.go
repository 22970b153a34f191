package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableSize(t *testing.T) {
	assert.Equal(t, 98, Count())
}

func TestLookupRoundTrip(t *testing.T) {
	for code, name := range Names {
		got, ok := CodeForName(name)
		assert.True(t, ok, "name %q has no code", name)
		assert.Equal(t, code, got)
	}
}

func TestCodeForName(t *testing.T) {
	code, ok := CodeForName("English")
	assert.True(t, ok)
	assert.Equal(t, "eng", code)

	code, ok = CodeForName("Hindi")
	assert.True(t, ok)
	assert.Equal(t, "hin", code)

	_, ok = CodeForName("Klingon")
	assert.False(t, ok)

	// Lookup is by display name, not code.
	_, ok = CodeForName("eng")
	assert.False(t, ok)
}

func TestCodesSortedAndSupported(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, Count())
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}
	for _, code := range codes {
		assert.True(t, IsSupportedCode(code))
	}
}
