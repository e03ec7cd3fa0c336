package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffDetectsBOMs(t *testing.T) {
	name, rest, err := Sniff([]byte{0xEF, 0xBB, 0xBF, 'a'})
	require.NoError(t, err)
	assert.Equal(t, UTF8, name)
	assert.Equal(t, []byte("a"), rest)

	name, rest, err = Sniff([]byte{0xFF, 0xFE, 'a', 0})
	require.NoError(t, err)
	assert.Equal(t, UTF16LE, name)
	assert.Equal(t, []byte{'a', 0}, rest)

	name, rest, err = Sniff([]byte{0xFE, 0xFF, 0, 'a'})
	require.NoError(t, err)
	assert.Equal(t, UTF16BE, name)
	assert.Equal(t, []byte{0, 'a'}, rest)
}

func TestSniffReadsDeclaredEncoding(t *testing.T) {
	name, _, err := Sniff([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><a/>`))
	require.NoError(t, err)
	assert.Equal(t, ISO88591, name)
}

func TestSniffDefaultsToUTF8(t *testing.T) {
	name, rest, err := Sniff([]byte(`<a/>`))
	require.NoError(t, err)
	assert.Equal(t, UTF8, name)
	assert.Equal(t, []byte(`<a/>`), rest)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Decode(UTF8, []byte{0xFF, 0xFE})
	require.Error(t, err)
}

func TestDecodeRejectsNonASCIIUnderASCII(t *testing.T) {
	_, err := Decode(ASCII, []byte{0x80})
	require.Error(t, err)
}

func TestDecodeISO88591RoundTripsToUTF8(t *testing.T) {
	out, err := Decode(ISO88591, []byte{0xE9}) // é
	require.NoError(t, err)
	assert.Equal(t, "é", string(out))
}

func TestIsNameStartCharAndNameChar(t *testing.T) {
	assert.True(t, IsNameStartChar('a'))
	assert.True(t, IsNameStartChar('_'))
	assert.False(t, IsNameStartChar('-'))
	assert.False(t, IsNameStartChar('1'))

	assert.True(t, IsNameChar('1'))
	assert.True(t, IsNameChar('-'))
	assert.True(t, IsNameChar('.'))
	assert.False(t, IsNameChar(' '))
}

func TestIsSpaceAndIsChar(t *testing.T) {
	assert.True(t, IsSpace(' '))
	assert.True(t, IsSpace('\t'))
	assert.True(t, IsSpace('\n'))
	assert.False(t, IsSpace('a'))

	assert.True(t, IsChar('a'))
	assert.False(t, IsChar(0x0))
	assert.False(t, IsChar(0xFFFE))
}
